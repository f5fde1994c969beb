package domain

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"png", "PNG", " Png "} {
		format, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", name, err)
		}
		if format != FormatPNG {
			t.Fatalf("expected png, got %s", format)
		}
	}

	for _, name := range []string{"jpeg", "JPEG", "jpg"} {
		format, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", name, err)
		}
		if format != FormatJPEG {
			t.Fatalf("expected jpeg, got %s", format)
		}
	}

	if _, err := ParseFormat("bmp"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for bmp, got %v", err)
	}
	if _, err := ParseFormat(""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for empty name, got %v", err)
	}
}

func TestUploadRequestValidate_AspectRatioRule(t *testing.T) {
	base := UploadRequest{
		TargetFormat:    "png",
		KeepAspectRatio: true,
		RawImageBytes:   []byte{1, 2, 3},
	}

	ok := base
	ok.TargetWidth = 400
	if err := ok.Validate(); err != nil {
		t.Fatalf("width-only request should validate, got %v", err)
	}

	ok = base
	ok.TargetHeight = 300
	if err := ok.Validate(); err != nil {
		t.Fatalf("height-only request should validate, got %v", err)
	}

	both := base
	both.TargetWidth = 400
	both.TargetHeight = 300
	if err := both.Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions when both dimensions given, got %v", err)
	}

	neither := base
	if err := neither.Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions when neither dimension given, got %v", err)
	}
}

func TestUploadRequestValidate_ExactDimensions(t *testing.T) {
	req := UploadRequest{
		TargetWidth:   200,
		TargetHeight:  100,
		TargetFormat:  "jpeg",
		RawImageBytes: []byte{1},
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.TargetHeight = 0
	if err := req.Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestUploadRequestValidate_RejectsBeforePayloadCheck(t *testing.T) {
	// Format is checked before the payload so a bad format wins even when
	// the payload is also empty.
	req := UploadRequest{TargetWidth: 10, TargetHeight: 10, TargetFormat: "bmp"}
	if err := req.Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	req.TargetFormat = "png"
	if err := req.Validate(); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

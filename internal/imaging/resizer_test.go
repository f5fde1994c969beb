package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dunamismax/imagevault/internal/domain"
)

func TestResize_DerivesHeightFromAspectRatio(t *testing.T) {
	src := buildTestPNG(t, 800, 600)

	out, width, height, err := Resize(src, 400, 0, true, domain.FormatPNG)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if width != 400 || height != 300 {
		t.Fatalf("expected 400x300, got %dx%d", width, height)
	}
	verifyDimensions(t, out, 400, 300)
}

func TestResize_DerivesWidthFromAspectRatio(t *testing.T) {
	src := buildTestPNG(t, 800, 600)

	_, width, height, err := Resize(src, 0, 300, true, domain.FormatJPEG)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if width != 400 || height != 300 {
		t.Fatalf("expected 400x300, got %dx%d", width, height)
	}
}

func TestResize_ExactDimensionsIgnoreAspect(t *testing.T) {
	src := buildTestPNG(t, 640, 480)

	out, width, height, err := Resize(src, 100, 200, false, domain.FormatPNG)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if width != 100 || height != 200 {
		t.Fatalf("expected 100x200, got %dx%d", width, height)
	}
	verifyDimensions(t, out, 100, 200)
}

func TestResize_InvalidDimensionCombinations(t *testing.T) {
	src := buildTestPNG(t, 100, 100)

	if _, _, _, err := Resize(src, 100, 100, true, domain.FormatPNG); !errors.Is(err, domain.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions for both dims with aspect, got %v", err)
	}
	if _, _, _, err := Resize(src, 0, 0, true, domain.FormatPNG); !errors.Is(err, domain.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions for no dims with aspect, got %v", err)
	}
	if _, _, _, err := Resize(src, 100, 0, false, domain.FormatPNG); !errors.Is(err, domain.ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions for missing height, got %v", err)
	}
}

func TestResize_MalformedBytes(t *testing.T) {
	_, _, _, err := Resize([]byte("definitely not an image"), 100, 0, true, domain.FormatPNG)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestResize_UnknownFormatRejectedBeforeDecode(t *testing.T) {
	// Garbage bytes prove the format check runs first: a decode attempt
	// would report ErrDecode instead.
	_, _, _, err := Resize([]byte("garbage"), 100, 0, true, domain.Format("bmp"))
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestResize_CanonicalBytesAreDeterministic(t *testing.T) {
	src := buildTestPNG(t, 240, 120)

	first, _, _, err := Resize(src, 80, 0, true, domain.FormatPNG)
	if err != nil {
		t.Fatalf("first resize: %v", err)
	}
	second, _, _, err := Resize(src, 80, 0, true, domain.FormatPNG)
	if err != nil {
		t.Fatalf("second resize: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical canonical bytes for identical inputs")
	}
}

func TestResize_EncodesRequestedFormat(t *testing.T) {
	src := buildTestPNG(t, 64, 64)

	out, _, _, err := Resize(src, 32, 0, true, domain.FormatJPEG)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	_, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
}

func buildTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 90,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func verifyDimensions(t *testing.T, data []byte, wantW, wantH int) {
	t.Helper()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output image: %v", err)
	}
	if got := img.Bounds().Dx(); got != wantW {
		t.Fatalf("expected width %d, got %d", wantW, got)
	}
	if got := img.Bounds().Dy(); got != wantH {
		t.Fatalf("expected height %d, got %d", wantH, got)
	}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the closed set of canonical encodings the repository stores.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

var (
	ErrInvalidDimensions = errors.New("invalid target dimensions")
	ErrUnsupportedFormat = errors.New("unsupported target format")
	ErrEmptyPayload      = errors.New("image payload is empty")
)

// ParseFormat resolves a caller-supplied format name case-insensitively.
// "jpg" is accepted as an alias for jpeg.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

// StoredImage is the sole persisted entity. Records are write-once: the
// store assigns ImageID at insert and nothing ever mutates or deletes a row.
type StoredImage struct {
	ImageID          string
	FileName         string
	Format           Format
	Width            int
	Height           int
	ContentHash      string
	EncryptedPayload []byte
	CreatedAt        time.Time
	Owner            string
}

// UploadRequest is the shape the HTTP boundary hands to the ingestion
// pipeline after parsing the multipart body.
type UploadRequest struct {
	TargetWidth     int
	TargetHeight    int
	TargetFormat    string
	KeepAspectRatio bool
	RawImageBytes   []byte
	OriginalName    string
	CallerIdentity  string
}

type ImportResult struct {
	ImageID       string `json:"imageId"`
	AlreadyExists bool   `json:"alreadyExists"`
}

type ImageInfo struct {
	OriginalFilename  string    `json:"originalFilename"`
	Format            Format    `json:"format"`
	CreatedAt         time.Time `json:"createdAt"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	StoredSizeInBytes int       `json:"storedSizeInBytes"`
	Owner             string    `json:"owner,omitempty"`
}

// Validate checks request shape only; it never touches the payload contents.
// With KeepAspectRatio set, exactly one target dimension must be positive and
// the other is derived from the source aspect ratio later. Without it, both
// must be positive.
func (r UploadRequest) Validate() error {
	if _, err := ParseFormat(r.TargetFormat); err != nil {
		return err
	}

	if r.KeepAspectRatio {
		if (r.TargetWidth > 0) == (r.TargetHeight > 0) {
			return fmt.Errorf("%w: exactly one of targetWidth/targetHeight must be positive when keepAspectRatio is set", ErrInvalidDimensions)
		}
	} else {
		if r.TargetWidth <= 0 || r.TargetHeight <= 0 {
			return fmt.Errorf("%w: targetWidth and targetHeight must both be positive", ErrInvalidDimensions)
		}
	}

	if len(r.RawImageBytes) == 0 {
		return ErrEmptyPayload
	}
	return nil
}

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/dunamismax/imagevault/internal/domain"
)

var ErrDecode = errors.New("decode source image")

// encoders is the closed capability table for canonical output formats.
// Every entry re-encodes at the maximum quality its format supports; the
// resulting bytes are the canonical form used for hashing and storage.
var encoders = map[domain.Format]func(*bytes.Buffer, image.Image) error{
	domain.FormatPNG: func(buf *bytes.Buffer, img image.Image) error {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(buf, img)
	},
	domain.FormatJPEG: func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 100})
	},
}

// Resize decodes source, scales it to the requested dimensions and
// re-encodes it into the canonical target format. It returns the canonical
// bytes along with the actual output width and height.
//
// With keepAspect set, exactly one of targetWidth/targetHeight must be
// positive; the missing dimension is derived from the source aspect ratio,
// rounded down. Without it, both dimensions are used verbatim and must be
// positive.
func Resize(source []byte, targetWidth, targetHeight int, keepAspect bool, format domain.Format) ([]byte, int, int, error) {
	encode, ok := encoders[format]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	src, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	srcBounds := src.Bounds()
	width, height, err := targetDimensions(srcBounds.Dx(), srcBounds.Dy(), targetWidth, targetHeight, keepAspect)
	if err != nil {
		return nil, 0, 0, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcBounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := encode(&buf, dst); err != nil {
		return nil, 0, 0, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), width, height, nil
}

func targetDimensions(srcW, srcH, targetW, targetH int, keepAspect bool) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("%w: source image has degenerate dimensions %dx%d", ErrDecode, srcW, srcH)
	}

	if !keepAspect {
		if targetW <= 0 || targetH <= 0 {
			return 0, 0, fmt.Errorf("%w: %dx%d", domain.ErrInvalidDimensions, targetW, targetH)
		}
		return targetW, targetH, nil
	}

	aspect := float64(srcW) / float64(srcH)
	switch {
	case targetW > 0 && targetH <= 0:
		targetH = int(float64(targetW) / aspect)
	case targetH > 0 && targetW <= 0:
		targetW = int(float64(targetH) * aspect)
	default:
		return 0, 0, fmt.Errorf("%w: exactly one of width/height must be positive to keep aspect ratio", domain.ErrInvalidDimensions)
	}

	if targetW < 1 || targetH < 1 {
		return 0, 0, fmt.Errorf("%w: derived dimensions %dx%d", domain.ErrInvalidDimensions, targetW, targetH)
	}
	return targetW, targetH, nil
}

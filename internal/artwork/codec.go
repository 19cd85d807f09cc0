package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Codec is the image decode/scale/encode collaborator consumed by the
// Adjuster. Implementations must be safe for concurrent use.
type Codec interface {
	// Decode turns an image blob into a pixel buffer.
	Decode(data []byte) (image.Image, error)

	// Scale resizes a pixel buffer to exactly width x height.
	Scale(img image.Image, width, height int) image.Image

	// Encode serializes a pixel buffer. Quality is in (0, 1] and applies
	// to lossy formats only.
	Encode(img image.Image, format tagfile.ImageFormat, quality float64) ([]byte, error)
}

// StdCodec implements Codec with the standard image decoders and
// Catmull-Rom resampling.
type StdCodec struct{}

// NewStdCodec returns the stock codec.
func NewStdCodec() *StdCodec {
	return &StdCodec{}
}

// Decode decodes a JPEG or PNG blob.
func (StdCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Scale resizes with Catmull-Rom interpolation, the highest-quality kernel
// x/image/draw offers.
func (StdCodec) Scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Encode serializes to JPEG (at the given quality) or PNG.
func (StdCodec) Encode(img image.Image, format tagfile.ImageFormat, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case tagfile.ImagePNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		q := int(quality*100 + 0.5)
		if q < 1 {
			q = 1
		} else if q > 100 {
			q = 100
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}

package tagfile

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"image"

	// Register decoders for lazy dimension probing.
	_ "image/jpeg"
	_ "image/png"
)

// ImageFormat is the declared encoding of an artwork blob.
type ImageFormat string

// Supported artwork encodings.
const (
	ImageJPEG ImageFormat = "jpeg"
	ImagePNG  ImageFormat = "png"
)

// MIMEType returns the MIME type for the image format.
func (f ImageFormat) MIMEType() string {
	if f == ImagePNG {
		return "image/png"
	}
	return "image/jpeg"
}

// ArtworkTag is one embedded image owned by a TagFile.
//
// The blob is immutable after construction; replacing the artwork means
// replacing the whole ArtworkTag. The content hash is always consistent with
// the blob and is used for cheap equality and change detection.
type ArtworkTag struct {
	data   []byte
	format ImageFormat
	hash   string
	width  int
	height int
	probed bool
}

// NewArtwork creates an ArtworkTag from an image blob, sniffing the format
// from the blob's magic bytes.
func NewArtwork(data []byte) *ArtworkTag {
	return NewArtworkWithFormat(data, SniffImageFormat(data))
}

// NewArtworkWithFormat creates an ArtworkTag with a declared format.
func NewArtworkWithFormat(data []byte, format ImageFormat) *ArtworkTag {
	sum := md5.Sum(data)
	return &ArtworkTag{
		data:   data,
		format: format,
		hash:   hex.EncodeToString(sum[:]),
	}
}

// NewArtworkWithSize creates an ArtworkTag with known pixel dimensions,
// avoiding a later decode to probe them.
func NewArtworkWithSize(data []byte, format ImageFormat, width, height int) *ArtworkTag {
	a := NewArtworkWithFormat(data, format)
	a.width = width
	a.height = height
	a.probed = true
	return a
}

// Data returns the image blob. Callers must not modify it.
func (a *ArtworkTag) Data() []byte {
	return a.data
}

// Format returns the declared image format.
func (a *ArtworkTag) Format() ImageFormat {
	return a.format
}

// Hash returns the MD5 content hash of the blob, hex-encoded.
func (a *ArtworkTag) Hash() string {
	return a.hash
}

// Size returns the blob length in bytes.
func (a *ArtworkTag) Size() int {
	return len(a.data)
}

// Width returns the pixel width, probing the blob on first use.
func (a *ArtworkTag) Width() int {
	a.probe()
	return a.width
}

// Height returns the pixel height, probing the blob on first use.
func (a *ArtworkTag) Height() int {
	a.probe()
	return a.height
}

// Equal reports whether two artworks hold the same image bytes.
func (a *ArtworkTag) Equal(other *ArtworkTag) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.hash == other.hash
}

// probe lazily decodes the image header for pixel dimensions.
// A blob that fails to decode keeps zero dimensions.
func (a *ArtworkTag) probe() {
	if a.probed {
		return
	}
	a.probed = true
	cfg, _, err := image.DecodeConfig(bytes.NewReader(a.data))
	if err != nil {
		return
	}
	a.width = cfg.Width
	a.height = cfg.Height
}

// SniffImageFormat detects the image encoding from magic bytes.
// Anything that is not PNG is treated as JPEG, matching the engine's
// JPEG-default write behavior.
func SniffImageFormat(data []byte) ImageFormat {
	if len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		return ImagePNG
	}
	return ImageJPEG
}

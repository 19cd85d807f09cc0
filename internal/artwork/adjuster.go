// Package artwork brings embedded images within configured resolution, byte
// size and format constraints using the fewest destructive steps.
package artwork

import (
	"image"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// Historical floors of the size-reduction loop. Existing presets depend on
// them; they are defaults, not hard limits.
const (
	DefaultMinEdgePx  = 300
	DefaultMinQuality = 0.5
)

// Step sizes of the reduction loop.
const (
	edgeStep    = 100
	qualityStep = 0.1
)

// qualityEpsilon guards the float comparison against accumulated
// subtraction drift.
const qualityEpsilon = 1e-9

// Config holds the constraints one Adjust call enforces.
type Config struct {
	// TargetFormat is the encoding used for re-encodes and, when
	// EnforceFormat is set, required of the final result.
	TargetFormat  tagfile.ImageFormat `validate:"oneof=jpeg png"`
	EnforceFormat bool

	// MaxResolutionPx bounds both image dimensions.
	MaxResolutionPx int `validate:"gt=0"`

	// MaxKilobytes bounds the encoded blob size.
	MaxKilobytes int `validate:"gt=0"`

	// InitialQuality is the JPEG quality of the first re-encode.
	InitialQuality float64 `validate:"gt=0,lte=1"`

	// MinQuality and MinEdgePx are the reduction-loop floors.
	MinQuality float64 `validate:"gt=0,lte=1"`
	MinEdgePx  int     `validate:"gt=0"`
}

// DefaultConfig returns the stock constraint set: 500px, 256KB JPEG.
func DefaultConfig() Config {
	return Config{
		TargetFormat:    tagfile.ImageJPEG,
		EnforceFormat:   true,
		MaxResolutionPx: 500,
		MaxKilobytes:    256,
		InitialQuality:  0.9,
		MinQuality:      DefaultMinQuality,
		MinEdgePx:       DefaultMinEdgePx,
	}
}

// Adjuster shrinks and re-encodes artwork to satisfy a Config.
// Immutable after construction; safe for concurrent use.
type Adjuster struct {
	cfg   Config
	codec Codec
}

// NewAdjuster creates an adjuster with the given constraints and codec.
// A nil codec selects the stock one.
func NewAdjuster(cfg Config, codec Codec) *Adjuster {
	if codec == nil {
		codec = NewStdCodec()
	}
	return &Adjuster{cfg: cfg, codec: codec}
}

// Adjust returns artwork satisfying the configured constraints.
//
// Steps run in order, each only when needed: one uniform rescale into the
// resolution bounding box, then a size-reduction loop (shrink the longer
// edge by 100px while above the edge floor, then lower quality by 0.1 per
// pass while above the quality floor, checking size after every re-encode),
// then one format-enforcing re-encode. The loop terminates once both floors
// are reached even if the size constraint is unmet; in that case, or when
// the format step pushed the result back over the limit, Adjust fails with
// a size-constraint error rather than returning an oversized blob.
//
// An already-conforming input is returned as-is: same ArtworkTag, same
// hash, zero decode or encode work.
func (a *Adjuster) Adjust(art *tagfile.ArtworkTag) (*tagfile.ArtworkTag, error) {
	if art == nil {
		return nil, errors.Validation("no artwork to adjust")
	}

	maxBytes := a.cfg.MaxKilobytes * 1024
	data := art.Data()
	format := art.Format()
	width, height := art.Width(), art.Height()
	quality := a.cfg.InitialQuality
	changed := false

	// Decoded pixel buffer, populated on first need and reused across steps.
	var pixels image.Image
	decode := func() error {
		if pixels != nil {
			return nil
		}
		img, err := a.codec.Decode(data)
		if err != nil {
			return errors.Wrap(err, errors.CodeMalformedTag, "artwork is not a decodable image")
		}
		pixels = img
		return nil
	}

	// Resolution step.
	if width > a.cfg.MaxResolutionPx || height > a.cfg.MaxResolutionPx {
		if err := decode(); err != nil {
			return nil, err
		}
		width, height = fitBox(width, height, a.cfg.MaxResolutionPx)
		pixels = a.codec.Scale(pixels, width, height)
		encoded, err := a.codec.Encode(pixels, a.cfg.TargetFormat, quality)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "re-encode after rescale")
		}
		data = encoded
		format = a.cfg.TargetFormat
		changed = true
	}

	// Size-reduction loop. Bounded: the edge shrinks toward MinEdgePx and
	// the quality toward MinQuality; when neither can move, the loop exits.
reduce:
	for len(data) > maxBytes {
		edge := max(width, height)
		switch {
		case edge > a.cfg.MinEdgePx:
			if err := decode(); err != nil {
				return nil, err
			}
			width, height = fitBox(width, height, max(edge-edgeStep, a.cfg.MinEdgePx))
			pixels = a.codec.Scale(pixels, width, height)
		case quality > a.cfg.MinQuality+qualityEpsilon:
			if err := decode(); err != nil {
				return nil, err
			}
			quality -= qualityStep
			if quality < a.cfg.MinQuality {
				quality = a.cfg.MinQuality
			}
		default:
			// Both floors reached.
			break reduce
		}
		encoded, err := a.codec.Encode(pixels, format, quality)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "re-encode during size reduction")
		}
		data = encoded
		changed = true
	}

	// Format step.
	if a.cfg.EnforceFormat && format != a.cfg.TargetFormat {
		if err := decode(); err != nil {
			return nil, err
		}
		encoded, err := a.codec.Encode(pixels, a.cfg.TargetFormat, quality)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "re-encode to target format")
		}
		data = encoded
		format = a.cfg.TargetFormat
		changed = true
	}

	// Final check: never return silently oversized.
	if len(data) > maxBytes {
		return nil, errors.SizeConstraintf("artwork still %d bytes after reduction, limit %d",
			len(data), maxBytes)
	}

	if !changed {
		return art, nil
	}
	return tagfile.NewArtworkWithSize(data, format, width, height), nil
}

// fitBox scales dimensions uniformly into a maxEdge x maxEdge bounding box.
func fitBox(width, height, maxEdge int) (int, int) {
	if width >= height {
		return maxEdge, max(height*maxEdge/width, 1)
	}
	return max(width*maxEdge/height, 1), maxEdge
}

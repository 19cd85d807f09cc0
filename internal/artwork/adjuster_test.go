package artwork

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// fakeCodec is a deterministic codec: the encoded size is pixel count times
// quality, so the reduction loop's behavior can be asserted exactly. Decode
// yields an image of the configured dimensions.
type fakeCodec struct {
	dims    image.Point
	decodes int
	encodes int
}

func (c *fakeCodec) Decode(data []byte) (image.Image, error) {
	c.decodes++
	return image.NewRGBA(image.Rect(0, 0, c.dims.X, c.dims.Y)), nil
}

func (c *fakeCodec) Scale(img image.Image, width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (c *fakeCodec) Encode(img image.Image, format tagfile.ImageFormat, quality float64) ([]byte, error) {
	c.encodes++
	b := img.Bounds()
	return make([]byte, int(float64(b.Dx()*b.Dy())*quality)), nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EnforceFormat = false
	return cfg
}

func TestAdjust_ConformingInputUntouched(t *testing.T) {
	codec := &fakeCodec{}
	adj := NewAdjuster(testConfig(), codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 10*1024), tagfile.ImageJPEG, 400, 400)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	assert.Same(t, art, out)
	assert.Equal(t, art.Hash(), out.Hash())
	assert.Zero(t, codec.decodes)
	assert.Zero(t, codec.encodes)
}

func TestAdjust_ResolutionStep(t *testing.T) {
	codec := &fakeCodec{}
	adj := NewAdjuster(testConfig(), codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 10*1024), tagfile.ImageJPEG, 1000, 800)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	assert.Equal(t, 500, out.Width())
	assert.Equal(t, 400, out.Height())
	assert.Equal(t, 1, codec.encodes)
	// 500*400*0.9 = 180000 bytes, within the 256KB cap.
	assert.Equal(t, 180000, out.Size())
}

func TestAdjust_SizeLoopShrinksEdgeFirst(t *testing.T) {
	cfg := testConfig()
	cfg.MaxKilobytes = 160
	codec := &fakeCodec{}
	adj := NewAdjuster(cfg, codec)

	// Within resolution bounds but over the byte cap.
	art := tagfile.NewArtworkWithSize(make([]byte, 300*1024), tagfile.ImageJPEG, 500, 500)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	// One edge step: 500 -> 400, 400*400*0.9 = 144000 <= 160KB.
	assert.Equal(t, 400, out.Width())
	assert.Equal(t, 400, out.Height())
	assert.Equal(t, 144000, out.Size())
}

func TestAdjust_SizeLoopLowersQualityAtEdgeFloor(t *testing.T) {
	cfg := testConfig()
	cfg.MinEdgePx = 500 // edge already at the floor, only quality can move
	cfg.MaxKilobytes = 200
	codec := &fakeCodec{dims: image.Point{X: 500, Y: 500}}
	adj := NewAdjuster(cfg, codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 250000), tagfile.ImageJPEG, 500, 500)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	// One quality step: 0.9 -> 0.8, 500*500*0.8 = 200000 <= 204800.
	assert.Equal(t, 200000, out.Size())
	assert.Equal(t, 500, out.Width())
	assert.Equal(t, 500, out.Height())
}

func TestAdjust_UnsatisfiableFailsWithSizeConstraint(t *testing.T) {
	cfg := testConfig()
	cfg.MaxKilobytes = 1
	codec := &fakeCodec{}
	adj := NewAdjuster(cfg, codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 300*1024), tagfile.ImageJPEG, 500, 500)
	out, err := adj.Adjust(art)

	// Both floors reached: 300*300*0.5 = 45000 bytes, still over 1KB.
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSizeConstraint))
	assert.Nil(t, out)
}

func TestAdjust_FloorsAreRespected(t *testing.T) {
	cfg := testConfig()
	cfg.MaxKilobytes = 50
	codec := &fakeCodec{}
	adj := NewAdjuster(cfg, codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 300*1024), tagfile.ImageJPEG, 500, 500)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	// Shrinks 500 -> 400 -> 300, then quality 0.9 -> 0.6:
	// 300*300*0.6 = 54000 > 51200, 300*300*0.5 = 45000 fits.
	assert.GreaterOrEqual(t, out.Width(), cfg.MinEdgePx)
	assert.GreaterOrEqual(t, out.Height(), cfg.MinEdgePx)
	assert.LessOrEqual(t, out.Size(), cfg.MaxKilobytes*1024)
}

func TestAdjust_EnforceFormatReencodes(t *testing.T) {
	cfg := testConfig()
	cfg.EnforceFormat = true
	codec := &fakeCodec{}
	adj := NewAdjuster(cfg, codec)

	art := tagfile.NewArtworkWithSize(make([]byte, 1024), tagfile.ImagePNG, 100, 100)
	out, err := adj.Adjust(art)
	require.NoError(t, err)

	assert.Equal(t, tagfile.ImageJPEG, out.Format())
	assert.Equal(t, 1, codec.encodes)
}

func TestAdjust_NilArtwork(t *testing.T) {
	adj := NewAdjuster(testConfig(), &fakeCodec{})

	_, err := adj.Adjust(nil)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestAdjust_RealCodecConvergesAndIsIdempotent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 900, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 900; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))

	adj := NewAdjuster(DefaultConfig(), nil)

	first, err := adj.Adjust(tagfile.NewArtwork(buf.Bytes()))
	require.NoError(t, err)
	assert.LessOrEqual(t, first.Width(), 500)
	assert.LessOrEqual(t, first.Height(), 500)
	assert.LessOrEqual(t, first.Size(), 256*1024)

	// A conforming result passes through unchanged.
	second, err := adj.Adjust(first)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		w, h, maxEdge int
		wantW, wantH  int
	}{
		{1000, 800, 500, 500, 400},
		{800, 1000, 500, 400, 500},
		{500, 500, 300, 300, 300},
		{2000, 10, 500, 500, 2},
	}
	for _, tt := range tests {
		w, h := fitBox(tt.w, tt.h, tt.maxEdge)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}

package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

func TestRoundTrip_AllFormatsAllLevels(t *testing.T) {
	c := MustConverter(nil)

	for _, format := range tagfile.Formats() {
		for stars := 1; stars <= TableSize; stars++ {
			native, err := c.FromHalfStars(format, stars)
			require.NoError(t, err)

			back, err := c.ToHalfStars(format, native)
			require.NoError(t, err)
			assert.Equal(t, stars, back, "format %s stars %d via native %d", format, stars, native)
		}
	}
}

func TestToHalfStars_Monotonic(t *testing.T) {
	c := MustConverter(nil)

	for _, format := range tagfile.Formats() {
		prev := 0
		for native := 0; native <= 255; native++ {
			stars, err := c.ToHalfStars(format, native)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, stars, prev, "format %s native %d", format, native)
			prev = stars
		}
	}
}

func TestToHalfStars_BelowFirstBreakpointIsUnrated(t *testing.T) {
	c := MustConverter(nil)

	stars, err := c.ToHalfStars(tagfile.FormatMP3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stars)

	// The default MP4 table starts at 10.
	stars, err = c.ToHalfStars(tagfile.FormatMP4, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, stars)
}

func TestToHalfStars_BetweenBreakpointsFloors(t *testing.T) {
	c := MustConverter(nil)

	tests := []struct {
		native int
		stars  int
	}{
		{1, 1},
		{31, 1},
		{32, 2},
		{64, 3},
		{95, 3},
		{255, 10},
	}
	for _, tt := range tests {
		stars, err := c.ToHalfStars(tagfile.FormatMP3, tt.native)
		require.NoError(t, err)
		assert.Equal(t, tt.stars, stars, "native %d", tt.native)
	}
}

func TestFromHalfStars_Clamping(t *testing.T) {
	c := MustConverter(nil)

	native, err := c.FromHalfStars(tagfile.FormatMP3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, native)

	native, err = c.FromHalfStars(tagfile.FormatMP3, 15)
	require.NoError(t, err)
	assert.Equal(t, 255, native)
}

func TestConverter_UnsupportedFormat(t *testing.T) {
	c := MustConverter(nil)

	_, err := c.ToHalfStars("AIFF", 10)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	_, err = c.FromHalfStars("AIFF", 5)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestSetConversion_RequiresExactlyTenEntries(t *testing.T) {
	c := MustConverter(nil)

	tests := []struct {
		name   string
		values []int
		valid  bool
	}{
		{"nine entries", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, false},
		{"eleven entries", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, false},
		{"empty", nil, false},
		{"ten entries", []int{5, 15, 25, 35, 45, 55, 65, 75, 85, 95}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := c.SetConversion(tagfile.FormatMP4, tt.values)
			if tt.valid {
				require.NoError(t, err)
				native, err := next.FromHalfStars(tagfile.FormatMP4, 1)
				require.NoError(t, err)
				assert.Equal(t, tt.values[0], native)
				return
			}
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
			assert.Nil(t, next)
		})
	}
}

func TestSetConversion_NeverPartiallyApplies(t *testing.T) {
	c := MustConverter(nil)

	// Out of range for MP4 (max 100) fails after length validation.
	_, err := c.SetConversion(tagfile.FormatMP4, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 200})
	require.Error(t, err)

	// The receiver still answers with the stock table.
	native, err := c.FromHalfStars(tagfile.FormatMP4, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, native)
}

func TestNewConverter_RejectsNonMonotonicTable(t *testing.T) {
	_, err := NewConverter(Tables{
		tagfile.FormatMP3: {1, 32, 16, 96, 128, 160, 192, 224, 240, 255},
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

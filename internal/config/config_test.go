package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Write: WriteConfig{
			ID3Version: 3,
			ID3v1Sync:  true,
			UseTDRC:    true,
		},
		Artwork: ArtworkConfig{
			TargetFormat:    "JPEG",
			MaxResolutionPx: 500,
			MaxKilobytes:    256,
			InitialQuality:  0.9,
			MinQuality:      0.5,
			MinEdgePx:       300,
		},
		Batch: BatchConfig{MaxConcurrent: 4, ContinueOnError: true},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ID3Version(t *testing.T) {
	tests := []struct {
		version int
		valid   bool
	}{
		{3, true},
		{4, true},
		{2, false},
		{0, false},
		{5, false},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.Write.ID3Version = tt.version
		err := cfg.Validate()
		if tt.valid {
			assert.NoError(t, err, "version %d", tt.version)
		} else {
			assert.Error(t, err, "version %d", tt.version)
		}
	}
}

func TestValidate_ArtworkFormatNormalized(t *testing.T) {
	cfg := validConfig()
	cfg.Artwork.TargetFormat = "png"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "PNG", cfg.Artwork.TargetFormat)

	cfg.Artwork.TargetFormat = "webp"
	assert.Error(t, cfg.Validate())
}

func TestValidate_ArtworkQualityBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Artwork.InitialQuality = 1.5
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Artwork.MinQuality = 0.95 // above initial quality
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Artwork.MinEdgePx = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_FrameBlacklist(t *testing.T) {
	cfg := validConfig()
	cfg.Write.FrameBlacklist = []string{"PRIV", "GEOB"}
	assert.NoError(t, cfg.Validate())

	cfg.Write.FrameBlacklist = []string{"priv"}
	assert.Error(t, cfg.Validate())

	cfg.Write.FrameBlacklist = []string{"TOOLONG"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_MaxConcurrent(t *testing.T) {
	cfg := validConfig()
	cfg.Batch.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"PRIV"}, splitList("PRIV"))
	assert.Equal(t, []string{"PRIV", "GEOB"}, splitList("PRIV, GEOB"))
	assert.Equal(t, []string{"PRIV"}, splitList("PRIV,,"))
}

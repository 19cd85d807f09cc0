// Package config provides engine configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the engine configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Write   WriteConfig
	Artwork ArtworkConfig
	Batch   BatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// WriteConfig holds tag-writing policy configuration.
type WriteConfig struct {
	// ID3Version is the ID3v2 revision written to MP3 files (3 or 4).
	ID3Version int
	// ID3v1Sync keeps an ID3v1 trailer in sync with the v2 tag. When
	// false any existing trailer is stripped on write.
	ID3v1Sync bool
	// RatingEmail is the rating authority written into POPM frames and
	// preferred when several rating frames disagree.
	RatingEmail string
	// RatingSingleFrame collapses all POPM frames into one on write.
	RatingSingleFrame bool
	// SingleArtwork treats the first embedded image as the only one,
	// removing the rest on write.
	SingleArtwork bool
	// UseTDRL / UseTDOR / UseTDRC gate the ID3v2.4 date frames consulted,
	// in that fallback order (release, original release, recording).
	UseTDRL bool
	UseTDOR bool
	UseTDRC bool
	// FrameBlacklist lists ID3v2 frame ids removed on every write.
	FrameBlacklist []string
}

// ArtworkConfig holds embedded-artwork constraint configuration.
type ArtworkConfig struct {
	// TargetFormat is the preferred image format ("JPEG" or "PNG").
	TargetFormat string
	// EnforceFormat converts images to TargetFormat even when they
	// already satisfy the size constraints.
	EnforceFormat bool
	// MaxResolutionPx caps the longer image edge.
	MaxResolutionPx int
	// MaxKilobytes caps the encoded image size.
	MaxKilobytes int
	// InitialQuality is the JPEG quality the reduction loop starts at.
	InitialQuality float64
	// MinQuality is the floor the quality reduction stops at.
	MinQuality float64
	// MinEdgePx is the floor the resolution reduction stops at.
	MinEdgePx int
}

// BatchConfig holds batch-processing configuration.
type BatchConfig struct {
	// MaxConcurrent is the number of files processed in parallel.
	MaxConcurrent int
	// ContinueOnError keeps a batch running past per-file failures.
	ContinueOnError bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	// Write-policy flags
	id3Version := flag.String("id3-version", "", "ID3v2 revision written to MP3 files, 3 or 4 (default: 3)")
	id3v1Sync := flag.String("id3v1-sync", "", "Keep an ID3v1 trailer in sync with the v2 tag (default: true)")
	ratingEmail := flag.String("rating-email", "", "Rating authority email written into POPM frames")
	ratingSingle := flag.String("rating-single-frame", "", "Collapse POPM frames into one on write (default: false)")
	singleArtwork := flag.String("single-artwork", "", "Keep only the first embedded image (default: false)")
	useTDRL := flag.String("use-tdrl", "", "Read the TDRL release date frame (default: false)")
	useTDOR := flag.String("use-tdor", "", "Read the TDOR original release date frame (default: false)")
	useTDRC := flag.String("use-tdrc", "", "Read the TDRC recording date frame (default: true)")
	frameBlacklist := flag.String("frame-blacklist", "", "Comma-separated ID3v2 frame ids removed on write")

	// Artwork flags
	artworkFormat := flag.String("artwork-format", "", "Preferred artwork format, JPEG or PNG (default: JPEG)")
	artworkEnforce := flag.String("artwork-enforce-format", "", "Convert artwork to the preferred format (default: false)")
	artworkMaxPx := flag.String("artwork-max-px", "", "Longer-edge cap in pixels (default: 500)")
	artworkMaxKB := flag.String("artwork-max-kb", "", "Encoded size cap in kilobytes (default: 256)")
	artworkQuality := flag.String("artwork-quality", "", "Initial JPEG quality 0..1 (default: 0.9)")
	artworkMinQuality := flag.String("artwork-min-quality", "", "Quality reduction floor (default: 0.5)")
	artworkMinEdge := flag.String("artwork-min-edge", "", "Resolution reduction floor in pixels (default: 300)")

	// Batch flags
	maxConcurrent := flag.String("max-concurrent", "", "Files processed in parallel (default: 4)")
	continueOnError := flag.String("continue-on-error", "", "Keep a batch running past per-file failures (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Write: WriteConfig{
			ID3Version:        getIntConfigValue(*id3Version, "ID3_VERSION", 3),
			ID3v1Sync:         getBoolConfigValue(*id3v1Sync, "ID3V1_SYNC", true),
			RatingEmail:       getConfigValue(*ratingEmail, "RATING_EMAIL", ""),
			RatingSingleFrame: getBoolConfigValue(*ratingSingle, "RATING_SINGLE_FRAME", false),
			SingleArtwork:     getBoolConfigValue(*singleArtwork, "SINGLE_ARTWORK", false),
			UseTDRL:           getBoolConfigValue(*useTDRL, "USE_TDRL", false),
			UseTDOR:           getBoolConfigValue(*useTDOR, "USE_TDOR", false),
			UseTDRC:           getBoolConfigValue(*useTDRC, "USE_TDRC", true),
			FrameBlacklist:    splitList(getConfigValue(*frameBlacklist, "FRAME_BLACKLIST", "")),
		},
		Artwork: ArtworkConfig{
			TargetFormat:    getConfigValue(*artworkFormat, "ARTWORK_FORMAT", "JPEG"),
			EnforceFormat:   getBoolConfigValue(*artworkEnforce, "ARTWORK_ENFORCE_FORMAT", false),
			MaxResolutionPx: getIntConfigValue(*artworkMaxPx, "ARTWORK_MAX_PX", 500),
			MaxKilobytes:    getIntConfigValue(*artworkMaxKB, "ARTWORK_MAX_KB", 256),
			InitialQuality:  getFloatConfigValue(*artworkQuality, "ARTWORK_QUALITY", 0.9),
			MinQuality:      getFloatConfigValue(*artworkMinQuality, "ARTWORK_MIN_QUALITY", 0.5),
			MinEdgePx:       getIntConfigValue(*artworkMinEdge, "ARTWORK_MIN_EDGE", 300),
		},
		Batch: BatchConfig{
			MaxConcurrent:   getIntConfigValue(*maxConcurrent, "MAX_CONCURRENT", 4),
			ContinueOnError: getBoolConfigValue(*continueOnError, "CONTINUE_ON_ERROR", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Write.ID3Version != 3 && c.Write.ID3Version != 4 {
		return fmt.Errorf("invalid ID3 version: %d (must be 3 or 4)", c.Write.ID3Version)
	}

	format := strings.ToUpper(c.Artwork.TargetFormat)
	if format != "JPEG" && format != "PNG" {
		return fmt.Errorf("invalid artwork format: %s (must be JPEG or PNG)", c.Artwork.TargetFormat)
	}
	c.Artwork.TargetFormat = format

	if c.Artwork.MaxResolutionPx <= 0 {
		return fmt.Errorf("invalid artwork max px: %d (must be positive)", c.Artwork.MaxResolutionPx)
	}
	if c.Artwork.MaxKilobytes <= 0 {
		return fmt.Errorf("invalid artwork max kb: %d (must be positive)", c.Artwork.MaxKilobytes)
	}
	if c.Artwork.InitialQuality <= 0 || c.Artwork.InitialQuality > 1 {
		return fmt.Errorf("invalid artwork quality: %g (must be in (0, 1])", c.Artwork.InitialQuality)
	}
	if c.Artwork.MinQuality <= 0 || c.Artwork.MinQuality > c.Artwork.InitialQuality {
		return fmt.Errorf("invalid artwork min quality: %g (must be in (0, quality])", c.Artwork.MinQuality)
	}
	if c.Artwork.MinEdgePx <= 0 {
		return fmt.Errorf("invalid artwork min edge: %d (must be positive)", c.Artwork.MinEdgePx)
	}

	if c.Batch.MaxConcurrent < 1 {
		return fmt.Errorf("invalid max concurrent: %d (must be at least 1)", c.Batch.MaxConcurrent)
	}

	for _, id := range c.Write.FrameBlacklist {
		if len(id) != 4 || strings.ToUpper(id) != id {
			return fmt.Errorf("invalid blacklisted frame id: %q (must be a 4-character uppercase id)", id)
		}
	}

	return nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagforgeapp/tagforge-server/internal/artwork"
	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/processor"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/reader"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
	"github.com/tagforgeapp/tagforge-server/internal/validation"
	"github.com/tagforgeapp/tagforge-server/internal/writer"
)

// ProvideRatingConverter provides the per-format rating converter with the
// stock breakpoint tables.
func ProvideRatingConverter(i do.Injector) (*rating.Converter, error) {
	return rating.NewConverter(nil)
}

// ProvideArtworkAdjuster provides the artwork constraint adjuster built
// from the artwork configuration.
func ProvideArtworkAdjuster(i do.Injector) (*artwork.Adjuster, error) {
	cfg := do.MustInvoke[*config.Config](i)
	v := do.MustInvoke[*validation.Validator](i)

	format := tagfile.ImageJPEG
	if cfg.Artwork.TargetFormat == "PNG" {
		format = tagfile.ImagePNG
	}
	adjCfg := artwork.Config{
		TargetFormat:    format,
		EnforceFormat:   cfg.Artwork.EnforceFormat,
		MaxResolutionPx: cfg.Artwork.MaxResolutionPx,
		MaxKilobytes:    cfg.Artwork.MaxKilobytes,
		InitialQuality:  cfg.Artwork.InitialQuality,
		MinQuality:      cfg.Artwork.MinQuality,
		MinEdgePx:       cfg.Artwork.MinEdgePx,
	}
	if err := v.Validate(adjCfg); err != nil {
		return nil, err
	}
	return artwork.NewAdjuster(adjCfg, nil), nil
}

// ProvideReader provides the tag file reader.
func ProvideReader(i do.Injector) (*reader.Reader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	ratings := do.MustInvoke[*rating.Converter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return reader.New(cfg.Write, ratings, log), nil
}

// ProvideWriter provides the tag file writer.
func ProvideWriter(i do.Injector) (*writer.Writer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	ratings := do.MustInvoke[*rating.Converter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return writer.New(cfg.Write, ratings, log), nil
}

// ProvideProcessor provides the batch processor.
func ProvideProcessor(i do.Injector) (*processor.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	r := do.MustInvoke[*reader.Reader](i)
	w := do.MustInvoke[*writer.Writer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return processor.New(r, w, log, cfg.Batch), nil
}

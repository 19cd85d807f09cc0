// Package providers contains the dependency injection providers for the engine.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/validation"
)

// ProvideConfig provides the engine configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting TagForge engine",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"id3_version", cfg.Write.ID3Version,
		"workers", cfg.Batch.MaxConcurrent,
	)

	return log, nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

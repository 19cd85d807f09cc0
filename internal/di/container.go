// Package di provides dependency injection configuration for the TagForge engine.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tagforgeapp/tagforge-server/internal/artwork"
	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/di/providers"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/processor"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/reader"
	"github.com/tagforgeapp/tagforge-server/internal/writer"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Engine components
	do.Provide(injector, providers.ProvideRatingConverter)
	do.Provide(injector, providers.ProvideArtworkAdjuster)
	do.Provide(injector, providers.ProvideReader)
	do.Provide(injector, providers.ProvideWriter)
	do.Provide(injector, providers.ProvideProcessor)

	return injector
}

// Bootstrap initializes all services. This triggers lazy initialization so
// configuration problems surface at startup, not mid-batch.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*rating.Converter](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*artwork.Adjuster](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*reader.Reader](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*writer.Writer](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*processor.Processor](injector); err != nil {
		return err
	}
	return nil
}

//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/thedub2001/skull01/internal/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideLocalStore,
	ProvideMetrics,
	ProvideTracing,
	ProvideRemoteBackend,
	ProvideRemoteStore,
	ProvideEventPublisher,
	ProvideEngine,
	ProvideAdapter,
	ProvideGraphOps,
	ProvideSettings,
	ProvideAuthValidator,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// stops the settings watcher, flushes traces and closes the local store.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}

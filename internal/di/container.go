// Package di wires the application together with Google Wire.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/infrastructure/observability"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/remote"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Local    *sqlite.Store
	Remote   *remote.Store
	Engine   *reconcile.Engine
	Adapter  *adapter.Adapter
	GraphOps *graphops.Handler
	Settings *config.SettingsStore
	Metrics  *observability.Collector
	Tracing  *observability.TracerProvider
	Handler  http.Handler
}

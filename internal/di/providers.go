package di

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/ports"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/infrastructure/messaging"
	"github.com/thedub2001/skull01/internal/infrastructure/observability"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/remote"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
	"github.com/thedub2001/skull01/internal/interfaces/http/rest"
	"github.com/thedub2001/skull01/pkg/auth"
)

// ProvideLogger creates the application logger. Production gets JSON output,
// everything else the console encoder.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", string(cfg.Environment))), nil
}

// ProvideLocalStore opens the embedded store, creating its directory first.
func ProvideLocalStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlite.Store, func(), error) {
	if cfg.Local.Path != sqlite.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Local.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create local store directory: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, cfg.Local.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close local store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideMetrics returns the prometheus collector, or nil when metrics are
// disabled.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Observability.EnableMetrics {
		return nil
	}
	return observability.NewCollector("mesh")
}

// ProvideTracing installs the tracer provider and flushes it on cleanup.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, cfg.Observability, cfg.Environment, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideRemoteBackend builds the configured hosted backend.
func ProvideRemoteBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (remote.Backend, error) {
	return remote.NewBackend(ctx, cfg.Remote, logger)
}

// ProvideRemoteStore wraps the backend with the breaker, retries and metrics.
func ProvideRemoteStore(backend remote.Backend, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *remote.Store {
	opts := remote.OptionsFromConfig(cfg)
	if metrics != nil {
		opts.Metrics = metrics
	}
	return remote.NewStore(backend, opts, logger)
}

// ProvideEventPublisher selects where domain events go.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	switch cfg.Events.Provider {
	case config.EventsEventBridge:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return messaging.NewEventBridgePublisher(
			eventbridge.NewFromConfig(awsCfg),
			cfg.Events.EventBusName,
			cfg.Events.Source,
			logger,
		), nil
	case config.EventsLog:
		return messaging.NewLogPublisher(logger), nil
	default:
		return messaging.NopPublisher{}, nil
	}
}

// ProvideEngine creates the reconciliation engine.
func ProvideEngine(
	local *sqlite.Store,
	rs *remote.Store,
	publisher ports.EventPublisher,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *reconcile.Engine {
	opts := reconcile.Options{Concurrency: cfg.Sync.Concurrency}
	if metrics != nil {
		opts.Metrics = metrics
	}
	return reconcile.NewEngine(local, rs, publisher, opts, logger)
}

// ProvideAdapter creates the mode adapter. Sync mode reads pull through the
// engine.
func ProvideAdapter(
	local *sqlite.Store,
	rs *remote.Store,
	engine *reconcile.Engine,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *adapter.Adapter {
	opts := []adapter.Option{adapter.WithPublisher(publisher)}
	if metrics != nil {
		opts = append(opts, adapter.WithMetrics(metrics))
	}
	return adapter.New(local, rs, engine, logger, opts...)
}

// ProvideGraphOps creates the graph mutation handler.
func ProvideGraphOps(logger *zap.Logger) *graphops.Handler {
	return graphops.NewHandler(logger)
}

// ProvideSettings opens the user settings and, when configured, watches the
// file for edits until cleanup.
func ProvideSettings(cfg *config.Config, logger *zap.Logger) (*config.SettingsStore, func(), error) {
	if dir := filepath.Dir(cfg.Settings.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create settings directory: %w", err)
		}
	}
	store, err := config.OpenSettings(cfg.Settings.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Settings.Watch {
		if err := store.Watch(); err != nil {
			logger.Warn("Settings hot reload disabled", zap.Error(err))
		}
	}
	return store, store.Stop, nil
}

// ProvideAuthValidator returns the bearer token validator, or nil when no
// secret is configured.
func ProvideAuthValidator(cfg *config.Config) (*auth.Validator, error) {
	if !cfg.Auth.Enabled() {
		return nil, nil
	}
	return auth.NewValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
}

// ProvideRouter builds the HTTP handler.
func ProvideRouter(
	cfg *config.Config,
	a *adapter.Adapter,
	engine *reconcile.Engine,
	ops *graphops.Handler,
	settings *config.SettingsStore,
	metrics *observability.Collector,
	validator *auth.Validator,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(rest.Dependencies{
		Adapter:  a,
		Engine:   engine,
		GraphOps: ops,
		Settings: settings,
		Metrics:  metrics,
		Auth:     validator,
		Server:   cfg.Server,
		Logger:   logger,
	}).Setup()
}

// Package config provides configuration management for the mesh graph sync
// service: the static application configuration and the mutable user
// settings (db mode and selected dataset).
package config

import (
	"fmt"
	"os"
	"time"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Remote provider names.
const (
	ProviderSupabase = "supabase"
	ProviderDynamoDB = "dynamodb"
	ProviderMemory   = "memory"
)

// Event publisher names.
const (
	EventsLog         = "log"
	EventsEventBridge = "eventbridge"
	EventsNone        = "none"
)

// Config holds all application configuration.
type Config struct {
	Environment   Environment   `yaml:"environment" json:"environment"`
	LogLevel      string        `yaml:"log_level" json:"log_level"`
	Server        Server        `yaml:"server" json:"server"`
	Local         Local         `yaml:"local" json:"local"`
	Remote        Remote        `yaml:"remote" json:"remote"`
	Sync          Sync          `yaml:"sync" json:"sync"`
	Breaker       Breaker       `yaml:"breaker" json:"breaker"`
	Retry         Retry         `yaml:"retry" json:"retry"`
	Events        Events        `yaml:"events" json:"events"`
	Auth          Auth          `yaml:"auth" json:"auth"`
	Observability Observability `yaml:"observability" json:"observability"`
	Settings      SettingsFile  `yaml:"settings" json:"settings"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server configures the HTTP API.
type Server struct {
	Address         string        `yaml:"address" json:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// Local configures the embedded SQLite store.
type Local struct {
	Path string `yaml:"path" json:"path"`
}

// Remote configures the hosted backend.
type Remote struct {
	Provider string        `yaml:"provider" json:"provider"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Supabase Supabase      `yaml:"supabase" json:"supabase"`
	DynamoDB DynamoDB      `yaml:"dynamodb" json:"dynamodb"`
}

// Supabase holds the hosted Postgres REST endpoint.
type Supabase struct {
	URL    string `yaml:"url" json:"url"`
	APIKey string `yaml:"api_key" json:"api_key"`
}

// DynamoDB holds the single-table layout.
type DynamoDB struct {
	Region    string `yaml:"region" json:"region"`
	TableName string `yaml:"table_name" json:"table_name"`
	IndexName string `yaml:"index_name" json:"index_name"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
}

// Sync tunes the reconciliation engine.
type Sync struct {
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// Breaker configures the remote circuit breaker.
type Breaker struct {
	MaxRequests     uint32        `yaml:"max_requests" json:"max_requests"`
	Interval        time.Duration `yaml:"interval" json:"interval"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	FailureRatio    float64       `yaml:"failure_ratio" json:"failure_ratio"`
	MinimumRequests uint32        `yaml:"minimum_requests" json:"minimum_requests"`
}

// Retry configures retries of transient remote failures.
type Retry struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	JitterFactor  float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// Events configures domain event publishing.
type Events struct {
	Provider     string `yaml:"provider" json:"provider"`
	EventBusName string `yaml:"event_bus_name" json:"event_bus_name"`
	Source       string `yaml:"source" json:"source"`
}

// Auth configures the optional bearer token check on the API.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer" json:"jwt_issuer"`
}

// Enabled reports whether API requests must carry a token.
func (a Auth) Enabled() bool {
	return a.JWTSecret != ""
}

// Observability configures metrics and tracing.
type Observability struct {
	EnableMetrics bool    `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing bool    `yaml:"enable_tracing" json:"enable_tracing"`
	ServiceName   string  `yaml:"service_name" json:"service_name"`
	OTLPEndpoint  string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate    float64 `yaml:"sample_rate" json:"sample_rate"`
}

// SettingsFile points at the mutable user settings document.
type SettingsFile struct {
	Path  string `yaml:"path" json:"path"`
	Watch bool   `yaml:"watch" json:"watch"`
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Remote.Provider {
	case ProviderSupabase:
		if c.Remote.Supabase.URL == "" || c.Remote.Supabase.APIKey == "" {
			return fmt.Errorf("supabase provider requires remote.supabase.url and remote.supabase.api_key")
		}
	case ProviderDynamoDB:
		if c.Remote.DynamoDB.TableName == "" {
			return fmt.Errorf("dynamodb provider requires remote.dynamodb.table_name")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("unknown remote provider %q", c.Remote.Provider)
	}

	switch c.Events.Provider {
	case EventsLog, EventsNone:
	case EventsEventBridge:
		if c.Events.EventBusName == "" {
			return fmt.Errorf("eventbridge publisher requires events.event_bus_name")
		}
	default:
		return fmt.Errorf("unknown events provider %q", c.Events.Provider)
	}

	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("sync.concurrency must be at least 1, got %d", c.Sync.Concurrency)
	}
	if c.Local.Path == "" {
		return fmt.Errorf("local.path is required")
	}
	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path is required")
	}

	if c.IsProduction() && c.Remote.Provider == ProviderMemory {
		return fmt.Errorf("memory remote provider is not allowed in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Default returns the configuration used when no file or variable overrides it.
func Default(env Environment) *Config {
	return &Config{
		Environment: env,
		LogLevel:    "info",
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Local: Local{
			Path: "./data/graph.db",
		},
		Remote: Remote{
			Provider: ProviderMemory,
			Timeout:  10 * time.Second,
			DynamoDB: DynamoDB{
				Region:    "us-east-1",
				TableName: "mesh-graph",
				IndexName: "GSI1",
			},
		},
		Sync: Sync{
			Concurrency: 16,
		},
		Breaker: Breaker{
			MaxRequests:     3,
			Interval:        10 * time.Second,
			Timeout:         30 * time.Second,
			FailureRatio:    0.5,
			MinimumRequests: 10,
		},
		Retry: Retry{
			MaxRetries:    3,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		Events: Events{
			Provider: EventsLog,
			Source:   "mesh.graphsync",
		},
		Auth: Auth{
			JWTIssuer: "mesh-graphsync",
		},
		Observability: Observability{
			EnableMetrics: true,
			ServiceName:   "mesh-graphsync",
			OTLPEndpoint:  "localhost:4317",
			SampleRate:    1.0,
		},
		Settings: SettingsFile{
			Path:  "./config/settings.yaml",
			Watch: true,
		},
	}
}

// GetEnvironment reads the environment from ENVIRONMENT, defaulting to development.
func GetEnvironment() Environment {
	switch Environment(os.Getenv("ENVIRONMENT")) {
	case Production:
		return Production
	case Staging:
		return Staging
	default:
		return Development
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from layered sources, lowest priority first:
//  1. defaults (in code)
//  2. base.yaml
//  3. <environment>.yaml
//  4. local.yaml (development only)
//  5. environment variables
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders []FileLoader
	lookupEnv   func(string) (string, bool)
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target any) error
	Extension() string
}

// NewLoader creates a loader reading files from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	return &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: []FileLoader{&YAMLLoader{}, &JSONLoader{}},
		lookupEnv:   os.LookupEnv,
	}
}

// Load applies every source and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Default(l.environment)
	l.sources = append(l.sources[:0], "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Sources returns where the last Load read configuration from.
func (l *Loader) Sources() []string {
	return l.sources
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	str := func(key string, target *string) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			*target = v
		}
	}
	boolean := func(key string, target *bool) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			*target = parseBool(v)
		}
	}

	str("LOG_LEVEL", &cfg.LogLevel)
	str("SERVER_ADDRESS", &cfg.Server.Address)
	if v, ok := l.lookupEnv("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	str("LOCAL_DB_PATH", &cfg.Local.Path)

	str("REMOTE_PROVIDER", &cfg.Remote.Provider)
	str("SUPABASE_URL", &cfg.Remote.Supabase.URL)
	str("SUPABASE_KEY", &cfg.Remote.Supabase.APIKey)
	str("AWS_REGION", &cfg.Remote.DynamoDB.Region)
	str("TABLE_NAME", &cfg.Remote.DynamoDB.TableName)
	str("INDEX_NAME", &cfg.Remote.DynamoDB.IndexName)
	str("DYNAMODB_ENDPOINT", &cfg.Remote.DynamoDB.Endpoint)

	if v, ok := l.lookupEnv("SYNC_CONCURRENCY"); ok && v != "" {
		if n := parseInt(v); n > 0 {
			cfg.Sync.Concurrency = n
		}
	}

	str("EVENTS_PROVIDER", &cfg.Events.Provider)
	str("EVENT_BUS_NAME", &cfg.Events.EventBusName)

	str("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("AUTH_JWT_ISSUER", &cfg.Auth.JWTIssuer)

	boolean("ENABLE_METRICS", &cfg.Observability.EnableMetrics)
	boolean("ENABLE_TRACING", &cfg.Observability.EnableTracing)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Observability.OTLPEndpoint)

	str("SETTINGS_PATH", &cfg.Settings.Path)
	boolean("SETTINGS_WATCH", &cfg.Settings.Watch)
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target any) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target any) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// LoadFromDir loads configuration for the current ENVIRONMENT from dir.
func LoadFromDir(dir string) (*Config, error) {
	return NewLoader(dir, GetEnvironment()).Load()
}

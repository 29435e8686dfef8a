// Package config loads server configuration from an optional YAML file and the
// environment. Environment variables override the file, which overrides the
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	strutil "estate/pkg/platform/strings"
)

// FileEnvVar names the variable holding the optional YAML config path.
const FileEnvVar = "ESTATE_CONFIG_FILE"

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Server captures everything cmd/server needs to wire the registry.
type Server struct {
	Addr    string        `yaml:"addr" env:"ESTATE_ADDR"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`

	MetricsEnabled bool `yaml:"metrics_enabled" env:"ESTATE_METRICS_ENABLED"`
}

// StorageConfig selects and configures the registry backend.
type StorageConfig struct {
	Driver         string `yaml:"driver" env:"ESTATE_STORAGE_DRIVER"`
	SQLitePath     string `yaml:"sqlite_path" env:"ESTATE_SQLITE_PATH"`
	PostgresDSN    string `yaml:"postgres_dsn" env:"ESTATE_POSTGRES_DSN"`
	PostgresDriver string `yaml:"postgres_driver" env:"ESTATE_POSTGRES_DRIVER"`
}

// RedisConfig configures the optional owner cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url" env:"ESTATE_REDIS_URL"`
	PoolSize     int           `yaml:"pool_size" env:"ESTATE_REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"ESTATE_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"ESTATE_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"ESTATE_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"ESTATE_REDIS_WRITE_TIMEOUT"`
	OwnerTTL     time.Duration `yaml:"owner_ttl" env:"ESTATE_OWNER_CACHE_TTL"`
}

// KafkaConfig configures the audit event stream. No brokers keeps audit in memory.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"ESTATE_KAFKA_BROKERS" envSeparator:","`
	Topic       string   `yaml:"topic" env:"ESTATE_KAFKA_TOPIC"`
	AsyncBuffer int      `yaml:"async_buffer" env:"ESTATE_AUDIT_BUFFER"`
}

// AuthConfig configures bearer token signing and validation.
type AuthConfig struct {
	JWTSigningKey string        `yaml:"jwt_signing_key" env:"JWT_SIGNING_KEY"`
	Issuer        string        `yaml:"issuer" env:"ESTATE_JWT_ISSUER"`
	Audience      string        `yaml:"audience" env:"ESTATE_JWT_AUDIENCE"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"ESTATE_TOKEN_TTL"`
}

// TracingConfig configures span export over OTLP/HTTP. Tracing stays off
// unless enabled with an endpoint.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ESTATE_TRACING_ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"ESTATE_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"ESTATE_OTEL_SERVICE_NAME"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"ESTATE_LOG_LEVEL"`
	Format string `yaml:"format" env:"ESTATE_LOG_FORMAT"`
}

// Default returns the development configuration.
func Default() Server {
	return Server{
		Addr: ":8080",
		Storage: StorageConfig{
			Driver:         StorageMemory,
			SQLitePath:     "estate.db",
			PostgresDriver: "pgx",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			OwnerTTL:     5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic:       "estate.audit",
			AsyncBuffer: 256,
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "estate",
			Audience:      "estate-api",
			TokenTTL:      time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			ServiceName: "estate",
		},
		MetricsEnabled: true,
	}
}

// Load builds the configuration from defaults, the file named by
// ESTATE_CONFIG_FILE (if set) and then the environment.
func Load() (Server, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(FileEnvVar)); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Server{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = strutil.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Server) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects combinations the server cannot start with.
func (c Server) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("sqlite storage requires ESTATE_SQLITE_PATH"))
		}
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres storage requires ESTATE_POSTGRES_DSN"))
		}
		if c.Storage.PostgresDriver != "pgx" && c.Storage.PostgresDriver != "postgres" {
			errs = append(errs, fmt.Errorf("unsupported postgres driver %q", c.Storage.PostgresDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.Storage.Driver))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
		errs = append(errs, errors.New("tracing enabled without ESTATE_OTEL_ENDPOINT"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka brokers set without a topic"))
	}
	return errors.Join(errs...)
}

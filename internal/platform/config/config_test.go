package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(FileEnvVar, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "pgx", cfg.Storage.PostgresDriver)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
storage:
  driver: sqlite
  sqlite_path: /var/lib/estate/registry.db
kafka:
  brokers: ["k1:9092", "k2:9092"]
redis:
  owner_ttl: 30s
log:
  level: debug
`), 0o600))

	t.Setenv(FileEnvVar, path)
	t.Setenv("ESTATE_ADDR", ":7070")
	t.Setenv("ESTATE_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr, "env wins over file")
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/estate/registry.db", cfg.Storage.SQLitePath)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "estate.audit", cfg.Kafka.Topic, "defaults survive a partial file")
	assert.Equal(t, 30*time.Second, cfg.Redis.OwnerTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv(FileEnvVar, "")
	t.Setenv("ESTATE_KAFKA_BROKERS", "a:9092, b:9092,,a:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(FileEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr bool
	}{
		{"defaults", func(*Server) {}, false},
		{"unknown driver", func(c *Server) { c.Storage.Driver = "mongo" }, true},
		{"postgres without dsn", func(c *Server) { c.Storage.Driver = StoragePostgres }, true},
		{"postgres with lib/pq", func(c *Server) {
			c.Storage.Driver = StoragePostgres
			c.Storage.PostgresDSN = "postgres://localhost/estate"
			c.Storage.PostgresDriver = "postgres"
		}, false},
		{"bad postgres driver", func(c *Server) {
			c.Storage.Driver = StoragePostgres
			c.Storage.PostgresDSN = "postgres://localhost/estate"
			c.Storage.PostgresDriver = "mysql"
		}, true},
		{"empty signing key", func(c *Server) { c.Auth.JWTSigningKey = "" }, true},
		{"tracing without endpoint", func(c *Server) { c.Tracing.Enabled = true }, true},
		{"tracing with endpoint", func(c *Server) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = "http://collector:4318"
		}, false},
		{"brokers without topic", func(c *Server) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"estate/internal/platform/config"
	"estate/internal/registry/ports"
	"estate/internal/registry/store/memory"
	"estate/internal/registry/store/postgres"
	"estate/internal/registry/store/sqlite"
)

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// backend is the opened registry store. postgresDB is set only for the
// postgres driver so the audit sink can share the connection pool.
type backend struct {
	store      ports.StoreTx
	postgresDB *sql.DB
	closer     io.Closer
}

// openStore builds the registry backend named by cfg.Driver. The caller
// closes backend.closer.
func openStore(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (backend, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory registry store; state is lost on restart")
		return backend{store: memory.NewInMemory(), closer: noopCloser{}}, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		log.Info("registry store ready", "driver", "sqlite", "path", cfg.SQLitePath)
		return backend{store: store, closer: store}, nil

	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDriver, cfg.PostgresDSN)
		if err != nil {
			return backend{}, err
		}
		store := postgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return backend{}, err
		}
		log.Info("registry store ready", "driver", "postgres", "sql_driver", cfg.PostgresDriver)
		return backend{store: store, postgresDB: db, closer: db}, nil

	default:
		return backend{}, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Package sqlite persists the registry in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	id "estate/pkg/domain"
	"estate/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// Store implements ports.StoreTx on SQLite. The pool holds one connection, so
// transactions run one at a time.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database file at path and applies the embedded schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin registry tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit registry tx: %w", err))
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) LoadState(ctx context.Context) (*models.RegistryState, error) {
	var (
		state models.RegistryState
		count int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT governance, governance_set, property_count FROM registry_state WHERE id = 1`,
	).Scan(&state.Governance, &state.GovernanceSet, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registry state row missing: %w", sentinel.ErrNotFound)
		}
		return nil, classify(fmt.Errorf("load registry state: %w", err))
	}
	state.PropertyCount = uint32(count)
	return &state, nil
}

func (t *txStore) SaveState(ctx context.Context, state *models.RegistryState) error {
	var governance any
	if state.GovernanceSet {
		governance = state.Governance[:]
	}
	_, err := t.tx.ExecContext(ctx,
		`UPDATE registry_state SET governance = ?, governance_set = ?, property_count = ? WHERE id = 1`,
		governance, state.GovernanceSet, int64(state.PropertyCount),
	)
	if err != nil {
		return classify(fmt.Errorf("save registry state: %w", err))
	}
	return nil
}

func (t *txStore) FindProperty(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	var (
		p     = models.Property{ID: propertyID}
		price int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT owner, name, price, approved FROM registry_properties WHERE id = ?`,
		int64(propertyID),
	).Scan(&p.Owner, &p.Name, &price, &p.Approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(fmt.Errorf("find property: %w", err))
	}
	p.Price = uint32(price)
	return &p, nil
}

func (t *txStore) SaveProperty(ctx context.Context, property *models.Property) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registry_properties (id, owner, name, price, approved)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			price = excluded.price,
			approved = excluded.approved
	`, int64(property.ID), property.Owner[:], property.Name, int64(property.Price), property.Approved)
	if err != nil {
		return classify(fmt.Errorf("save property: %w", err))
	}
	return nil
}

// classify marks lock contention as ErrUnavailable so callers can retry.
func classify(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
	}
	return err
}

// Package postgres persists the registry in PostgreSQL.
//
// Every transaction starts by locking the singleton registry_state row, which
// serializes registry operations across processes sharing the database.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	id "estate/pkg/domain"
	dErrors "estate/pkg/domain-errors"
	"estate/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const (
	defaultTxTimeout  = 5 * time.Second
	defaultMaxRetries = 3
)

// Open opens and pings a database through the named driver: "pgx" (jackc/pgx
// stdlib) or "postgres" (lib/pq).
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "pgx", "postgres":
	default:
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Store implements ports.StoreTx on PostgreSQL.
type Store struct {
	db         *sql.DB
	timeout    time.Duration
	maxRetries int
}

type Option func(*Store)

// WithTxTimeout bounds transactions whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithMaxRetries sets how often a serialization failure or deadlock is retried.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		s.maxRetries = n
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout, maxRetries: defaultMaxRetries}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply registry schema: %w", err)
		}
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return err
}

func (s *Store) runOnce(ctx context.Context, fn func(store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM registry_state WHERE id = 1 FOR UPDATE`); err != nil {
		return fmt.Errorf("lock registry state: %w", err)
	}
	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
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
	err := t.tx.QueryRowContext(ctx, `
		SELECT governance, governance_set, property_count
		FROM registry_state
		WHERE id = 1
	`).Scan(&state.Governance, &state.GovernanceSet, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registry state row missing, run migrations: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load registry state: %w", err)
	}
	state.PropertyCount = uint32(count)
	return &state, nil
}

func (t *txStore) SaveState(ctx context.Context, state *models.RegistryState) error {
	var governance any
	if state.GovernanceSet {
		governance = state.Governance[:]
	}
	_, err := t.tx.ExecContext(ctx, `
		UPDATE registry_state
		SET governance = $1, governance_set = $2, property_count = $3
		WHERE id = 1
	`, governance, state.GovernanceSet, int64(state.PropertyCount))
	if err != nil {
		return fmt.Errorf("save registry state: %w", err)
	}
	return nil
}

func (t *txStore) FindProperty(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	var (
		p     = models.Property{ID: propertyID}
		price int64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT owner, name, price, approved
		FROM registry_properties
		WHERE id = $1
	`, int64(propertyID)).Scan(&p.Owner, &p.Name, &price, &p.Approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	p.Price = uint32(price)
	return &p, nil
}

func (t *txStore) SaveProperty(ctx context.Context, property *models.Property) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registry_properties (id, owner, name, price, approved)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			owner = EXCLUDED.owner,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			approved = EXCLUDED.approved
	`, int64(property.ID), property.Owner[:], property.Name, int64(property.Price), property.Approved)
	if err != nil {
		return fmt.Errorf("save property: %w", err)
	}
	return nil
}

// isRetryable reports serialization failures and deadlocks from either driver.
func isRetryable(err error) bool {
	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	default:
		return false
	}
	return code == "40001" || code == "40P01"
}

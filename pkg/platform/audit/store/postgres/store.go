// Package postgres persists audit events in the registry database. Rows are
// append-only; nothing in the service reads them back.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "estate/pkg/platform/audit"
)

const createTable = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	action      TEXT NOT NULL,
	actor       BYTEA NOT NULL,
	property_id BIGINT,
	subject     TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
)`

// Store implements audit.Store on a *sql.DB shared with the registry store.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit_events table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create audit_events: %w", err)
	}
	return nil
}

// Append inserts the event. Replays of the same event id are ignored so a
// retried publish cannot duplicate a row.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	var propertyID sql.NullInt64
	if event.PropertyID != nil {
		propertyID = sql.NullInt64{Int64: int64(*event.PropertyID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, action, actor, property_id, subject, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		event.ID,
		string(category),
		event.Action,
		event.Actor,
		propertyID,
		event.Subject,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

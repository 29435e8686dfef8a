// Package ports declares what the registry service needs from infrastructure.
package ports

import (
	"context"

	"estate/internal/registry/models"
	id "estate/pkg/domain"
	"estate/pkg/platform/audit"
)

// Store is the transaction-scoped view of the persisted registry. Stores are
// pure I/O: all rules live in the service and models.
type Store interface {
	// LoadState returns the registry singleton. A fresh registry yields the zero state.
	LoadState(ctx context.Context) (*models.RegistryState, error)
	SaveState(ctx context.Context, state *models.RegistryState) error
	// FindProperty returns sentinel.ErrNotFound when no record exists for propertyID.
	FindProperty(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	// SaveProperty inserts or overwrites the full record.
	SaveProperty(ctx context.Context, property *models.Property) error
}

// StoreTx runs fn as one atomic, serialized unit. If fn returns an error no
// write made through the supplied Store is visible afterwards.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// OwnerCache is an optional read-through cache for owner lookups.
type OwnerCache interface {
	GetOwner(ctx context.Context, propertyID id.PropertyID) (id.AccountID, bool, error)
	SetOwner(ctx context.Context, propertyID id.PropertyID, owner id.AccountID) error
	InvalidateOwner(ctx context.Context, propertyID id.PropertyID) error
}

// AuditPublisher receives events after a successful commit.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Package memory holds the registry in process memory. RunInTx takes a
// registry-wide lock, so operations are serialized, and stages writes so a
// failed callback leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sync"

	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	id "estate/pkg/domain"
	"estate/pkg/platform/sentinel"
)

type InMemory struct {
	mu         sync.Mutex
	state      models.RegistryState
	properties map[id.PropertyID]models.Property
}

func NewInMemory() *InMemory {
	return &InMemory{properties: make(map[id.PropertyID]models.Property)}
}

// RunInTx runs fn against a staging view and commits its writes only when fn returns nil.
func (s *InMemory) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{parent: s, staged: make(map[id.PropertyID]models.Property)}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.state != nil {
		s.state = *tx.state
	}
	maps.Copy(s.properties, tx.staged)
	return nil
}

// Snapshot is a point-in-time copy of everything the store holds.
type Snapshot struct {
	State      models.RegistryState
	Properties map[id.PropertyID]models.Property
}

// Snapshot copies the committed contents. Tests use it to prove failed calls mutate nothing.
func (s *InMemory) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Properties: maps.Clone(s.properties)}
}

type txStore struct {
	parent *InMemory
	state  *models.RegistryState
	staged map[id.PropertyID]models.Property
}

func (t *txStore) LoadState(_ context.Context) (*models.RegistryState, error) {
	if t.state != nil {
		st := *t.state
		return &st, nil
	}
	st := t.parent.state
	return &st, nil
}

func (t *txStore) SaveState(_ context.Context, state *models.RegistryState) error {
	st := *state
	t.state = &st
	return nil
}

func (t *txStore) FindProperty(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	if p, ok := t.staged[propertyID]; ok {
		return &p, nil
	}
	if p, ok := t.parent.properties[propertyID]; ok {
		return &p, nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *txStore) SaveProperty(_ context.Context, property *models.Property) error {
	t.staged[property.ID] = *property
	return nil
}

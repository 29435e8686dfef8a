package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	"estate/internal/registry/store/sqlite"
	"estate/internal/registry/store/storetest"
	id "estate/pkg/domain"
)

type SQLiteStoreSuite struct {
	storetest.Suite
	store *sqlite.Store
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	store, err := sqlite.Open(context.Background(), filepath.Join(s.T().TempDir(), "registry.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = store.Close() })
	s.store = store
	s.Store = store
}

// TestReopenKeepsData verifies committed state survives closing the file.
func (s *SQLiteStoreSuite) TestReopenKeepsData() {
	path := filepath.Join(s.T().TempDir(), "reopen.db")
	alice := id.AccountIDFromSeed("alice")
	ctx := context.Background()

	first, err := sqlite.Open(ctx, path)
	s.Require().NoError(err)
	s.Require().NoError(first.RunInTx(ctx, func(store ports.Store) error {
		if err := store.SaveState(ctx, &models.RegistryState{Governance: alice, GovernanceSet: true, PropertyCount: 1}); err != nil {
			return err
		}
		return store.SaveProperty(ctx, models.NewListing(0, alice, "House", 100))
	}))
	s.Require().NoError(first.Close())

	second, err := sqlite.Open(ctx, path)
	s.Require().NoError(err, "reopening applies the schema again")
	defer second.Close()
	s.Store = second
	state, props := s.Load()
	s.Equal(alice, state.Governance)
	s.Equal(uint32(1), state.PropertyCount)
	s.Equal("House", props[0].Name)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	require.Error(t, err)
}

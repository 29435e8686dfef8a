// Package storetest holds behaviour every SQL-backed registry store must share.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	id "estate/pkg/domain"
	"estate/pkg/platform/sentinel"
)

var errAbort = errors.New("abort")

// Suite is embedded by backend suites, which set Store in SetupTest.
type Suite struct {
	suite.Suite
	Store ports.StoreTx
}

func (s *Suite) ctx() context.Context {
	return context.Background()
}

// Load reads the state and every property with id below 8 in one transaction.
func (s *Suite) Load() (models.RegistryState, map[id.PropertyID]models.Property) {
	var state models.RegistryState
	props := make(map[id.PropertyID]models.Property)
	err := s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
		st, err := store.LoadState(s.ctx())
		if err != nil {
			return err
		}
		state = *st
		for i := id.PropertyID(0); i < 8; i++ {
			p, err := store.FindProperty(s.ctx(), i)
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			props[i] = *p
		}
		return nil
	})
	s.Require().NoError(err)
	return state, props
}

// TestFreshRegistry verifies an empty database reports the zero registry state.
func (s *Suite) TestFreshRegistry() {
	state, props := s.Load()
	s.Equal(models.RegistryState{}, state)
	s.Empty(props)
}

// TestStateRoundTrip verifies governance and count persist, including the zero governance.
func (s *Suite) TestStateRoundTrip() {
	alice := id.AccountIDFromSeed("alice")
	err := s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
		return store.SaveState(s.ctx(), &models.RegistryState{Governance: alice, GovernanceSet: true, PropertyCount: 4294967295})
	})
	s.Require().NoError(err)

	state, _ := s.Load()
	s.Equal(alice, state.Governance)
	s.True(state.GovernanceSet)
	s.Equal(uint32(4294967295), state.PropertyCount)
}

// TestPropertyUpsert verifies insert, overwrite and the not-found signal.
func (s *Suite) TestPropertyUpsert() {
	alice := id.AccountIDFromSeed("alice")
	bob := id.AccountIDFromSeed("bob")

	s.Run("insert then overwrite", func() {
		s.Require().NoError(s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
			return store.SaveProperty(s.ctx(), models.NewListing(1, alice, "House", 4294967295))
		}))
		s.Require().NoError(s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
			p, err := store.FindProperty(s.ctx(), 1)
			if err != nil {
				return err
			}
			p.ApplyApproval()
			p.ApplyTransfer(bob)
			return store.SaveProperty(s.ctx(), p)
		}))

		_, props := s.Load()
		s.Equal(models.Property{ID: 1, Owner: bob, Name: "House", Price: 4294967295, Approved: true}, props[1])
	})

	s.Run("unknown id is not found", func() {
		s.Require().NoError(s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
			_, err := store.FindProperty(s.ctx(), 7)
			s.ErrorIs(err, sentinel.ErrNotFound)
			return nil
		}))
	})

	s.Run("zero owner round-trips", func() {
		s.Require().NoError(s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
			return store.SaveProperty(s.ctx(), &models.Property{ID: 5, Approved: true})
		}))
		_, props := s.Load()
		s.True(props[5].Owner.IsZero())
		s.True(props[5].Approved)
	})
}

// TestRollback verifies a failing callback discards every write.
func (s *Suite) TestRollback() {
	beforeState, beforeProps := s.Load()

	err := s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
		if err := store.SaveState(s.ctx(), &models.RegistryState{PropertyCount: 3}); err != nil {
			return err
		}
		if err := store.SaveProperty(s.ctx(), &models.Property{ID: 2, Name: "Barn"}); err != nil {
			return err
		}
		return errAbort
	})
	s.Require().ErrorIs(err, errAbort)

	afterState, afterProps := s.Load()
	s.Equal(beforeState, afterState)
	s.Equal(beforeProps, afterProps)
}

// TestSerializedIncrements verifies concurrent read-modify-write transactions never lose an update.
func (s *Suite) TestSerializedIncrements() {
	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Store.RunInTx(s.ctx(), func(store ports.Store) error {
				state, err := store.LoadState(s.ctx())
				if err != nil {
					return err
				}
				if _, err := state.AssignPropertyID(); err != nil {
					return err
				}
				return store.SaveState(s.ctx(), state)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	state, _ := s.Load()
	s.Equal(uint32(goroutines), state.PropertyCount)
}

package models

import (
	"math"

	id "estate/pkg/domain"
	dErrors "estate/pkg/domain-errors"
)

// RegistryState is the registry-wide singleton record.
//
// Invariants:
//   - Governance is written at most once; GovernanceSet guards the write
//   - PropertyCount only grows, by one per listing, and equals the next id to assign
type RegistryState struct {
	Governance    id.AccountID `json:"governance"`
	GovernanceSet bool         `json:"governance_set"`
	PropertyCount uint32       `json:"property_count"`
}

// EstablishGovernance performs the first-write-wins assignment and returns the
// governance identity plus whether this call assigned it.
func (s *RegistryState) EstablishGovernance(caller id.AccountID) (id.AccountID, bool) {
	if s.GovernanceSet {
		return s.Governance, false
	}
	s.Governance = caller
	s.GovernanceSet = true
	return s.Governance, true
}

// IsGovernance compares against the stored identity. Before governance is
// established this compares against the zero account.
func (s *RegistryState) IsGovernance(candidate id.AccountID) bool {
	return s.Governance == candidate
}

// IsListed reports whether propertyID was assigned by a listing.
func (s *RegistryState) IsListed(propertyID id.PropertyID) bool {
	return uint32(propertyID) < s.PropertyCount
}

// AssignPropertyID returns the next id and advances the counter.
func (s *RegistryState) AssignPropertyID() (id.PropertyID, error) {
	if s.PropertyCount == math.MaxUint32 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "property id space exhausted")
	}
	next := id.PropertyID(s.PropertyCount)
	s.PropertyCount++
	return next, nil
}

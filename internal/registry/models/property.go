package models

import (
	id "estate/pkg/domain"
)

// Property is one registry record. A record read for an id that was never
// written carries zero values: zero owner, empty name, price 0, not approved.
//
// Invariants:
//   - Name and Price are fixed at listing
//   - Approved moves false -> true once and never back
//   - Owner changes only through a successful purchase
type Property struct {
	ID       id.PropertyID `json:"id"`
	Owner    id.AccountID  `json:"owner"`
	Name     string        `json:"name"`
	Price    uint32        `json:"price"`
	Approved bool          `json:"approved"`
}

// NewListing builds the record created by a listing: owned by the lister, pending approval.
func NewListing(propertyID id.PropertyID, lister id.AccountID, name string, price uint32) *Property {
	return &Property{
		ID:    propertyID,
		Owner: lister,
		Name:  name,
		Price: price,
	}
}

// Status reports the lifecycle state derived from the approval flag.
func (p *Property) Status() Status {
	if p.Approved {
		return StatusApproved
	}
	return StatusPending
}

// ApplyApproval marks the property approved. Approving twice is a no-op.
func (p *Property) ApplyApproval() {
	p.Approved = true
}

// CanPurchase checks an offer against the record. The price check runs before
// the approval check, so a low offer on a pending property reports PriceTooLess.
func (p *Property) CanPurchase(offered uint32) error {
	if p.Price > offered {
		return PriceTooLess
	}
	if !p.Approved {
		return PropertyNotApproved
	}
	return nil
}

// ApplyTransfer reassigns ownership. Call CanPurchase first.
func (p *Property) ApplyTransfer(buyer id.AccountID) {
	p.Owner = buyer
}

// Status is the per-property lifecycle state. Approved is absorbing; there is
// no terminal sold state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Confirmation is the value returned by a successful approval.
type Confirmation string

const ConfirmationApproved Confirmation = "Approved"

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "estate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route or retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers ownership and governance changes.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine registry activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a registry operation commits. It is transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Category   EventCategory  `json:"category"`
	Action     string         `json:"action"`
	Actor      id.AccountID   `json:"actor"`
	PropertyID *id.PropertyID `json:"property_id,omitempty"`
	// Subject is the account affected when it differs from Actor (previous owner on purchase).
	Subject   string    `json:"subject,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditEvent string

const (
	EventGovernanceEstablished AuditEvent = "governance_established"
	EventPropertyListed        AuditEvent = "property_listed"
	EventPropertyApproved      AuditEvent = "property_approved"
	EventPropertyPurchased     AuditEvent = "property_purchased"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventGovernanceEstablished: CategoryCompliance,
	EventPropertyApproved:      CategoryCompliance,
	EventPropertyPurchased:     CategoryCompliance,
	EventPropertyListed:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Package registry defines the JSON bodies exchanged with the registry HTTP API.
// Accounts are 64-character hex strings; property ids and prices are uint32.
package registry

// CreateListingRequest is the body of POST /properties.
type CreateListingRequest struct {
	Name  string `json:"name"`
	Price uint32 `json:"price"`
}

// PurchaseRequest is the body of POST /properties/{id}/purchase.
type PurchaseRequest struct {
	OfferedPrice uint32 `json:"offered_price"`
}

// GovernanceResponse answers POST /registry/governance.
type GovernanceResponse struct {
	Governance string `json:"governance"`
}

// IsGovernanceResponse answers GET /registry/governance/{account}.
type IsGovernanceResponse struct {
	Account      string `json:"account"`
	IsGovernance bool   `json:"is_governance"`
}

// SummaryResponse answers GET /registry.
type SummaryResponse struct {
	Governance    string `json:"governance"`
	GovernanceSet bool   `json:"governance_set"`
	PropertyCount uint32 `json:"property_count"`
}

// ListingResponse answers POST /properties.
type ListingResponse struct {
	PropertyID uint32 `json:"property_id"`
}

// PropertyResponse answers GET /properties/{id}.
type PropertyResponse struct {
	PropertyID uint32 `json:"property_id"`
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	Price      uint32 `json:"price"`
	Approved   bool   `json:"approved"`
	Status     string `json:"status"`
}

// OwnerResponse answers GET /properties/{id}/owner.
type OwnerResponse struct {
	PropertyID uint32 `json:"property_id"`
	Owner      string `json:"owner"`
}

// ApproveResponse answers POST /properties/{id}/approve.
type ApproveResponse struct {
	PropertyID uint32 `json:"property_id"`
	Result     string `json:"result"`
}

// PurchaseResponse answers POST /properties/{id}/purchase.
type PurchaseResponse struct {
	PropertyID uint32 `json:"property_id"`
	Owner      string `json:"owner"`
}

// ErrorResponse is returned with every non-2xx status. Reason is set for
// marketplace failures: not_the_governance, price_too_less, property_not_approved.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

const (
	ReasonNotTheGovernance    = "not_the_governance"
	ReasonPriceTooLess        = "price_too_less"
	ReasonPropertyNotApproved = "property_not_approved"
)

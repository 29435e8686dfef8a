package models

// Error is the marketplace failure taxonomy. Exactly these three kinds exist;
// they are reporting outcomes, never fatal, and a call that returns one has
// not mutated registry state.
type Error string

const (
	// NotTheGovernanceError: a governance-only action was attempted by another caller.
	NotTheGovernanceError Error = "not_the_governance"
	// PriceTooLess: the offered price is below the listed price.
	PriceTooLess Error = "price_too_less"
	// PropertyNotApproved: purchase attempted before approval.
	PropertyNotApproved Error = "property_not_approved"
)

func (e Error) Error() string {
	switch e {
	case NotTheGovernanceError:
		return "caller is not the governance"
	case PriceTooLess:
		return "offered price is below the listed price"
	case PropertyNotApproved:
		return "property is not approved"
	default:
		return string(e)
	}
}

// Reason is the machine-readable kind surfaced to API clients.
func (e Error) Reason() string {
	return string(e)
}

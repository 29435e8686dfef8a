package handler

import (
	"estate/contracts/registry"
	"estate/internal/registry/models"
)

func toSummaryResponse(state models.RegistryState) registry.SummaryResponse {
	return registry.SummaryResponse{
		Governance:    state.Governance.String(),
		GovernanceSet: state.GovernanceSet,
		PropertyCount: state.PropertyCount,
	}
}

func toPropertyResponse(p *models.Property) registry.PropertyResponse {
	return registry.PropertyResponse{
		PropertyID: uint32(p.ID),
		Owner:      p.Owner.String(),
		Name:       p.Name,
		Price:      p.Price,
		Approved:   p.Approved,
		Status:     string(p.Status()),
	}
}

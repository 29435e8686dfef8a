package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	contracts "estate/contracts/registry"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path, as string, body any) error
	Account(name string) string
	StatusCode() int
	DecodeResponse(v any) error
}

// RegisterSteps registers registry and marketplace step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc, listings: make(map[string]uint32)}

	ctx.Step(`^"([^"]*)" asks for the governance$`, steps.asksForGovernance)
	ctx.Step(`^the governance should be "([^"]*)"$`, steps.governanceShouldBe)
	ctx.Step(`^"([^"]*)" lists "([^"]*)" at price (\d+)$`, steps.lists)
	ctx.Step(`^"([^"]*)" approves "([^"]*)"$`, steps.approves)
	ctx.Step(`^"([^"]*)" offers (\d+) for "([^"]*)"$`, steps.offers)
	ctx.Step(`^the owner of "([^"]*)" should be "([^"]*)"$`, steps.ownerShouldBe)
	ctx.Step(`^the purchase should fail with reason "([^"]*)"$`, steps.purchaseShouldFailWith)
}

type registrySteps struct {
	tc       TestContext
	listings map[string]uint32
}

func (s *registrySteps) asksForGovernance(ctx context.Context, who string) error {
	return s.tc.Do(http.MethodPost, "/registry/governance", who, nil)
}

func (s *registrySteps) governanceShouldBe(ctx context.Context, who string) error {
	var resp contracts.GovernanceResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	if resp.Governance != s.tc.Account(who) {
		return fmt.Errorf("expected governance %s, got %s", s.tc.Account(who), resp.Governance)
	}
	return nil
}

func (s *registrySteps) lists(ctx context.Context, who, name string, price int) error {
	if err := s.tc.Do(http.MethodPost, "/properties", who, contracts.CreateListingRequest{Name: name, Price: uint32(price)}); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusCreated {
		return fmt.Errorf("listing %q failed with status %d", name, s.tc.StatusCode())
	}
	var resp contracts.ListingResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	s.listings[name] = resp.PropertyID
	return nil
}

func (s *registrySteps) approves(ctx context.Context, who, name string) error {
	propertyID, err := s.listing(name)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, fmt.Sprintf("/properties/%d/approve", propertyID), who, nil)
}

func (s *registrySteps) offers(ctx context.Context, who string, offered int, name string) error {
	propertyID, err := s.listing(name)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, fmt.Sprintf("/properties/%d/purchase", propertyID), who,
		contracts.PurchaseRequest{OfferedPrice: uint32(offered)})
}

func (s *registrySteps) ownerShouldBe(ctx context.Context, name, who string) error {
	propertyID, err := s.listing(name)
	if err != nil {
		return err
	}
	if err := s.tc.Do(http.MethodGet, fmt.Sprintf("/properties/%d/owner", propertyID), "", nil); err != nil {
		return err
	}
	var resp contracts.OwnerResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	if resp.Owner != s.tc.Account(who) {
		return fmt.Errorf("expected %s to own %q, got %s", who, name, resp.Owner)
	}
	return nil
}

func (s *registrySteps) purchaseShouldFailWith(ctx context.Context, reason string) error {
	var resp contracts.ErrorResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	if resp.Reason != reason {
		return fmt.Errorf("expected reason %q, got %q (status %d)", reason, resp.Reason, s.tc.StatusCode())
	}
	return nil
}

func (s *registrySteps) listing(name string) (uint32, error) {
	propertyID, ok := s.listings[name]
	if !ok {
		return 0, fmt.Errorf("no listing named %q in this scenario", name)
	}
	return propertyID, nil
}

package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"estate/contracts/registry"
	jwttoken "estate/internal/jwt_token"
	"estate/internal/registry/handler"
	"estate/internal/registry/service"
	"estate/internal/registry/store/memory"
	id "estate/pkg/domain"
	authmw "estate/pkg/platform/middleware/auth"
	"estate/pkg/platform/middleware/request"
	"estate/pkg/testutil"
)

// TestMarketplaceOverHTTP drives the full stack: bearer tokens, router, service and store.
func TestMarketplaceOverHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.NewJWTService("flow-key", "estate", "estate-api")
	svc := service.New(memory.NewInMemory(), service.WithLogger(logger))

	router := chi.NewRouter()
	router.Use(request.RequestID)
	handler.New(svc, logger, authmw.RequireCaller(jwttoken.NewJWTServiceAdapter(tokens), logger)).Register(router)

	bearer := func(seed string) string {
		token, err := tokens.GenerateAccessToken(id.AccountIDFromSeed(seed), time.Hour)
		require.NoError(t, err)
		return "Bearer " + token
	}
	call := func(seed, method, path string, body any) *http.Request {
		req := testutil.NewJSONRequest(t, method, path, body)
		if seed != "" {
			req.Header.Set("Authorization", bearer(seed))
		}
		return req
	}

	testutil.Scenario(t,
		testutil.Given("A is the first caller of the governance accessor", func(t *testing.T) {
			rr := testutil.DoRequest(router, call("A", http.MethodPost, "/registry/governance", nil))
			testutil.AssertStatus(t, rr, http.StatusOK)
			testutil.AssertJSONContains(t, rr, "governance", id.AccountIDFromSeed("A").String())
		}),

		testutil.When("B lists a House at 100 and A approves it", func(t *testing.T) {
			rr := testutil.DoRequest(router, call("B", http.MethodPost, "/properties", registry.CreateListingRequest{Name: "House", Price: 100}))
			testutil.AssertStatus(t, rr, http.StatusCreated)
			require.Equal(t, uint32(0), testutil.UnmarshalResponse[registry.ListingResponse](t, rr).PropertyID)

			rr = testutil.DoRequest(router, call("B", http.MethodPost, "/properties/0/approve", nil))
			testutil.AssertStatusAndReason(t, rr, http.StatusForbidden, registry.ReasonNotTheGovernance)

			rr = testutil.DoRequest(router, call("A", http.MethodPost, "/properties/0/approve", nil))
			testutil.AssertStatus(t, rr, http.StatusOK)
		}),

		testutil.Then("C buys it and D is turned away", func(t *testing.T) {
			rr := testutil.DoRequest(router, call("C", http.MethodPost, "/properties/0/purchase", registry.PurchaseRequest{OfferedPrice: 150}))
			testutil.AssertStatus(t, rr, http.StatusOK)

			rr = testutil.DoRequest(router, call("", http.MethodGet, "/properties/0/owner", nil))
			testutil.AssertJSONContains(t, rr, "owner", id.AccountIDFromSeed("C").String())

			rr = testutil.DoRequest(router, call("D", http.MethodPost, "/properties/0/purchase", registry.PurchaseRequest{OfferedPrice: 50}))
			testutil.AssertStatusAndReason(t, rr, http.StatusConflict, registry.ReasonPriceTooLess)

			rr = testutil.DoRequest(router, call("C", http.MethodPost, "/properties", registry.CreateListingRequest{Name: "Shed", Price: 10}))
			testutil.AssertStatus(t, rr, http.StatusCreated)

			rr = testutil.DoRequest(router, call("D", http.MethodPost, "/properties/1/purchase", registry.PurchaseRequest{OfferedPrice: 200}))
			testutil.AssertStatusAndReason(t, rr, http.StatusConflict, registry.ReasonPropertyNotApproved)
		}),

		testutil.And("unauthenticated writes are refused", func(t *testing.T) {
			rr := testutil.DoRequest(router, call("", http.MethodPost, "/properties", registry.CreateListingRequest{Name: "Tent", Price: 1}))
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)

			rr = testutil.DoRequest(router, call("", http.MethodGet, "/registry", nil))
			resp := testutil.UnmarshalResponse[registry.SummaryResponse](t, rr)
			require.Equal(t, uint32(2), resp.PropertyCount)
		}),
	)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estate/contracts/registry"
	"estate/internal/registry/models"
	id "estate/pkg/domain"
	dErrors "estate/pkg/domain-errors"
	"estate/pkg/platform/httputil"
	"estate/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	EstablishOrGetGovernance(ctx context.Context, caller id.AccountID) (id.AccountID, error)
	IsGovernance(ctx context.Context, candidate id.AccountID) (bool, error)
	Summary(ctx context.Context) (models.RegistryState, error)
	CreateListing(ctx context.Context, caller id.AccountID, name string, price uint32) (id.PropertyID, error)
	GetProperty(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	OwnerOf(ctx context.Context, propertyID id.PropertyID) (id.AccountID, error)
	Approve(ctx context.Context, caller id.AccountID, propertyID id.PropertyID) (models.Confirmation, error)
	Purchase(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, offered uint32) error
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New constructs a registry handler. requireAuth guards the mutating routes and
// may be nil when the caller is injected some other way (tests).
func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		requireAuth: requireAuth,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registry", h.HandleSummary)
	r.Get("/registry/governance/{account}", h.HandleIsGovernance)
	r.Get("/properties/{id}", h.HandleGetProperty)
	r.Get("/properties/{id}/owner", h.HandleOwnerOf)

	r.Group(func(r chi.Router) {
		if h.requireAuth != nil {
			r.Use(h.requireAuth)
		}
		r.Post("/registry/governance", h.HandleEstablishGovernance)
		r.Post("/properties", h.HandleCreateListing)
		r.Post("/properties/{id}/approve", h.HandleApprove)
		r.Post("/properties/{id}/purchase", h.HandlePurchase)
	})
}

// HandleEstablishGovernance handles POST /registry/governance.
func (h *Handler) HandleEstablishGovernance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	governance, err := h.service.EstablishOrGetGovernance(ctx, caller)
	if err != nil {
		h.fail(w, ctx, "establish governance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registry.GovernanceResponse{Governance: governance.String()})
}

// HandleIsGovernance handles GET /registry/governance/{account}.
func (h *Handler) HandleIsGovernance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidate, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	is, err := h.service.IsGovernance(ctx, candidate)
	if err != nil {
		h.fail(w, ctx, "governance check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registry.IsGovernanceResponse{
		Account:      candidate.String(),
		IsGovernance: is,
	})
}

// HandleSummary handles GET /registry.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.fail(w, ctx, "registry summary failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// HandleCreateListing handles POST /properties.
func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[registry.CreateListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	propertyID, err := h.service.CreateListing(ctx, caller, req.Name, req.Price)
	if err != nil {
		h.fail(w, ctx, "create listing failed", err)
		return
	}
	w.Header().Set("Location", "/properties/"+propertyID.String())
	httputil.WriteJSON(w, http.StatusCreated, registry.ListingResponse{PropertyID: uint32(propertyID)})
}

// HandleGetProperty handles GET /properties/{id}.
func (h *Handler) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, ok := propertyIDParam(w, r)
	if !ok {
		return
	}

	property, err := h.service.GetProperty(ctx, propertyID)
	if err != nil {
		h.fail(w, ctx, "get property failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPropertyResponse(property))
}

// HandleOwnerOf handles GET /properties/{id}/owner. Ids with no record report
// the zero account rather than 404.
func (h *Handler) HandleOwnerOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, ok := propertyIDParam(w, r)
	if !ok {
		return
	}

	owner, err := h.service.OwnerOf(ctx, propertyID)
	if err != nil {
		h.fail(w, ctx, "owner lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registry.OwnerResponse{
		PropertyID: uint32(propertyID),
		Owner:      owner.String(),
	})
}

// HandleApprove handles POST /properties/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	propertyID, ok := propertyIDParam(w, r)
	if !ok {
		return
	}

	confirmation, err := h.service.Approve(ctx, caller, propertyID)
	if err != nil {
		h.fail(w, ctx, "approve failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registry.ApproveResponse{
		PropertyID: uint32(propertyID),
		Result:     string(confirmation),
	})
}

// HandlePurchase handles POST /properties/{id}/purchase.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	propertyID, ok := propertyIDParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[registry.PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Purchase(ctx, caller, propertyID, req.OfferedPrice); err != nil {
		h.fail(w, ctx, "purchase failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registry.PurchaseResponse{
		PropertyID: uint32(propertyID),
		Owner:      caller.String(),
	})
}

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) (id.AccountID, bool) {
	caller, ok := requestcontext.Caller(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.AccountID{}, false
	}
	return caller, true
}

// fail logs and writes err. Marketplace rejections are expected outcomes and log at info.
func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, msg string, err error) {
	code := dErrors.CodeOf(err)
	args := []any{"request_id", requestcontext.RequestID(ctx), "code", code, "error", err}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeInvariantViolation:
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.InfoContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}

func propertyIDParam(w http.ResponseWriter, r *http.Request) (id.PropertyID, bool) {
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return propertyID, true
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"estate/internal/registry/metrics"
	"estate/internal/registry/models"
	"estate/internal/registry/ports"
	id "estate/pkg/domain"
	dErrors "estate/pkg/domain-errors"
	"estate/pkg/platform/audit"
	"estate/pkg/platform/sentinel"
	"estate/pkg/requestcontext"
)

const tracerName = "estate/internal/registry/service"

// Service runs the governance gate, the listing store and the marketplace
// workflow. Each operation is one store transaction; a call that returns an
// error has committed nothing.
type Service struct {
	tx             ports.StoreTx
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	ownerCache     ports.OwnerCache
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithOwnerCache puts a read-through cache in front of OwnerOf.
func WithOwnerCache(cache ports.OwnerCache) Option {
	return func(s *Service) {
		s.ownerCache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(tx ports.StoreTx, opts ...Option) *Service {
	s := &Service{tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// EstablishOrGetGovernance returns the governance identity, making caller the
// governance when none has been established yet.
func (s *Service) EstablishOrGetGovernance(ctx context.Context, caller id.AccountID) (governance id.AccountID, err error) {
	ctx, done := s.begin(ctx, "establish_or_get_governance")
	defer func() { done(err) }()

	var assigned bool
	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		governance, assigned = state.EstablishGovernance(caller)
		if !assigned {
			return nil
		}
		return store.SaveState(ctx, state)
	})
	if err != nil {
		return id.AccountID{}, s.translate(err, "failed to establish governance")
	}
	if assigned {
		s.emitAudit(ctx, audit.EventGovernanceEstablished, caller, nil, "")
	}
	return governance, nil
}

// IsGovernance reports whether candidate equals the stored governance. Before
// governance is established the stored value is the zero account.
func (s *Service) IsGovernance(ctx context.Context, candidate id.AccountID) (is bool, err error) {
	ctx, done := s.begin(ctx, "is_governance")
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		is = state.IsGovernance(candidate)
		return nil
	})
	if err != nil {
		return false, s.translate(err, "failed to read governance")
	}
	return is, nil
}

// CreateListing records a pending property owned by caller and returns its id.
// Ids are dense and start at 0.
func (s *Service) CreateListing(ctx context.Context, caller id.AccountID, name string, price uint32) (propertyID id.PropertyID, err error) {
	ctx, done := s.begin(ctx, "create_listing", attribute.Int64("property.price", int64(price)))
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		propertyID, err = state.AssignPropertyID()
		if err != nil {
			return err
		}
		if err := store.SaveProperty(ctx, models.NewListing(propertyID, caller, name, price)); err != nil {
			return err
		}
		return store.SaveState(ctx, state)
	})
	if err != nil {
		return 0, s.translate(err, "failed to create listing")
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("property.id", int64(propertyID)))
	s.metrics.IncrementListed()
	s.emitAudit(ctx, audit.EventPropertyListed, caller, &propertyID, "")
	return propertyID, nil
}

// OwnerOf returns the current owner, or the zero account for an id with no record.
func (s *Service) OwnerOf(ctx context.Context, propertyID id.PropertyID) (owner id.AccountID, err error) {
	ctx, done := s.begin(ctx, "owner_of", attribute.Int64("property.id", int64(propertyID)))
	defer func() { done(err) }()

	if s.ownerCache != nil {
		cached, ok, err := s.ownerCache.GetOwner(ctx, propertyID)
		switch {
		case err != nil:
			s.metrics.ObserveOwnerCache("error")
			s.logWarn(ctx, "owner cache read failed", "property_id", propertyID, "error", err)
		case ok:
			s.metrics.ObserveOwnerCache("hit")
			return cached, nil
		default:
			s.metrics.ObserveOwnerCache("miss")
		}
	}

	// The fill happens while the transaction still serializes the registry, so
	// it cannot land after a purchase has invalidated the entry.
	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		property, err := findOrZero(ctx, store, propertyID)
		if err != nil {
			return err
		}
		owner = property.Owner
		if s.ownerCache != nil {
			if err := s.ownerCache.SetOwner(ctx, propertyID, owner); err != nil {
				s.logWarn(ctx, "owner cache write failed", "property_id", propertyID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return id.AccountID{}, s.translate(err, "failed to read owner")
	}
	return owner, nil
}

// Approve marks a property approved. Only the governance may approve. Approving
// an approved property succeeds again; approving an id that was never listed
// creates an approved record with zero owner, name and price.
func (s *Service) Approve(ctx context.Context, caller id.AccountID, propertyID id.PropertyID) (confirmation models.Confirmation, err error) {
	ctx, done := s.begin(ctx, "approve", attribute.Int64("property.id", int64(propertyID)))
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		if !state.IsGovernance(caller) {
			return models.NotTheGovernanceError
		}
		property, err := findOrZero(ctx, store, propertyID)
		if err != nil {
			return err
		}
		property.ApplyApproval()
		return store.SaveProperty(ctx, property)
	})
	if err != nil {
		return "", s.translate(err, "failed to approve property")
	}

	s.emitAudit(ctx, audit.EventPropertyApproved, caller, &propertyID, "")
	return models.ConfirmationApproved, nil
}

// Purchase transfers ownership to caller when offered covers the listed price
// and the property is approved. The price is checked first. Price is symbolic:
// no value moves.
func (s *Service) Purchase(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, offered uint32) (err error) {
	ctx, done := s.begin(ctx, "purchase",
		attribute.Int64("property.id", int64(propertyID)),
		attribute.Int64("purchase.offered", int64(offered)),
	)
	defer func() { done(err) }()

	var previous id.AccountID
	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		property, err := findOrZero(ctx, store, propertyID)
		if err != nil {
			return err
		}
		if err := property.CanPurchase(offered); err != nil {
			return err
		}
		previous = property.Owner
		property.ApplyTransfer(caller)
		if err := store.SaveProperty(ctx, property); err != nil {
			return err
		}
		// A transfer that cannot drop the cached owner is rolled back; committing
		// it would leave owner_of answering the previous owner until the TTL.
		if s.ownerCache != nil {
			if err := s.ownerCache.InvalidateOwner(ctx, propertyID); err != nil {
				s.logWarn(ctx, "owner cache invalidation failed", "property_id", propertyID, "error", err)
				return fmt.Errorf("invalidate cached owner: %w: %w", sentinel.ErrUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return s.translate(err, "failed to purchase property")
	}

	s.metrics.IncrementPurchased()
	s.emitAudit(ctx, audit.EventPropertyPurchased, caller, &propertyID, previous.String())
	return nil
}

// Summary returns the registry-wide state.
func (s *Service) Summary(ctx context.Context) (summary models.RegistryState, err error) {
	ctx, done := s.begin(ctx, "summary")
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		summary = *state
		return nil
	})
	if err != nil {
		return models.RegistryState{}, s.translate(err, "failed to read registry")
	}
	return summary, nil
}

// GetProperty returns a listed property. Ids never assigned by a listing are not found.
func (s *Service) GetProperty(ctx context.Context, propertyID id.PropertyID) (property *models.Property, err error) {
	ctx, done := s.begin(ctx, "get_property", attribute.Int64("property.id", int64(propertyID)))
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(store ports.Store) error {
		state, err := store.LoadState(ctx)
		if err != nil {
			return err
		}
		if !state.IsListed(propertyID) {
			return dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		property, err = findOrZero(ctx, store, propertyID)
		return err
	})
	if err != nil {
		return nil, s.translate(err, "failed to read property")
	}
	return property, nil
}

// findOrZero loads a record, substituting the zero-valued record for a missing id.
func findOrZero(ctx context.Context, store ports.Store, propertyID id.PropertyID) (*models.Property, error) {
	property, err := store.FindProperty(ctx, propertyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.Property{ID: propertyID}, nil
	}
	return property, err
}

// begin starts the span and timer for an operation. The returned func records
// the outcome and ends the span.
func (s *Service) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+operation, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = outcome(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		s.metrics.ObserveOperation(operation, result, time.Since(start))
		span.End()
	}
}

// outcome names an error for metrics: the marketplace reason, else the error code.
func outcome(err error) string {
	var marketErr models.Error
	if errors.As(err, &marketErr) {
		return marketErr.Reason()
	}
	return string(dErrors.CodeOf(err))
}

// translate maps a transaction error to a coded error. Marketplace errors keep
// their kind reachable through errors.Is.
func (s *Service) translate(err error, msg string) error {
	var marketErr models.Error
	if errors.As(err, &marketErr) {
		if marketErr == models.NotTheGovernanceError {
			return dErrors.Wrap(marketErr, dErrors.CodeForbidden, marketErr.Error())
		}
		return dErrors.Wrap(marketErr, dErrors.CodeConflict, marketErr.Error())
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry operation timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "registry store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

// emitAudit logs the event and hands it to the publisher. It runs after commit,
// so a publishing failure is logged and never undoes the operation.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, actor id.AccountID, propertyID *id.PropertyID, subject string) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		args := []any{"event", string(event), "log_type", "audit", "actor", actor.String()}
		if propertyID != nil {
			args = append(args, "property_id", *propertyID)
		}
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:     string(event),
		Actor:      actor,
		PropertyID: propertyID,
		Subject:    subject,
		RequestID:  requestID,
		Timestamp:  requestcontext.Now(ctx),
	})
	if err != nil {
		s.logWarn(ctx, "failed to publish audit event", "event", string(event), "error", err)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.WarnContext(ctx, msg, args...)
}

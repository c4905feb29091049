// Package service orchestrates customer lifecycle use cases: load the
// aggregate, apply one transition, persist it and its audit events together.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Repository,AuditPublisher,TxRunner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/metrics"
	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/sentinel"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/requestcontext"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/specification"
)

const tracerName = "github.com/DaghanEmre/fintech-modular-platform/internal/customer/service"

// Repository persists customers. Save uses the customer's version for
// optimistic concurrency and returns sentinel.ErrConflict on a stale write and
// sentinel.ErrAlreadyUsed when the email belongs to another live customer.
// Finders return sentinel.ErrNotFound when nothing matches.
type Repository interface {
	Save(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email models.Email) (*models.Customer, error)
}

// AuditPublisher records lifecycle events. It must fail closed.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TxRunner runs fn in one unit of work shared by the repository and the
// audit outbox.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the customer use cases.
type Service struct {
	repo         Repository
	audit        AuditPublisher
	tx           TxRunner
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	emailHashKey []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithEmailHashKey sets the key used to hash emails in audit events.
func WithEmailHashKey(key []byte) Option {
	return func(s *Service) {
		s.emailHashKey = key
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. Without a TxRunner the save and the audit write
// run back to back, which is only safe for in-memory stores.
func New(repo Repository, auditPublisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		audit:  auditPublisher,
		tx:     directRunner{},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCustomer registers a PENDING customer. An email already owned by a
// live customer is a conflict.
func (s *Service) CreateCustomer(ctx context.Context, rawEmail string) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Create")
	defer span.End()
	defer s.observe("create", time.Now())

	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := s.ensureEmailAvailable(ctx, email, domain.CustomerID{}); err != nil {
		return nil, s.fail(span, err)
	}

	customer, err := models.New(email, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.String("customer.id", customer.ID().String()))

	if err := s.persist(ctx, customer); err != nil {
		return nil, s.fail(span, err)
	}
	s.logger.InfoContext(ctx, "customer created",
		"customer_id", customer.ID().String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return customer, nil
}

// GetCustomer loads a customer, deleted ones included.
func (s *Service) GetCustomer(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Get", trace.WithAttributes(attribute.String("customer.id", id.String())))
	defer span.End()

	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return customer, nil
}

// ActivateCustomer moves a PENDING or SUSPENDED customer to ACTIVE.
func (s *Service) ActivateCustomer(ctx context.Context, id domain.CustomerID) error {
	return s.transition(ctx, "activate", id, func(_ context.Context, c *models.Customer, now time.Time) error {
		return c.Activate(now)
	})
}

// SuspendCustomer moves an ACTIVE customer to SUSPENDED.
func (s *Service) SuspendCustomer(ctx context.Context, id domain.CustomerID, rawReason string) error {
	ctx, span, done := s.begin(ctx, "suspend", id)
	defer done()

	reason, err := models.NewStateChangeReason(rawReason)
	if err != nil {
		return s.fail(span, err)
	}
	return s.apply(ctx, span, "suspend", id, func(_ context.Context, c *models.Customer, now time.Time) error {
		return c.Suspend(reason, now)
	})
}

// BlockCustomer moves a live customer to the terminal BLOCKED status.
func (s *Service) BlockCustomer(ctx context.Context, id domain.CustomerID, rawReason string) error {
	ctx, span, done := s.begin(ctx, "block", id)
	defer done()

	reason, err := models.NewStateChangeReason(rawReason)
	if err != nil {
		return s.fail(span, err)
	}
	return s.apply(ctx, span, "block", id, func(_ context.Context, c *models.Customer, now time.Time) error {
		return c.Block(reason, now)
	})
}

// MarkCustomerInactive moves a live, unblocked customer to INACTIVE.
func (s *Service) MarkCustomerInactive(ctx context.Context, id domain.CustomerID) error {
	return s.transition(ctx, "deactivate", id, func(_ context.Context, c *models.Customer, now time.Time) error {
		return c.MarkInactive(now)
	})
}

// ChangeCustomerEmail replaces the email. The customer is loaded and guarded
// first, so a deleted or blocked customer is rejected by its rules before the
// address is checked. An address owned by another live customer is a conflict.
func (s *Service) ChangeCustomerEmail(ctx context.Context, id domain.CustomerID, rawEmail string) error {
	ctx, span, done := s.begin(ctx, "change_email", id)
	defer done()

	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return s.fail(span, err)
	}
	return s.apply(ctx, span, "change_email", id, func(ctx context.Context, c *models.Customer, now time.Time) error {
		if err := c.ChangeEmail(email, now); err != nil {
			return err
		}
		return s.ensureEmailAvailable(ctx, email, c.ID())
	})
}

// DeleteCustomer soft-deletes the customer.
func (s *Service) DeleteCustomer(ctx context.Context, id domain.CustomerID) error {
	return s.transition(ctx, "delete", id, func(_ context.Context, c *models.Customer, now time.Time) error {
		return c.Delete(now)
	})
}

type transitionFunc func(ctx context.Context, c *models.Customer, now time.Time) error

// begin opens the span and duration observation of one use case. The
// returned func closes both.
func (s *Service) begin(ctx context.Context, operation string, id domain.CustomerID) (context.Context, trace.Span, func()) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "customer."+operation,
		trace.WithAttributes(attribute.String("customer.id", id.String())))
	return ctx, span, func() {
		s.observe(operation, start)
		span.End()
	}
}

func (s *Service) transition(ctx context.Context, operation string, id domain.CustomerID, fn transitionFunc) error {
	ctx, span, done := s.begin(ctx, operation, id)
	defer done()
	return s.apply(ctx, span, operation, id, fn)
}

// apply loads the customer, runs fn and persists the result. Rule rejections
// are counted, logged at WARN and returned untouched.
func (s *Service) apply(ctx context.Context, span trace.Span, operation string, id domain.CustomerID, fn transitionFunc) error {
	customer, err := s.load(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}

	if err := fn(ctx, customer, requestcontext.Now(ctx)); err != nil {
		if failure, ok := specification.AsFailure(err); ok {
			s.recordRejection(ctx, span, operation, id, failure)
			return err
		}
		return s.fail(span, err)
	}

	if err := s.persist(ctx, customer); err != nil {
		return s.fail(span, err)
	}
	return nil
}

// persist saves the customer and emits its pending events in one unit of
// work. A customer with no pending events was not changed and is not written.
func (s *Service) persist(ctx context.Context, customer *models.Customer) error {
	events := customer.PullEvents()
	if len(events) == 0 {
		return nil
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, customer); err != nil {
			return s.translateStoreError(err)
		}
		for _, e := range events {
			if err := s.audit.Emit(ctx, s.auditEvent(ctx, e)); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range events {
		if s.metrics != nil {
			s.metrics.IncTransition(string(e.Type))
		}
		s.logger.InfoContext(ctx, "customer transition",
			"customer_id", customer.ID().String(),
			"event", string(e.Type),
			"from_status", e.FromStatus.String(),
			"to_status", e.ToStatus.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return customer, nil
}

// ensureEmailAvailable rejects an email owned by a live customer other than self.
func (s *Service) ensureEmailAvailable(ctx context.Context, email models.Email, self domain.CustomerID) error {
	owner, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if owner.ID() == self || owner.IsDeleted() {
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "email already registered")
}

func (s *Service) translateStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "customer was modified concurrently")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "customer not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save customer")
	}
}

func (s *Service) auditEvent(ctx context.Context, e models.LifecycleEvent) audit.Event {
	event := audit.Event{
		ID:         domain.NewEventID(),
		Category:   audit.AuditEvent(e.Type).Category(),
		Timestamp:  e.OccurredAt,
		CustomerID: e.CustomerID,
		Action:     string(e.Type),
		FromStatus: e.FromStatus.String(),
		ToStatus:   e.ToStatus.String(),
		Reason:     e.Reason,
		RequestID:  requestcontext.RequestID(ctx),
		ActorID:    requestcontext.ActorID(ctx),
	}
	if !e.NewEmail.IsZero() {
		event.EmailHash = audit.HashEmail(s.emailHashKey, e.NewEmail.String())
	}
	return event
}

func (s *Service) recordRejection(ctx context.Context, span trace.Span, operation string, id domain.CustomerID, failure *specification.Failure) {
	if s.metrics != nil {
		s.metrics.IncRuleRejection(failure.Code())
	}
	span.SetAttributes(attribute.String("customer.rejection_code", failure.Code()))
	v := failure.Violation()
	s.logger.WarnContext(ctx, "customer rule rejected",
		"operation", operation,
		"customer_id", id.String(),
		"code", v.Code(),
		"message", v.Message(),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Package compliance provides a fail-closed audit publisher for customer
// lifecycle events.
//
// Events are written to the outbox synchronously and the caller blocks until
// the write succeeds. If the write fails the calling operation MUST fail, so a
// committed transition always has its audit record.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
)

var (
	ErrMissingCustomer = errors.New("audit event requires CustomerID")
	ErrMissingAction   = errors.New("audit event requires Action")
)

// Publisher emits audit events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides the timestamp source for events without one.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a publisher. The store must be outbox-backed for guaranteed delivery.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates, completes and persists event. ID, Category and Timestamp
// are filled in when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.CustomerID.IsNil() {
		return ErrMissingCustomer
	}
	if event.Action == "" {
		return ErrMissingAction
	}
	if event.ID.IsNil() {
		event.ID = domain.NewEventID()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: customer audit failed",
				"action", event.Action,
				"customer_id", event.CustomerID.String(),
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Category)
	}
	return nil
}

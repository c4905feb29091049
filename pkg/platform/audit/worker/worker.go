// Package worker relays committed outbox entries to the event stream.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/circuit"
)

// Sink receives relayed entries. The Kafka client satisfies it.
type Sink interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Relay polls the outbox and publishes pending entries keyed by customer ID.
// Within a batch, once an entry for a customer fails the later entries for
// that customer wait for the next tick so consumers see them in order.
type Relay struct {
	outbox      audit.Outbox
	sink        Sink
	breaker     *circuit.Breaker
	logger      *slog.Logger
	metrics     *Metrics
	interval    time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// Option configures the Relay.
type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) { r.batchSize = n }
}

func WithMaxAttempts(n int) Option {
	return func(r *Relay) { r.maxAttempts = n }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) { r.breaker = b }
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// NewRelay constructs the relay loop with defaults for unset options.
func NewRelay(outbox audit.Outbox, sink Sink, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		outbox:  outbox,
		sink:    sink,
		logger:  logger,
		breaker: circuit.New("outbox-relay"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = 2 * time.Second
	}
	if r.batchSize <= 0 {
		r.batchSize = 100
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 10
	}
	return r
}

// Run executes the periodic relay loop until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay iteration failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce relays one batch and returns how many entries were published.
// While the breaker is open only the oldest entry is tried, as a probe.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	limit := r.batchSize
	if r.breaker.IsOpen() {
		limit = 1
	}
	entries, err := r.outbox.Pending(ctx, limit, r.maxAttempts)
	if err != nil {
		return 0, err
	}

	var published []uuid.UUID
	blocked := make(map[string]struct{})
	for _, entry := range entries {
		if _, ok := blocked[entry.AggregateID]; ok {
			continue
		}
		headers := map[string]string{
			"event_type": entry.EventType,
			"outbox_id":  entry.ID.String(),
		}
		if err := r.sink.Publish(ctx, entry.AggregateID, entry.Payload, headers); err != nil {
			blocked[entry.AggregateID] = struct{}{}
			r.recordFailure(ctx, entry, err)
			continue
		}
		published = append(published, entry.ID)
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
			r.setBreakerGauge()
		}
	}

	if len(published) > 0 {
		if err := r.outbox.MarkPublished(ctx, published, r.now().UTC()); err != nil {
			return 0, err
		}
	}
	if r.metrics != nil {
		r.metrics.Published.Add(float64(len(published)))
	}
	if len(entries) > 0 {
		r.logger.DebugContext(ctx, "outbox batch processed",
			"batch_size", len(entries),
			"published_count", len(published),
		)
	}
	return len(published), nil
}

func (r *Relay) recordFailure(ctx context.Context, entry audit.OutboxEntry, err error) {
	attempts := entry.Attempts + 1
	if markErr := r.outbox.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
		r.logger.ErrorContext(ctx, "failed to record outbox attempt",
			"outbox_id", entry.ID.String(),
			"error", markErr,
		)
	}
	if r.metrics != nil {
		r.metrics.Failures.Inc()
		if attempts >= r.maxAttempts {
			r.metrics.Exhausted.Inc()
		}
	}
	if attempts >= r.maxAttempts {
		r.logger.ErrorContext(ctx, "outbox entry exhausted retries",
			"outbox_id", entry.ID.String(),
			"event_type", entry.EventType,
			"customer_id", entry.AggregateID,
			"attempts", attempts,
			"error", err,
		)
	} else {
		r.logger.WarnContext(ctx, "outbox publish failed; retry scheduled",
			"outbox_id", entry.ID.String(),
			"event_type", entry.EventType,
			"attempts", attempts,
			"error", err,
		)
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "outbox relay circuit opened", "breaker", r.breaker.Name())
		r.setBreakerGauge()
	}
}

func (r *Relay) setBreakerGauge() {
	if r.metrics == nil {
		return
	}
	if r.breaker.IsOpen() {
		r.metrics.BreakerOpen.Set(1)
	} else {
		r.metrics.BreakerOpen.Set(0)
	}
}

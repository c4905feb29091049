package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
	txcontext "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/tx"
)

const aggregateType = "customer"

// Store implements audit.Outbox on the outbox table. Append joins the
// transaction carried in ctx, so the event commits with the customer row that
// produced it. The relay worker publishes pending rows to Kafka.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the clock stamping created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a PostgreSQL outbox store.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append writes an event to the outbox.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := event.Payload()
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		aggregateType,
		event.CustomerID.String(),
		event.Action,
		payload,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Pending returns unpublished entries in insert order.
func (s *Store) Pending(ctx context.Context, limit, maxAttempts int) ([]audit.OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, attempts, created_at
		FROM outbox
		WHERE published_at IS NULL AND attempts < $1
		ORDER BY seq ASC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var e audit.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps published_at on the given entries.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.db.ExecContext(ctx, query, at, pq.Array(keys)); err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

// MarkFailed records a failed publish attempt.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id, reason); err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}

// ListByCustomer returns the recorded events for a customer in append order.
func (s *Store) ListByCustomer(ctx context.Context, customerID string) ([]audit.Event, error) {
	query := `
		SELECT payload FROM outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, aggregateType, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit payload: %w", err)
		}
		event, err := audit.DecodePayload(payload)
		if err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit payloads: %w", err)
	}
	return events, nil
}

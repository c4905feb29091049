package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Examples: customer registration, email changes, erasure.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: suspensions and blocks raised by fraud or sanctions screening.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventCustomerCreated      AuditEvent = "customer.created"
	EventCustomerActivated    AuditEvent = "customer.activated"
	EventCustomerSuspended    AuditEvent = "customer.suspended"
	EventCustomerBlocked      AuditEvent = "customer.blocked"
	EventCustomerDeactivated  AuditEvent = "customer.deactivated"
	EventCustomerEmailChanged AuditEvent = "customer.email_changed"
	EventCustomerDeleted      AuditEvent = "customer.deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCustomerCreated:      CategoryCompliance,
	EventCustomerEmailChanged: CategoryCompliance,
	EventCustomerDeleted:      CategoryCompliance,

	EventCustomerSuspended: CategorySecurity,
	EventCustomerBlocked:   CategorySecurity,

	EventCustomerActivated:   CategoryOperations,
	EventCustomerDeactivated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one customer lifecycle transition as recorded for audit and
// downstream consumers. Raw email addresses never enter an Event; only keyed
// hashes do.
type Event struct {
	ID         domain.EventID
	Category   EventCategory
	Timestamp  time.Time
	CustomerID domain.CustomerID
	Action     string
	FromStatus string
	ToStatus   string
	Reason     string
	EmailHash  string
	RequestID  string
	ActorID    string
}

// payload is the JSON document published to Kafka.
type payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	CustomerID string `json:"customer_id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	EmailHash  string `json:"email_hash,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

// Payload encodes the event for the outbox.
func (e Event) Payload() ([]byte, error) {
	return json.Marshal(payload{
		ID:         e.ID.String(),
		Category:   string(e.Category),
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		CustomerID: e.CustomerID.String(),
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Reason:     e.Reason,
		EmailHash:  e.EmailHash,
		RequestID:  e.RequestID,
		ActorID:    e.ActorID,
	})
}

// DecodePayload is the inverse of Payload.
func DecodePayload(b []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Event{}, err
	}
	eventID, err := domain.ParseEventID(p.ID)
	if err != nil {
		return Event{}, err
	}
	customerID, err := domain.ParseCustomerID(p.CustomerID)
	if err != nil {
		return Event{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         eventID,
		Category:   EventCategory(p.Category),
		Timestamp:  ts,
		CustomerID: customerID,
		Action:     p.Action,
		FromStatus: p.FromStatus,
		ToStatus:   p.ToStatus,
		Reason:     p.Reason,
		EmailHash:  p.EmailHash,
		RequestID:  p.RequestID,
		ActorID:    p.ActorID,
	}, nil
}

// OutboxEntry is a persisted, not yet necessarily published, event.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	Attempts    int
	CreatedAt   time.Time
}

// Store appends events. Implementations write to the transactional outbox.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Outbox is the relay side of the store.
type Outbox interface {
	Store
	// Pending returns up to limit unpublished entries with fewer than
	// maxAttempts failed attempts, oldest first.
	Pending(ctx context.Context, limit, maxAttempts int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

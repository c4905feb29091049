package models

import (
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
)

// EventType names an effective lifecycle transition.
type EventType string

const (
	EventCustomerCreated     EventType = "customer.created"
	EventCustomerActivated   EventType = "customer.activated"
	EventCustomerSuspended   EventType = "customer.suspended"
	EventCustomerBlocked     EventType = "customer.blocked"
	EventCustomerDeactivated EventType = "customer.deactivated"
	EventCustomerEmailChange EventType = "customer.email_changed"
	EventCustomerDeleted     EventType = "customer.deleted"
)

// LifecycleEvent records one transition that changed the aggregate. No-ops
// never produce one.
type LifecycleEvent struct {
	Type       EventType
	CustomerID domain.CustomerID
	FromStatus domain.CustomerStatus
	ToStatus   domain.CustomerStatus
	Reason     string
	OldEmail   Email
	NewEmail   Email
	OccurredAt time.Time
}

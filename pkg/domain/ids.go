// Package domain holds value types that cross package and transport boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

// CustomerID identifies a customer aggregate. The zero value (uuid.Nil) is never
// a valid identity.
type CustomerID uuid.UUID

// EventID identifies a lifecycle audit event in the outbox.
type EventID uuid.UUID

// NewCustomerID generates a random (v4) customer identity.
func NewCustomerID() CustomerID {
	return CustomerID(uuid.New())
}

// NewEventID generates a random (v4) event identity.
func NewEventID() EventID {
	return EventID(uuid.New())
}

// ParseCustomerID parses a customer id at a trust boundary.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer ID")
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID(u), nil
}

// ParseEventID parses an event id.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event ID")
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id CustomerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) != 36 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

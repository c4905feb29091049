// Package models holds the customer aggregate and its value objects.
package models

import (
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/rules"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/specification"
)

// Customer is the aggregate root of the customer lifecycle.
//
// Invariants:
//   - ID and CreatedAt never change after construction
//   - DeletedAt is set at most once and never cleared
//   - BLOCKED is terminal: no method moves a customer out of it
//   - A deleted customer rejects every transition except Delete with CUSTOMER_DELETED
//   - Every effective mutation stamps UpdatedAt as its last step; no-ops leave it alone
//
// Transition methods consult the rule catalog only through ensure. Business
// rejections come back as *specification.Failure, untouched.
type Customer struct {
	id        domain.CustomerID
	email     Email
	status    domain.CustomerStatus
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
	version   int64

	events []LifecycleEvent
}

// New registers a customer. The status is always PENDING.
func New(email Email, now time.Time) (*Customer, error) {
	if email.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	c := &Customer{
		id:        domain.NewCustomerID(),
		email:     email,
		status:    domain.CustomerStatusPending,
		createdAt: now,
		updatedAt: now,
	}
	c.record(LifecycleEvent{
		Type:       EventCustomerCreated,
		ToStatus:   domain.CustomerStatusPending,
		NewEmail:   email,
		OccurredAt: now,
	})
	return c, nil
}

// Reconstitute restores a customer from storage. Stored state is trusted and
// business rules are not re-checked; only structural defects are rejected.
func Reconstitute(
	customerID domain.CustomerID,
	email Email,
	status domain.CustomerStatus,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
	version int64,
) (*Customer, error) {
	switch {
	case customerID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "customer ID is required")
	case email.IsZero():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	case createdAt.IsZero() || updatedAt.IsZero():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "timestamps are required")
	}
	c := &Customer{
		id:        customerID,
		email:     email,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
	}
	if deletedAt != nil {
		at := *deletedAt
		c.deletedAt = &at
	}
	return c, nil
}

func (c *Customer) ID() domain.CustomerID         { return c.id }
func (c *Customer) Email() Email                  { return c.email }
func (c *Customer) Status() domain.CustomerStatus { return c.status }
func (c *Customer) CreatedAt() time.Time          { return c.createdAt }
func (c *Customer) UpdatedAt() time.Time          { return c.updatedAt }
func (c *Customer) IsDeleted() bool               { return c.deletedAt != nil }
func (c *Customer) IsActive() bool                { return c.status == domain.CustomerStatusActive }

// DeletedAt returns a copy of the deletion instant, or nil for live customers.
func (c *Customer) DeletedAt() *time.Time {
	if c.deletedAt == nil {
		return nil
	}
	at := *c.deletedAt
	return &at
}

// Version is the optimistic concurrency counter of the last persisted state.
func (c *Customer) Version() int64 { return c.version }

// SetVersion is called by stores after a successful write.
func (c *Customer) SetVersion(v int64) { c.version = v }

// Activate moves a PENDING or SUSPENDED customer to ACTIVE. Activating an
// ACTIVE customer is a no-op.
func (c *Customer) Activate(now time.Time) error {
	if err := c.ensure(rules.CanBeActivated()); err != nil {
		return err
	}
	if c.status == domain.CustomerStatusActive {
		return nil
	}
	c.transition(domain.CustomerStatusActive, EventCustomerActivated, "", now)
	return nil
}

// Suspend moves an ACTIVE customer to SUSPENDED. Suspending a SUSPENDED
// customer is a no-op.
func (c *Customer) Suspend(reason StateChangeReason, now time.Time) error {
	if err := c.ensure(rules.CanBeSuspended()); err != nil {
		return err
	}
	if reason.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "suspension reason is required")
	}
	if c.status == domain.CustomerStatusSuspended {
		return nil
	}
	c.transition(domain.CustomerStatusSuspended, EventCustomerSuspended, reason.String(), now)
	return nil
}

// Block moves any live customer to the terminal BLOCKED status. Blocking a
// BLOCKED customer is a no-op whatever the reason.
func (c *Customer) Block(reason StateChangeReason, now time.Time) error {
	if err := c.ensure(rules.CanBeBlocked()); err != nil {
		return err
	}
	if reason.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "block reason is required")
	}
	if c.status == domain.CustomerStatusBlocked {
		return nil
	}
	c.transition(domain.CustomerStatusBlocked, EventCustomerBlocked, reason.String(), now)
	return nil
}

// MarkInactive moves a live, unblocked customer to INACTIVE.
func (c *Customer) MarkInactive(now time.Time) error {
	if err := c.ensure(rules.CanBeMarkedInactive()); err != nil {
		return err
	}
	if c.status == domain.CustomerStatusInactive {
		return nil
	}
	c.transition(domain.CustomerStatusInactive, EventCustomerDeactivated, "", now)
	return nil
}

// ChangeEmail replaces the email. Changing to the current email is a no-op.
func (c *Customer) ChangeEmail(email Email, now time.Time) error {
	if err := c.ensure(rules.CanChangeEmail()); err != nil {
		return err
	}
	if email.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if c.email == email {
		return nil
	}
	old := c.email
	c.email = email
	c.record(LifecycleEvent{
		Type:       EventCustomerEmailChange,
		FromStatus: c.status,
		ToStatus:   c.status,
		OldEmail:   old,
		NewEmail:   email,
		OccurredAt: now,
	})
	c.updatedAt = now
	return nil
}

// Delete soft-deletes the customer. The status is kept; deleting twice keeps
// the first instant.
func (c *Customer) Delete(now time.Time) error {
	if c.deletedAt != nil {
		return nil
	}
	at := now
	c.deletedAt = &at
	c.record(LifecycleEvent{
		Type:       EventCustomerDeleted,
		FromStatus: c.status,
		ToStatus:   c.status,
		OccurredAt: now,
	})
	c.updatedAt = now
	return nil
}

// PullEvents returns and clears the events recorded since the last call.
func (c *Customer) PullEvents() []LifecycleEvent {
	events := c.events
	c.events = nil
	return events
}

func (c *Customer) ensure(spec rules.Spec) error {
	return specification.Enforce[rules.Subject](spec, c)
}

func (c *Customer) transition(to domain.CustomerStatus, eventType EventType, reason string, now time.Time) {
	from := c.status
	c.status = to
	c.record(LifecycleEvent{
		Type:       eventType,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		OccurredAt: now,
	})
	c.updatedAt = now
}

func (c *Customer) record(e LifecycleEvent) {
	e.CustomerID = c.id
	c.events = append(c.events, e)
}

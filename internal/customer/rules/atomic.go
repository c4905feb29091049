// Package rules is the customer rule catalog.
//
// Atomic specifications test a single condition. Semantic specifications, one
// per business operation, combine them and surface a curated violation code.
// Aggregates only ever call the semantic factories (CanBeActivated and
// friends), so rule composition changes in one place.
package rules

import (
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/specification"
)

// Subject is the read-only view of a customer the rules evaluate.
type Subject interface {
	ID() domain.CustomerID
	Status() domain.CustomerStatus
	DeletedAt() *time.Time
}

// Spec is a specification over customers.
type Spec = specification.Specification[Subject]

func isDeleted(c Subject) bool { return c.DeletedAt() != nil }

// IsPending is satisfied by PENDING customers.
func IsPending() Spec { return isPending }

// IsActive is satisfied by ACTIVE customers.
func IsActive() Spec { return isActive }

// IsSuspended is satisfied by SUSPENDED customers.
func IsSuspended() Spec { return isSuspended }

// NotDeleted is satisfied while the customer has no deletion timestamp.
func NotDeleted() Spec { return notDeleted }

// NotBlocked is satisfied unless the customer is BLOCKED.
func NotBlocked() Spec { return notBlocked }

var (
	isPending   = hasStatus("IsPending", domain.CustomerStatusPending, CodeCustomerNotPending)
	isActive    = hasStatus("IsActive", domain.CustomerStatusActive, CodeCustomerNotActive)
	isSuspended = hasStatus("IsSuspended", domain.CustomerStatusSuspended, CodeCustomerNotSuspended)
)

var notDeleted = specification.New("NotDeleted",
	func(c Subject) bool { return !isDeleted(c) },
	deletedViolation,
)

var notBlocked = specification.New("NotBlocked",
	func(c Subject) bool { return c.Status() != domain.CustomerStatusBlocked },
	blockedViolation,
)

func hasStatus(name string, want domain.CustomerStatus, code string) Spec {
	return specification.New(name,
		func(c Subject) bool { return c.Status() == want },
		func(c Subject) specification.Violation {
			return specification.NewViolation(code, "customer is not "+string(want),
				specification.D(KeyCustomerID, c.ID().String()),
				specification.D(KeyCurrentStatus, c.Status().String()),
			)
		},
	)
}

func deletedViolation(c Subject) specification.Violation {
	details := []specification.Detail{specification.D(KeyCustomerID, c.ID().String())}
	if at := c.DeletedAt(); at != nil {
		details = append(details, specification.D(KeyDeletedAt, at.UTC().Format(time.RFC3339Nano)))
	}
	return specification.NewViolation(CodeCustomerDeleted, "customer has been deleted", details...)
}

func blockedViolation(c Subject) specification.Violation {
	return specification.NewViolation(CodeCustomerBlocked, "customer is blocked",
		specification.D(KeyCustomerID, c.ID().String()),
	)
}

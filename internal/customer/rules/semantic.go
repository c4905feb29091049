package rules

import (
	"strings"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/specification"
)

// Semantic rules are built once; specifications are stateless and safe to share.
// Each And chain puts deletion first and blocking second so the most final
// condition is the one reported.
var (
	canBeActivated = specification.Named("CanBeActivated", specification.AllOf(
		notDeleted,
		notBlocked,
		statusIn("PENDING or SUSPENDED",
			domain.CustomerStatusPending,
			domain.CustomerStatusSuspended,
			domain.CustomerStatusActive,
		),
	))
	canBeSuspended = specification.Named("CanBeSuspended", specification.AllOf(
		notDeleted,
		notBlocked,
		statusIn("ACTIVE",
			domain.CustomerStatusActive,
			domain.CustomerStatusSuspended,
		),
	))
	canBeBlocked        = specification.Named("CanBeBlocked", notDeleted)
	canBeMarkedInactive = specification.Named("CanBeMarkedInactive", specification.And(notDeleted, notBlocked))
	canChangeEmail      = specification.Named("CanChangeEmail", specification.And(notDeleted, notBlocked))
)

// CanBeActivated allows PENDING and SUSPENDED customers to activate. ACTIVE
// customers also satisfy it so re-activation is a no-op.
func CanBeActivated() Spec { return canBeActivated }

// CanBeSuspended allows ACTIVE customers to be suspended. SUSPENDED customers
// also satisfy it so re-suspension is a no-op.
func CanBeSuspended() Spec { return canBeSuspended }

// CanBeBlocked allows blocking any customer that is not deleted.
func CanBeBlocked() Spec { return canBeBlocked }

// CanBeMarkedInactive allows any customer that is neither deleted nor blocked.
func CanBeMarkedInactive() Spec { return canBeMarkedInactive }

// CanChangeEmail allows any customer that is neither deleted nor blocked.
func CanChangeEmail() Spec { return canChangeEmail }

// statusIn is satisfied when the status is one of allowed. Its violation is
// INVALID_STATUS_TRANSITION naming the status the operation expects.
func statusIn(required string, allowed ...domain.CustomerStatus) Spec {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return specification.New("StatusIn("+strings.Join(names, ",")+")",
		func(c Subject) bool {
			for _, a := range allowed {
				if c.Status() == a {
					return true
				}
			}
			return false
		},
		func(c Subject) specification.Violation {
			return specification.NewViolation(CodeInvalidStatusTransition,
				"customer status does not allow this operation",
				specification.D(KeyCustomerID, c.ID().String()),
				specification.D(KeyCurrentStatus, c.Status().String()),
				specification.D(KeyRequiredStatus, required),
			)
		},
	)
}

package rules

// Violation codes are a versioned contract: transport mappers and event
// consumers branch on them, so renaming one is a breaking change.
const (
	CodeCustomerDeleted         = "CUSTOMER_DELETED"
	CodeCustomerBlocked         = "CUSTOMER_BLOCKED"
	CodeCustomerNotActive       = "CUSTOMER_NOT_ACTIVE"
	CodeCustomerNotPending      = "CUSTOMER_NOT_PENDING"
	CodeCustomerNotSuspended    = "CUSTOMER_NOT_SUSPENDED"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"

	// CodeCustomerAlreadyActive is reserved. Re-activation is a silent no-op,
	// so no rule in this catalog produces it.
	CodeCustomerAlreadyActive = "CUSTOMER_ALREADY_ACTIVE"
)

// Context keys carried by customer violations.
const (
	KeyCustomerID     = "customerId"
	KeyCurrentStatus  = "currentStatus"
	KeyRequiredStatus = "requiredStatus"
	KeyDeletedAt      = "deletedAt"
)

// Codes lists every code of the catalog, reserved ones included.
func Codes() []string {
	return []string{
		CodeCustomerDeleted,
		CodeCustomerBlocked,
		CodeCustomerNotActive,
		CodeCustomerNotPending,
		CodeCustomerNotSuspended,
		CodeInvalidStatusTransition,
		CodeCustomerAlreadyActive,
	}
}

package handler

import (
	"net/http"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/rules"
)

// statusForViolation maps a rule violation code to its HTTP status.
func statusForViolation(code string) int {
	switch code {
	case rules.CodeCustomerDeleted:
		return http.StatusGone
	case rules.CodeCustomerBlocked:
		return http.StatusForbidden
	case rules.CodeCustomerNotActive,
		rules.CodeCustomerNotPending,
		rules.CodeCustomerNotSuspended,
		rules.CodeCustomerAlreadyActive,
		rules.CodeInvalidStatusTransition:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

package handler

import (
	"strings"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

// CreateCustomerRequest registers a customer. Format checks live in the
// Email value object; Validate only rejects missing fields.
type CreateCustomerRequest struct {
	Email string `json:"email"`
}

func (r *CreateCustomerRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

// StateChangeRequest carries the operator's reason for a suspension or block.
type StateChangeRequest struct {
	Reason string `json:"reason"`
}

func (r *StateChangeRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email"`
}

func (r *ChangeEmailRequest) Validate() error {
	r.NewEmail = strings.TrimSpace(r.NewEmail)
	if r.NewEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "new_email is required")
	}
	return nil
}

package handler

import (
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
)

type CustomerResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Version   int64      `json:"version"`
}

func toCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID().String(),
		Email:     c.Email().String(),
		Status:    c.Status().String(),
		CreatedAt: c.CreatedAt().UTC(),
		UpdatedAt: c.UpdatedAt().UTC(),
		DeletedAt: c.DeletedAt(),
		Version:   c.Version(),
	}
}

// RuleRejectionResponse extends the error envelope with the violation context.
type RuleRejectionResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Context          map[string]string `json:"context,omitempty"`
}

// Package store persists customer aggregates. Every implementation keeps at
// most one live (not deleted) customer per email and rejects writes made
// against a stale version.
package store

import (
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
)

// record is the stored shape of a customer.
type record struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Version   int64      `json:"version"`
}

func toRecord(c *models.Customer) record {
	return record{
		ID:        c.ID().String(),
		Email:     c.Email().String(),
		Status:    c.Status().String(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
		DeletedAt: c.DeletedAt(),
		Version:   c.Version(),
	}
}

// toCustomer rebuilds the aggregate. Unknown status names survive as
// CustomerStatusUnknown so a newer writer does not make rows unreadable.
func (r record) toCustomer() (*models.Customer, error) {
	id, err := domain.ParseCustomerID(r.ID)
	if err != nil {
		return nil, err
	}
	email, err := models.NewEmail(r.Email)
	if err != nil {
		return nil, err
	}
	status, _ := domain.ParseCustomerStatus(r.Status)
	return models.Reconstitute(id, email, status, r.CreatedAt, r.UpdatedAt, r.DeletedAt, r.Version)
}

package store

import (
	"context"
	"sync"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots, so callers never share an aggregate with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.CustomerID]record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.CustomerID]record)}
}

// Save inserts a customer with version 0 or updates one whose version matches
// the stored row. The customer's version is advanced on success.
func (s *InMemoryStore) Save(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.records[c.ID()]
	switch {
	case !found && c.Version() != 0:
		return sentinel.ErrNotFound
	case found && existing.Version != c.Version():
		return sentinel.ErrConflict
	}

	if !c.IsDeleted() {
		for otherID, r := range s.records {
			if otherID != c.ID() && r.DeletedAt == nil && r.Email == c.Email().String() {
				return sentinel.ErrAlreadyUsed
			}
		}
	}

	next := toRecord(c)
	next.Version = c.Version() + 1
	s.records[c.ID()] = next
	c.SetVersion(next.Version)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.toCustomer()
}

// FindByEmail matches live customers only.
func (s *InMemoryStore) FindByEmail(_ context.Context, email models.Email) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.DeletedAt == nil && r.Email == email.String() {
			return r.toCustomer()
		}
	}
	return nil, sentinel.ErrNotFound
}

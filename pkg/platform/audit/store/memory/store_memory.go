package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
)

type entry struct {
	audit.OutboxEntry
	event       audit.Event
	seq         int64
	publishedAt *time.Time
	lastError   string
}

// InMemoryStore is the outbox used when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	seq     int64
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*entry), now: time.Now}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	b, err := event.Payload()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e := &entry{
		OutboxEntry: audit.OutboxEntry{
			ID:          uuid.New(),
			AggregateID: event.CustomerID.String(),
			EventType:   event.Action,
			Payload:     b,
			CreatedAt:   s.now(),
		},
		event: event,
		seq:   s.seq,
	}
	s.entries[e.ID] = e
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit, maxAttempts int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*entry
	for _, e := range s.entries {
		if e.publishedAt != nil || e.Attempts >= maxAttempts {
			continue
		}
		matched = append(matched, e)
	}
	sortByAppend(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]audit.OutboxEntry, len(matched))
	for i, e := range matched {
		out[i] = e.OutboxEntry
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			published := at
			e.publishedAt = &published
		}
	}
	return nil
}

func (s *InMemoryStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.Attempts++
		e.lastError = reason
	}
	return nil
}

// ListByCustomer returns every event recorded for a customer in append order.
func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*entry
	for _, e := range s.entries {
		if e.AggregateID == customerID {
			matched = append(matched, e)
		}
	}
	sortByAppend(matched)
	out := make([]audit.Event, len(matched))
	for i, e := range matched {
		out[i] = e.event
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[uuid.UUID]*entry)
}

func sortByAppend(entries []*entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
}

package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps audit events in insertion order. Suitable for tests
// and single-process dev runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByTenant(ctx context.Context, tenantID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, event := range s.events {
		if event.TenantID.String() == tenantID {
			out = append(out, event)
		}
	}
	return out, nil
}

// Len returns the total number of stored events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

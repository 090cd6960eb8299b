package audit

import "context"

// Store persists audit events. Append-only: no update or delete operation
// exists by design - corrections are made by appending new events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTenant(ctx context.Context, tenantID string) ([]Event, error)
}

package grouppolicy

import (
	"context"
	"sync"

	"vantage/pkg/domain"
)

// GroupDirectory resolves the group-membership link table (holding tenant ->
// sub-tenants). The directory itself is an external collaborator; only the
// lookup the policy resolver needs is modeled here.
type GroupDirectory interface {
	// ParentOf returns the holding tenant a sub-tenant belongs to.
	// ok is false when the tenant is not in any group.
	ParentOf(ctx context.Context, tenantID domain.TenantID) (parent domain.TenantID, ok bool, err error)
}

// InMemoryDirectory is a link table for dev servers and tests.
type InMemoryDirectory struct {
	mu     sync.RWMutex
	parent map[domain.TenantID]domain.TenantID
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{parent: make(map[domain.TenantID]domain.TenantID)}
}

// Link records that member belongs to the holding tenant's group.
// A later link for the same member replaces the earlier one.
func (d *InMemoryDirectory) Link(holdingID, memberID domain.TenantID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parent[memberID] = holdingID
}

func (d *InMemoryDirectory) ParentOf(_ context.Context, tenantID domain.TenantID) (domain.TenantID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	parent, ok := d.parent[tenantID]
	return parent, ok, nil
}

// LoadGroups bulk-loads a holding -> members map, as produced by the seed.
func (d *InMemoryDirectory) LoadGroups(groups map[domain.TenantID][]domain.TenantID) {
	for holdingID, members := range groups {
		for _, memberID := range members {
			d.Link(holdingID, memberID)
		}
	}
}

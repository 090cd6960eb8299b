package tenant

import (
	"context"
	"strings"
	"sync"

	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	"vantage/pkg/platform/sentinel"
)

// InMemory is the in-memory tenant store. A single mutex serializes all
// mutations, which satisfies the single-logical-writer requirement for the
// approval workflow in one process. Use Postgres for anything distributed.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[domain.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[domain.TenantID]*models.Tenant)}
}

// CreateIfNameAvailable inserts a tenant, enforcing case-insensitive name
// uniqueness. Returns sentinel.ErrAlreadyExists on collision.
func (s *InMemory) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Name, tenant.Name) {
			return sentinel.ErrAlreadyExists
		}
	}
	if _, ok := s.tenants[tenant.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.tenants[tenant.ID] = tenant.Clone()
	return nil
}

// FindByID returns a copy of the tenant, or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return tenant.Clone(), nil
}

// FindByName returns a copy of the tenant matched case-insensitively.
func (s *InMemory) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tenant := range s.tenants {
		if strings.EqualFold(tenant.Name, name) {
			return tenant.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Execute runs an atomic validate-then-mutate against one tenant while
// holding the store lock, so no other operation can observe or modify the
// aggregate between validation and mutation. The version is bumped on every
// successful mutation. Returns a copy of the updated tenant.
func (s *InMemory) Execute(
	ctx context.Context,
	tenantID domain.TenantID,
	validate func(t *models.Tenant) error,
	mutate func(t *models.Tenant),
) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)
	tenant.Version++
	return tenant.Clone(), nil
}

// Count returns the number of stored tenants.
func (s *InMemory) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants), nil
}

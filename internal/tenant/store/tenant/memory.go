// Package tenant provides the tenant store pair. Name uniqueness is
// case-insensitive in both implementations.
package tenant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"govinda/internal/tenant/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[id.TenantID]*models.Tenant)}
}

func cloneTenant(t *models.Tenant) *models.Tenant {
	cp := *t
	return &cp
}

// CreateIfNameAvailable inserts the tenant unless another tenant already
// holds the name, compared case-insensitively.
func (s *InMemory) CreateIfNameAvailable(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(t.Name)
	for _, existing := range s.tenants {
		if strings.ToLower(existing.Name) == lower {
			return sentinel.ErrConflict
		}
	}
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTenant(t), nil
}

// FindByName looks a tenant up case-insensitively.
func (s *InMemory) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(name)
	for _, t := range s.tenants {
		if strings.ToLower(t.Name) == lower {
			return cloneTenant(t), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns all tenants ordered by name.
func (s *InMemory) List(ctx context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, cloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}

// Execute runs validate-then-mutate atomically under the store lock, so a
// status check and the transition it guards cannot interleave with another
// writer.
func (s *InMemory) Execute(ctx context.Context, tenantID id.TenantID,
	validate func(*models.Tenant) error, apply func(*models.Tenant)) (*models.Tenant, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	apply(t)
	return cloneTenant(t), nil
}

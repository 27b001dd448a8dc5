// Package cases provides the case store pair: an in-memory implementation
// for tests and a Postgres implementation for production.
package cases

import (
	"context"
	"sort"
	"sync"

	"govinda/internal/cases/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.Case)}
}

func cloneCase(c *models.Case) *models.Case {
	cp := *c
	if c.AssigneeID != nil {
		v := *c.AssigneeID
		cp.AssigneeID = &v
	}
	return &cp
}

func (s *InMemory) Create(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cases[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tenantID id.TenantID, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[caseID]
	if !ok || c.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return cloneCase(c), nil
}

// ListByTenant returns the tenant's cases, newest first.
func (s *InMemory) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for _, c := range s.cases {
		if c.TenantID == tenantID {
			out = append(out, cloneCase(c))
		}
	}
	sortCases(out)
	return out, nil
}

// ListByPerson returns the person's cases within a tenant, newest first.
func (s *InMemory) ListByPerson(ctx context.Context, tenantID id.TenantID, personID id.PersonID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for _, c := range s.cases {
		if c.TenantID == tenantID && c.PersonID == personID {
			out = append(out, cloneCase(c))
		}
	}
	sortCases(out)
	return out, nil
}

// Update persists a modified case, enforcing the version check.
func (s *InMemory) Update(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.cases[c.ID]
	if !ok || stored.TenantID != c.TenantID {
		return sentinel.ErrNotFound
	}
	if stored.Version != c.Version {
		return sentinel.ErrVersionMismatch
	}
	c.Version++
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func sortCases(cs []*models.Case) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}

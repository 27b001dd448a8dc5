package household

import (
	"context"
	"sync"

	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory household store for unit tests and
// local development.
type InMemory struct {
	mu         sync.RWMutex
	households map[id.HouseholdID]*models.Household
}

func NewInMemory() *InMemory {
	return &InMemory{households: make(map[id.HouseholdID]*models.Household)}
}

func clone(h *models.Household) *models.Household {
	cp := *h
	cp.Members = make([]models.HouseholdMember, len(h.Members))
	for i, m := range h.Members {
		cp.Members[i] = m
		if m.ValidTo != nil {
			v := *m.ValidTo
			cp.Members[i].ValidTo = &v
		}
	}
	return &cp
}

func (s *InMemory) Create(ctx context.Context, h *models.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.households[h.ID]; ok {
		return sentinel.ErrConflict
	}
	s.households[h.ID] = clone(h)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tenantID id.TenantID, householdID id.HouseholdID) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.households[householdID]
	if !ok || h.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return clone(h), nil
}

// FindByMember returns the household a person currently belongs to, if any.
func (s *InMemory) FindByMember(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.households {
		if h.TenantID != tenantID {
			continue
		}
		for _, m := range h.Members {
			if m.PersonID == personID && m.ValidTo == nil {
				return clone(h), nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

// Update persists the household and its membership rows, guarded by the
// version counter.
func (s *InMemory) Update(ctx context.Context, h *models.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.households[h.ID]
	if !ok || stored.TenantID != h.TenantID {
		return sentinel.ErrNotFound
	}
	if stored.Version != h.Version {
		return sentinel.ErrVersionMismatch
	}
	h.Version++
	s.households[h.ID] = clone(h)
	return nil
}

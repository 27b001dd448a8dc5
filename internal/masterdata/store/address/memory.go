package address

import (
	"context"
	"sort"
	"sync"
	"time"

	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory address store for unit tests and local
// development.
type InMemory struct {
	mu        sync.RWMutex
	addresses map[id.AddressID]*models.Address
}

func NewInMemory() *InMemory {
	return &InMemory{addresses: make(map[id.AddressID]*models.Address)}
}

func clone(a *models.Address) *models.Address {
	cp := *a
	if a.ValidTo != nil {
		v := *a.ValidTo
		cp.ValidTo = &v
	}
	return &cp
}

func (s *InMemory) Create(ctx context.Context, a *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.addresses[a.ID] = clone(a)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, addressID id.AddressID) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.addresses[addressID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// ListByPerson returns all address rows of a person, newest first.
func (s *InMemory) ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Address
	for _, a := range s.addresses {
		if a.PersonID == personID {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ValidFrom.After(out[j].ValidFrom)
	})
	return out, nil
}

// CurrentByType returns the open address of the given type, if any.
func (s *InMemory) CurrentByType(ctx context.Context, personID id.PersonID, t models.AddressType, today time.Time) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.addresses {
		if a.PersonID == personID && a.AddressType == t && a.IsCurrent(today) {
			return clone(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Close stamps validTo on an open address row.
func (s *InMemory) Close(ctx context.Context, addressID id.AddressID, validTo time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[addressID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.ValidTo != nil {
		return sentinel.ErrConflict
	}
	return a.Close(validTo)
}

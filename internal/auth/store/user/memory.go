// Package user provides the user store pair: an in-memory implementation
// for tests and a Postgres implementation for production.
package user

import (
	"context"
	"strings"
	"sync"

	"govinda/internal/auth/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

// Create inserts a user, enforcing email uniqueness per tenant
// case-insensitively.
func (s *InMemory) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && strings.EqualFold(existing.Email, u.Email) {
			return sentinel.ErrConflict
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *InMemory) FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

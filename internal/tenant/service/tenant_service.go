package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"govinda/internal/audit"
	"govinda/internal/tenant/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/requestcontext"
)

// CreateTenant registers a new tenant. Name uniqueness is enforced
// case-insensitively by the store.
func (s *Service) CreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)

	t, err := models.NewTenant(id.NewTenantID(), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.tenants.CreateIfNameAvailable(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionTenantCreated, Entity: "tenant", EntityID: t.ID.String(),
		Details: map[string]string{"name": t.Name},
	})
	if s.metrics != nil {
		s.metrics.IncrementTenantCreated()
	}
	return t, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveGetTenant(time.Now())
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant id is required")
	}
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return t, nil
}

// GetTenantByName retrieves a tenant by name, case-insensitively.
func (s *Service) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant name is required")
	}
	t, err := s.tenants.FindByName(ctx, name)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return t, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	found, err := s.tenants.List(ctx)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return found, nil
}

// DeactivateTenant transitions a tenant to inactive. The store's Execute
// holds the lock across validation and mutation.
func (s *Service) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	t, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already inactive")
			}
			return nil
		},
		func(t *models.Tenant) { t.ApplyDeactivation(now) },
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionTenantDeactivated, Entity: "tenant", EntityID: t.ID.String(),
	})
	return t, nil
}

// ReactivateTenant transitions a tenant back to active.
func (s *Service) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	t, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already active")
			}
			return nil
		},
		func(t *models.Tenant) { t.ApplyReactivation(now) },
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionTenantReactivated, Entity: "tenant", EntityID: t.ID.String(),
	})
	return t, nil
}

// Package service orchestrates tenant lifecycle management. Tenants are
// operator-managed; the admin surface is guarded by a shared token rather
// than tenant-scoped auth.
package service

import (
	"context"
	"errors"
	"log/slog"

	"govinda/internal/audit"
	tenantmetrics "govinda/internal/tenant/metrics"
	"govinda/internal/tenant/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
)

// TenantStore is the persistence boundary for tenants. Execute runs a
// validate-then-mutate pair atomically (mutex in memory, FOR UPDATE in
// Postgres) so status checks cannot interleave with another writer.
type TenantStore interface {
	CreateIfNameAvailable(ctx context.Context, t *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Update(ctx context.Context, t *models.Tenant) error
	Execute(ctx context.Context, tenantID id.TenantID,
		validate func(*models.Tenant) error, apply func(*models.Tenant)) (*models.Tenant, error)
}

// AuditPublisher records tenant lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service orchestrates tenant operations.
type Service struct {
	tenants TenantStore
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *tenantmetrics.Metrics
}

func New(tenants TenantStore, opts ...Option) *Service {
	s := &Service{tenants: tenants}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	s.logger.InfoContext(ctx, event.Action,
		"entity", event.Entity, "entity_id", event.EntityID, "log_type", "audit")
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func wrapTenantErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
	}
}

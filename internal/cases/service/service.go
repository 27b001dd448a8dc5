// Package service implements the case workflows: opening, assignment and
// status transitions, scoped by tenant like the rest of the system.
package service

import (
	"context"
	"errors"
	"log/slog"

	"govinda/internal/audit"
	casemetrics "govinda/internal/cases/metrics"
	"govinda/internal/cases/models"
	mdmodels "govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/requestcontext"
)

// CaseStore is the persistence boundary for cases.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, tenantID id.TenantID, caseID id.CaseID) (*models.Case, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Case, error)
	ListByPerson(ctx context.Context, tenantID id.TenantID, personID id.PersonID) ([]*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
}

// PersonDirectory resolves persons so cases are never opened against ghosts.
// The masterdata person store satisfies this.
type PersonDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*mdmodels.Person, error)
}

// AuditPublisher records case lifecycle events.
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

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service coordinates case operations.
type Service struct {
	cases   CaseStore
	persons PersonDirectory
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *casemetrics.Metrics
}

func New(cases CaseStore, persons PersonDirectory, opts ...Option) *Service {
	s := &Service{cases: cases, persons: persons}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// OpenCaseParams carries the fields needed to open a case.
type OpenCaseParams struct {
	PersonID    id.PersonID
	Type        models.CaseType
	Subject     string
	Description string
}

// OpenCase opens a case for an existing person.
func (s *Service) OpenCase(ctx context.Context, params OpenCaseParams) (*models.Case, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.persons.FindByID(ctx, tenantID, params.PersonID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, wrapCaseErr(err)
	}

	c, err := models.NewCase(models.NewCaseParams{
		TenantID:    tenantID,
		PersonID:    params.PersonID,
		Type:        params.Type,
		Subject:     params.Subject,
		Description: params.Description,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, wrapCaseErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionCaseOpened, Entity: "case", EntityID: c.ID.String(),
		Details: map[string]string{"case_type": string(c.Type), "person_id": c.PersonID.String()},
	})
	if s.metrics != nil {
		s.metrics.IncrementCasesOpened()
	}
	return c, nil
}

func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.FindByID(ctx, tenantID, caseID)
	if err != nil {
		return nil, wrapCaseErr(err)
	}
	return c, nil
}

// ListCases returns all cases of the tenant, newest first.
func (s *Service) ListCases(ctx context.Context) ([]*models.Case, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	found, err := s.cases.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, wrapCaseErr(err)
	}
	return found, nil
}

// ListCasesOfPerson returns the person's cases, newest first.
func (s *Service) ListCasesOfPerson(ctx context.Context, personID id.PersonID) ([]*models.Case, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	found, err := s.cases.ListByPerson(ctx, tenantID, personID)
	if err != nil {
		return nil, wrapCaseErr(err)
	}
	return found, nil
}

// TransitionCase moves a case through its status lifecycle.
func (s *Service) TransitionCase(ctx context.Context, caseID id.CaseID, status models.CaseStatus) (*models.Case, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	from := c.Status
	if err := c.TransitionTo(status, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, wrapCaseErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionCaseStatusChanged, Entity: "case", EntityID: c.ID.String(),
		Details: map[string]string{"from": string(from), "to": string(status)},
	})
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(status))
	}
	return c, nil
}

// AssignCase hands a case to a user.
func (s *Service) AssignCase(ctx context.Context, caseID id.CaseID, assignee id.UserID) (*models.Case, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := c.Assign(assignee, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, wrapCaseErr(err)
	}
	return c, nil
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

func tenantFrom(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeUnauthorized, "no tenant in request context")
	}
	return tenantID, nil
}

func wrapCaseErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.New(dErrors.CodeConflict, "case was modified concurrently, reload and retry")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "case store failure")
	}
}

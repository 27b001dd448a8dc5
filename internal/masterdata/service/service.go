package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"govinda/internal/audit"
	mdmetrics "govinda/internal/masterdata/metrics"
	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/store/person"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
	"govinda/pkg/requestcontext"
)

type PersonStore interface {
	Create(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Person, error)
	FindByAhv(ctx context.Context, tenantID id.TenantID, ahv models.AhvNumber) (*models.Person, error)
	Search(ctx context.Context, tenantID id.TenantID, q person.Query) ([]*models.Person, error)
	Update(ctx context.Context, p *models.Person) error
	AppendHistory(ctx context.Context, e *models.PersonHistoryEntry) error
	SupersedeHistory(ctx context.Context, personID id.PersonID, historyID id.HistoryID, at time.Time) error
	FindHistoryEntry(ctx context.Context, personID id.PersonID, historyID id.HistoryID) (*models.PersonHistoryEntry, error)
	HistoryOf(ctx context.Context, personID id.PersonID) ([]*models.PersonHistoryEntry, error)
	HistoryAt(ctx context.Context, personID id.PersonID, date time.Time) (*models.PersonHistoryEntry, error)
}

type AddressStore interface {
	Create(ctx context.Context, a *models.Address) error
	FindByID(ctx context.Context, addressID id.AddressID) (*models.Address, error)
	ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Address, error)
	CurrentByType(ctx context.Context, personID id.PersonID, t models.AddressType, today time.Time) (*models.Address, error)
	Close(ctx context.Context, addressID id.AddressID, validTo time.Time) error
}

type HouseholdStore interface {
	Create(ctx context.Context, h *models.Household) error
	FindByID(ctx context.Context, tenantID id.TenantID, householdID id.HouseholdID) (*models.Household, error)
	FindByMember(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Household, error)
	Update(ctx context.Context, h *models.Household) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *mdmetrics.Metrics
	tx             tx.Runner
	tracer         trace.Tracer
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

func WithMetrics(m *mdmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTx sets the transaction boundary used to persist an aggregate and its
// history entry atomically. Defaults to NoopRunner for in-memory stores.
func WithTx(runner tx.Runner) Option {
	return func(c *serviceConfig) { c.tx = runner }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *serviceConfig) { c.tracer = tracer }
}

func buildConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = tx.NoopRunner{}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("govinda/masterdata")
	}
	return cfg
}

// auditEmitter wraps the optional publisher so services can emit without nil
// checks at every call site.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) {
	e.logger.InfoContext(ctx, event.Action,
		"entity", event.Entity, "entity_id", event.EntityID, "log_type", "audit")
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// tenantFrom pulls the resolved tenant from the request context. Operating
// without a tenant is never legal in this module.
func tenantFrom(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeUnauthorized, "no tenant in request context")
	}
	return tenantID, nil
}

func wrapPersonErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "person not found")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.New(dErrors.CodeConflict, "person was modified concurrently, reload and retry")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "person store failure")
	}
}

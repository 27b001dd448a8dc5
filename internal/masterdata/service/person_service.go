package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"govinda/internal/audit"
	"govinda/internal/history"
	mdmetrics "govinda/internal/masterdata/metrics"
	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/store/person"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
	"govinda/pkg/requestcontext"
)

// PersonService orchestrates the person aggregate and its history ledger.
//
// Effective-dated mutations follow one shape: load the aggregate, let the
// model produce the pre-image history entry, then persist entry and aggregate
// inside one transaction. The aggregate write is guarded by the optimistic
// version check, so concurrent mutations of the same person cannot interleave
// their history windows.
type PersonService struct {
	persons      PersonStore
	auditEmitter *auditEmitter
	metrics      *mdmetrics.Metrics
	tx           tx.Runner
	tracer       trace.Tracer
}

func NewPersonService(persons PersonStore, opts ...Option) *PersonService {
	cfg := buildConfig(opts)
	return &PersonService{
		persons:      persons,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tx:           cfg.tx,
		tracer:       cfg.tracer,
	}
}

// CreatePersonParams carries the registration fields for a new person.
type CreatePersonParams struct {
	AhvNr             string
	LastName          string
	FirstName         string
	DateOfBirth       time.Time
	Gender            models.Gender
	MaritalStatus     models.MaritalStatus
	Nationality       string
	PreferredLanguage models.Language
}

func (s *PersonService) CreatePerson(ctx context.Context, params CreatePersonParams) (*models.Person, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	ahv, err := models.ParseAhvNumber(params.AhvNr)
	if err != nil {
		return nil, err
	}

	p, err := models.NewPerson(models.NewPersonParams{
		TenantID:          tenantID,
		AhvNr:             ahv,
		LastName:          params.LastName,
		FirstName:         params.FirstName,
		DateOfBirth:       params.DateOfBirth,
		Gender:            params.Gender,
		MaritalStatus:     params.MaritalStatus,
		Nationality:       params.Nationality,
		PreferredLanguage: params.PreferredLanguage,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.persons.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a person with this AHV number already exists")
		}
		return nil, wrapPersonErr(err)
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionPersonCreated, Entity: "person", EntityID: p.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementPersonsCreated()
	}
	return p, nil
}

func (s *PersonService) GetPerson(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.persons.FindByID(ctx, tenantID, personID)
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	return p, nil
}

func (s *PersonService) GetPersonByAhv(ctx context.Context, ahvNr string) (*models.Person, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	ahv, err := models.ParseAhvNumber(ahvNr)
	if err != nil {
		return nil, err
	}
	p, err := s.persons.FindByAhv(ctx, tenantID, ahv)
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	return p, nil
}

func (s *PersonService) SearchPersons(ctx context.Context, query person.Query) ([]*models.Person, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown person status: %s", query.Status)
	}
	found, err := s.persons.Search(ctx, tenantID, query)
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	return found, nil
}

// UpdatePersonParams carries the non-historized fields. Nil means keep.
type UpdatePersonParams struct {
	Nationality       *string
	PreferredLanguage *models.Language
}

// UpdatePerson changes fields outside the history mechanism. No ledger entry
// is written; the version check still applies.
func (s *PersonService) UpdatePerson(ctx context.Context, personID id.PersonID, params UpdatePersonParams) (*models.Person, error) {
	p, err := s.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	if params.Nationality != nil {
		p.Nationality = *params.Nationality
	}
	if params.PreferredLanguage != nil {
		if !params.PreferredLanguage.Valid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown language: %s", *params.PreferredLanguage)
		}
		p.PreferredLanguage = *params.PreferredLanguage
	}
	p.UpdatedAt = requestcontext.Now(ctx)

	if err := s.persons.Update(ctx, p); err != nil {
		return nil, wrapPersonErr(err)
	}
	return p, nil
}

// ChangeName applies an effective-dated name change and archives the previous
// state as a history entry.
func (s *PersonService) ChangeName(ctx context.Context, personID id.PersonID, change models.NameChange) (*models.Person, *models.PersonHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "person.change_name",
		trace.WithAttributes(attribute.String("person.id", personID.String())))
	defer span.End()

	change.ChangedBy = requestcontext.UserID(ctx)
	return s.applyMutation(ctx, personID, audit.ActionPersonNameChanged,
		func(p *models.Person, now time.Time) (*models.PersonHistoryEntry, error) {
			return p.ChangeName(change, now)
		})
}

// ChangeMaritalStatus applies an effective-dated marital status change and
// archives the previous state as a history entry.
func (s *PersonService) ChangeMaritalStatus(ctx context.Context, personID id.PersonID, change models.MaritalStatusChange) (*models.Person, *models.PersonHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "person.change_marital_status",
		trace.WithAttributes(attribute.String("person.id", personID.String())))
	defer span.End()

	change.ChangedBy = requestcontext.UserID(ctx)
	return s.applyMutation(ctx, personID, audit.ActionPersonMaritalChanged,
		func(p *models.Person, now time.Time) (*models.PersonHistoryEntry, error) {
			return p.ChangeMaritalStatus(change, now)
		})
}

// DeactivatePerson marks a person inactive. The status is not historized, so
// no ledger entry is written.
func (s *PersonService) DeactivatePerson(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	p, err := s.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PersonInactive {
		return nil, dErrors.New(dErrors.CodeConflict, "person is already inactive")
	}
	p.SetStatus(models.PersonInactive, requestcontext.Now(ctx))
	if err := s.persons.Update(ctx, p); err != nil {
		return nil, wrapPersonErr(err)
	}
	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionPersonDeactivated, Entity: "person", EntityID: p.ID.String(),
	})
	return p, nil
}

// applyMutation is the shared persist path for effective-dated mutations:
// mutate in memory, then write history entry and aggregate in one
// transaction.
func (s *PersonService) applyMutation(
	ctx context.Context,
	personID id.PersonID,
	action string,
	mutate func(p *models.Person, now time.Time) (*models.PersonHistoryEntry, error),
) (*models.Person, *models.PersonHistoryEntry, error) {
	start := time.Now()

	p, err := s.GetPerson(ctx, personID)
	if err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	entry, err := mutate(p, now)
	if err != nil {
		return nil, nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.persons.AppendHistory(txCtx, entry); err != nil {
			return wrapPersonErr(err)
		}
		if err := s.persons.Update(txCtx, p); err != nil {
			if errors.Is(err, sentinel.ErrVersionMismatch) && s.metrics != nil {
				s.metrics.IncrementVersionConflict()
			}
			return wrapPersonErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: action, Entity: "person", EntityID: p.ID.String(),
		Details: map[string]string{
			"history_id":    entry.HistoryID.String(),
			"valid_from":    entry.ValidFrom.Format("2006-01-02"),
			"mutation_type": string(entry.MutationType),
			"reason":        entry.Reason,
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementMutation(string(entry.MutationType))
		s.metrics.ObserveMutationTx(start)
	}
	return p, entry, nil
}

// GetHistory returns the full ledger of a person, newest window first,
// superseded rows included.
func (s *PersonService) GetHistory(ctx context.Context, personID id.PersonID) ([]*models.PersonHistoryEntry, error) {
	if _, err := s.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	entries, err := s.persons.HistoryOf(ctx, personID)
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	return entries, nil
}

// StateAt resolves the person's historized state on the given date. A nil
// entry with nil error means no closed window covers the date: the live
// record applies.
func (s *PersonService) StateAt(ctx context.Context, personID id.PersonID, date time.Time) (*models.PersonHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "person.state_at",
		trace.WithAttributes(
			attribute.String("person.id", personID.String()),
			attribute.String("date", history.DateOf(date).Format("2006-01-02")),
		))
	defer span.End()
	start := time.Now()

	if _, err := s.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	entry, err := s.persons.HistoryAt(ctx, personID, date)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	if s.metrics != nil {
		s.metrics.ObserveStateAt(start)
	}
	return entry, nil
}

// CorrectHistory supersedes a faulty ledger entry and appends a CORRECTION
// row covering the same validity window. Both writes share one transaction.
func (s *PersonService) CorrectHistory(ctx context.Context, personID id.PersonID, historyID id.HistoryID, correction models.HistoryCorrection) (*models.PersonHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "person.correct_history",
		trace.WithAttributes(
			attribute.String("person.id", personID.String()),
			attribute.String("history.id", historyID.String()),
		))
	defer span.End()

	if _, err := s.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	entry, err := s.persons.FindHistoryEntry(ctx, personID, historyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "history entry not found")
		}
		return nil, wrapPersonErr(err)
	}

	now := requestcontext.Now(ctx)
	correction.ChangedBy = requestcontext.UserID(ctx)
	corrected, err := entry.Correct(correction, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.persons.SupersedeHistory(txCtx, personID, historyID, now); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "history entry was already corrected")
			}
			return wrapPersonErr(err)
		}
		if err := s.persons.AppendHistory(txCtx, corrected); err != nil {
			return wrapPersonErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionHistoryCorrected, Entity: "person", EntityID: personID.String(),
		Details: map[string]string{
			"superseded_history_id": historyID.String(),
			"correction_history_id": corrected.HistoryID.String(),
			"reason":                corrected.Reason,
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementCorrection()
	}
	return corrected, nil
}

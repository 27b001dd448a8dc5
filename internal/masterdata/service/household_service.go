package service

import (
	"context"
	"errors"
	"time"

	"govinda/internal/audit"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
	"govinda/pkg/requestcontext"
)

// HouseholdService manages household composition. Membership changes go
// through the version-checked aggregate update so role invariants hold under
// concurrency.
type HouseholdService struct {
	households   HouseholdStore
	persons      PersonStore
	auditEmitter *auditEmitter
	tx           tx.Runner
}

func NewHouseholdService(households HouseholdStore, persons PersonStore, opts ...Option) *HouseholdService {
	cfg := buildConfig(opts)
	return &HouseholdService{
		households:   households,
		persons:      persons,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		tx:           cfg.tx,
	}
}

func (s *HouseholdService) CreateHousehold(ctx context.Context, name string) (*models.Household, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	h, err := models.NewHousehold(tenantID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.households.Create(ctx, h); err != nil {
		return nil, wrapHouseholdErr(err)
	}
	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionHouseholdCreated, Entity: "household", EntityID: h.ID.String(),
	})
	return h, nil
}

func (s *HouseholdService) GetHousehold(ctx context.Context, householdID id.HouseholdID) (*models.Household, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.households.FindByID(ctx, tenantID, householdID)
	if err != nil {
		return nil, wrapHouseholdErr(err)
	}
	return h, nil
}

// GetHouseholdOfPerson resolves the household a person currently belongs to.
func (s *HouseholdService) GetHouseholdOfPerson(ctx context.Context, personID id.PersonID) (*models.Household, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.households.FindByMember(ctx, tenantID, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person is not a member of any household")
		}
		return nil, wrapHouseholdErr(err)
	}
	return h, nil
}

// AddMember opens a membership for a person. The person must exist in the
// same tenant and must not be a current member of another household.
func (s *HouseholdService) AddMember(ctx context.Context, householdID id.HouseholdID, personID id.PersonID, role models.HouseholdRole, validFrom time.Time) (*models.Household, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.persons.FindByID(ctx, tenantID, personID); err != nil {
		return nil, wrapPersonErr(err)
	}
	if other, err := s.households.FindByMember(ctx, tenantID, personID); err == nil && other.ID != householdID {
		return nil, dErrors.New(dErrors.CodeConflict, "person is already a member of another household")
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapHouseholdErr(err)
	}

	h, err := s.households.FindByID(ctx, tenantID, householdID)
	if err != nil {
		return nil, wrapHouseholdErr(err)
	}
	if err := h.AddMember(personID, role, validFrom, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.updateHousehold(ctx, h); err != nil {
		return nil, err
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionMemberAdded, Entity: "household", EntityID: h.ID.String(),
		Details: map[string]string{"person_id": personID.String(), "role": string(role)},
	})
	return h, nil
}

// RemoveMember closes a person's membership window on the given date.
func (s *HouseholdService) RemoveMember(ctx context.Context, householdID id.HouseholdID, personID id.PersonID, validTo time.Time) (*models.Household, error) {
	h, err := s.GetHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if err := h.RemoveMember(personID, validTo, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.updateHousehold(ctx, h); err != nil {
		return nil, err
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionMemberRemoved, Entity: "household", EntityID: h.ID.String(),
		Details: map[string]string{"person_id": personID.String()},
	})
	return h, nil
}

// updateHousehold persists the aggregate inside one transaction boundary.
// The Postgres store rewrites the membership rows alongside the
// version-checked aggregate update, so the writes must not auto-commit
// separately.
func (s *HouseholdService) updateHousehold(ctx context.Context, h *models.Household) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.households.Update(txCtx, h); err != nil {
			return wrapHouseholdErr(err)
		}
		return nil
	})
}

func wrapHouseholdErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "household not found")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.New(dErrors.CodeConflict, "household was modified concurrently, reload and retry")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "household already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "household store failure")
	}
}

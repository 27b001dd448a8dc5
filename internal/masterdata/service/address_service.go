package service

import (
	"context"
	"errors"
	"time"

	"govinda/internal/audit"
	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
	"govinda/pkg/requestcontext"
)

// AddressService manages effective-dated address rows. A move closes the
// outgoing row and inserts the new one in a single transaction.
type AddressService struct {
	persons      PersonStore
	addresses    AddressStore
	auditEmitter *auditEmitter
	tx           tx.Runner
}

func NewAddressService(persons PersonStore, addresses AddressStore, opts ...Option) *AddressService {
	cfg := buildConfig(opts)
	return &AddressService{
		persons:      persons,
		addresses:    addresses,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		tx:           cfg.tx,
	}
}

// RegisterAddressParams carries the fields for a new address row.
type RegisterAddressParams struct {
	AddressType    models.AddressType
	Street         string
	HouseNumber    string
	AdditionalLine string
	PostalCode     string
	City           string
	Canton         string
	Country        string
	ValidFrom      time.Time
}

func (s *AddressService) requirePerson(ctx context.Context, personID id.PersonID) error {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return err
	}
	if _, err := s.persons.FindByID(ctx, tenantID, personID); err != nil {
		return wrapPersonErr(err)
	}
	return nil
}

// RegisterAddress records the first address of a type for a person. Use
// MoveAddress when an open row of the same type already exists.
func (s *AddressService) RegisterAddress(ctx context.Context, personID id.PersonID, params RegisterAddressParams) (*models.Address, error) {
	if err := s.requirePerson(ctx, personID); err != nil {
		return nil, err
	}

	today := requestcontext.Today(ctx)
	if _, err := s.addresses.CurrentByType(ctx, personID, params.AddressType, today); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "person already has an open address of this type, use a move instead")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "address store failure")
	}

	a, err := s.newAddress(ctx, personID, params)
	if err != nil {
		return nil, err
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store address")
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionAddressRegistered, Entity: "address", EntityID: a.ID.String(),
	})
	return a, nil
}

// MoveAddress closes the person's open address of the given type one day
// before the new validity starts and inserts the new row. Both writes commit
// atomically.
func (s *AddressService) MoveAddress(ctx context.Context, personID id.PersonID, params RegisterAddressParams) (*models.Address, error) {
	if err := s.requirePerson(ctx, personID); err != nil {
		return nil, err
	}

	today := requestcontext.Today(ctx)
	current, err := s.addresses.CurrentByType(ctx, personID, params.AddressType, today)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person has no open address of this type, register one first")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "address store failure")
	}
	if !history.DateOf(params.ValidFrom).After(current.ValidFrom) {
		return nil, dErrors.New(dErrors.CodeValidation, "new address must start after the current one")
	}

	next, err := s.newAddress(ctx, personID, params)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.addresses.Close(txCtx, current.ID, history.DayBefore(params.ValidFrom)); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "address was closed concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close address")
		}
		if err := s.addresses.Create(txCtx, next); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditEmitter.emit(ctx, audit.Event{
		Action: audit.ActionAddressMoved, Entity: "address", EntityID: next.ID.String(),
		Details: map[string]string{"closed_address_id": current.ID.String()},
	})
	return next, nil
}

func (s *AddressService) newAddress(ctx context.Context, personID id.PersonID, params RegisterAddressParams) (*models.Address, error) {
	return models.NewAddress(models.NewAddressParams{
		PersonID:       personID,
		AddressType:    params.AddressType,
		Street:         params.Street,
		HouseNumber:    params.HouseNumber,
		AdditionalLine: params.AdditionalLine,
		PostalCode:     params.PostalCode,
		City:           params.City,
		Canton:         params.Canton,
		Country:        params.Country,
		ValidFrom:      params.ValidFrom,
		CreatedBy:      requestcontext.UserID(ctx),
	}, requestcontext.Now(ctx))
}

// ListAddresses returns all address rows of a person, newest first.
func (s *AddressService) ListAddresses(ctx context.Context, personID id.PersonID) ([]*models.Address, error) {
	if err := s.requirePerson(ctx, personID); err != nil {
		return nil, err
	}
	addresses, err := s.addresses.ListByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "address store failure")
	}
	return addresses, nil
}

// CurrentAddress returns the open address of the given type, if any.
func (s *AddressService) CurrentAddress(ctx context.Context, personID id.PersonID, addressType models.AddressType) (*models.Address, error) {
	if !addressType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown address type: %s", addressType)
	}
	if err := s.requirePerson(ctx, personID); err != nil {
		return nil, err
	}
	a, err := s.addresses.CurrentByType(ctx, personID, addressType, requestcontext.Today(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no current address of this type")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "address store failure")
	}
	return a, nil
}

package models

import (
	"time"

	"govinda/internal/history"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// Address is an effective-dated address row owned by a person.
//
// Addresses follow the simple temporal-row pattern, not the history ledger:
// a move closes the previous main address (ValidTo = move date) and inserts
// a new open row. No version counter; rows are only ever closed, never
// rewritten.
type Address struct {
	ID             id.AddressID `json:"id"`
	PersonID       id.PersonID  `json:"person_id"`
	AddressType    AddressType  `json:"address_type"`
	Street         string       `json:"street"`
	HouseNumber    string       `json:"house_number,omitempty"`
	AdditionalLine string       `json:"additional_line,omitempty"`
	PostalCode     string       `json:"postal_code"`
	City           string       `json:"city"`
	Canton         string       `json:"canton"`
	Country        string       `json:"country"`
	ValidFrom      time.Time    `json:"valid_from"`
	ValidTo        *time.Time   `json:"valid_to,omitempty"`
	RecordedAt     time.Time    `json:"recorded_at"`
	CreatedBy      id.UserID    `json:"created_by"`
}

// NewAddressParams carries the fields for registering an address.
type NewAddressParams struct {
	PersonID       id.PersonID
	AddressType    AddressType
	Street         string
	HouseNumber    string
	AdditionalLine string
	PostalCode     string
	City           string
	Canton         string
	Country        string
	ValidFrom      time.Time
	CreatedBy      id.UserID
}

// NewAddress validates and constructs an open-ended address row.
func NewAddress(p NewAddressParams, now time.Time) (*Address, error) {
	if !p.AddressType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown address type: %s", p.AddressType)
	}
	if isBlank(p.Street) {
		return nil, dErrors.New(dErrors.CodeValidation, "street must not be blank")
	}
	if isBlank(p.PostalCode) {
		return nil, dErrors.New(dErrors.CodeValidation, "postal code must not be blank")
	}
	if isBlank(p.City) {
		return nil, dErrors.New(dErrors.CodeValidation, "city must not be blank")
	}
	if !ValidCanton(p.Canton) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown canton: %s", p.Canton)
	}
	country := p.Country
	if country == "" {
		country = "CHE"
	}
	return &Address{
		ID:             id.NewAddressID(),
		PersonID:       p.PersonID,
		AddressType:    p.AddressType,
		Street:         p.Street,
		HouseNumber:    p.HouseNumber,
		AdditionalLine: p.AdditionalLine,
		PostalCode:     p.PostalCode,
		City:           p.City,
		Canton:         p.Canton,
		Country:        country,
		ValidFrom:      history.DateOf(p.ValidFrom),
		RecordedAt:     now,
		CreatedBy:      p.CreatedBy,
	}, nil
}

// IsCurrent reports whether the address is still open or ends today or later.
func (a *Address) IsCurrent(today time.Time) bool {
	return a.ValidTo == nil || !a.ValidTo.Before(history.DateOf(today))
}

// IsValidOn reports whether the address was valid on the given date.
func (a *Address) IsValidOn(date time.Time) bool {
	d := history.DateOf(date)
	if a.ValidFrom.After(d) {
		return false
	}
	if a.ValidTo != nil && a.ValidTo.Before(d) {
		return false
	}
	return true
}

// Close ends the address validity on the given date (inclusive).
func (a *Address) Close(endDate time.Time) error {
	d := history.DateOf(endDate)
	if d.Before(a.ValidFrom) {
		return dErrors.New(dErrors.CodeValidation, "end date cannot be before start date")
	}
	a.ValidTo = &d
	return nil
}

// FormattedLines returns the address as postal lines.
func (a *Address) FormattedLines() []string {
	street := a.Street
	if a.HouseNumber != "" {
		street += " " + a.HouseNumber
	}
	lines := []string{street}
	if a.AdditionalLine != "" {
		lines = append(lines, a.AdditionalLine)
	}
	return append(lines, a.PostalCode+" "+a.City)
}

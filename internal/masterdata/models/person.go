package models

import (
	"time"

	"govinda/internal/history"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// Person is the live record of an insured individual.
//
// Invariants:
//   - LastName and FirstName are never blank
//   - DateOfBirth is never in the future
//   - ID and TenantID are immutable after construction
//   - Version is incremented by the store on every persisted write; a stale
//     in-memory version must surface sentinel.ErrVersionMismatch, never a
//     silent overwrite
//
// Name and marital status are historized: mutating them produces a
// PersonHistoryEntry snapshotting the state being replaced. Nationality and
// preferred language are plain overwrites with no ledger entry.
//
// Mutation methods are side-effect-free with respect to persistence. They
// validate, build the outgoing history entry, overwrite in-memory fields and
// return the entry; the service persists both in one transaction.
type Person struct {
	ID                id.PersonID   `json:"id"`
	TenantID          id.TenantID   `json:"tenant_id"`
	AhvNr             AhvNumber     `json:"ahv_nr"`
	LastName          string        `json:"last_name"`
	FirstName         string        `json:"first_name"`
	DateOfBirth       time.Time     `json:"date_of_birth"`
	Gender            Gender        `json:"gender"`
	MaritalStatus     MaritalStatus `json:"marital_status"`
	Nationality       string        `json:"nationality"`
	PreferredLanguage Language      `json:"preferred_language"`
	Status            PersonStatus  `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	Version           int64         `json:"version"`
}

// NewPersonParams carries the fields needed to register a person.
type NewPersonParams struct {
	TenantID          id.TenantID
	AhvNr             AhvNumber
	LastName          string
	FirstName         string
	DateOfBirth       time.Time
	Gender            Gender
	MaritalStatus     MaritalStatus
	Nationality       string
	PreferredLanguage Language
}

// NewPerson constructs a person, enforcing the construction invariants.
// Nationality defaults to CHE and language to DE when omitted.
func NewPerson(p NewPersonParams, now time.Time) (*Person, error) {
	if isBlank(p.LastName) {
		return nil, dErrors.New(dErrors.CodeValidation, "last name must not be blank")
	}
	if isBlank(p.FirstName) {
		return nil, dErrors.New(dErrors.CodeValidation, "first name must not be blank")
	}
	if p.DateOfBirth.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "date of birth cannot be in the future")
	}
	nationality := p.Nationality
	if nationality == "" {
		nationality = "CHE"
	}
	language := p.PreferredLanguage
	if language == "" {
		language = LanguageDE
	}
	return &Person{
		ID:                id.NewPersonID(),
		TenantID:          p.TenantID,
		AhvNr:             p.AhvNr,
		LastName:          p.LastName,
		FirstName:         p.FirstName,
		DateOfBirth:       history.DateOf(p.DateOfBirth),
		Gender:            p.Gender,
		MaritalStatus:     p.MaritalStatus,
		Nationality:       nationality,
		PreferredLanguage: language,
		Status:            PersonActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// NameChange is the command for a historized name mutation.
type NameChange struct {
	LastName      string
	FirstName     string
	Reason        string
	EffectiveDate time.Time
	ChangedBy     id.UserID
}

// ChangeName replaces the person's name and returns the history entry
// snapshotting the outgoing name.
//
// The entry's ValidFrom is today's date (when the change was recorded), not
// the effective date of the value being replaced; its ValidTo is the day
// before the new name takes effect, so the closed window abuts the live
// state exactly. Returns a validation error, leaving the person untouched,
// when either new name part is blank.
func (p *Person) ChangeName(ch NameChange, now time.Time) (*PersonHistoryEntry, error) {
	if isBlank(ch.LastName) {
		return nil, dErrors.New(dErrors.CodeValidation, "new last name must not be blank")
	}
	if isBlank(ch.FirstName) {
		return nil, dErrors.New(dErrors.CodeValidation, "new first name must not be blank")
	}

	entry := p.snapshot(history.MutationUpdate, ch.Reason, ch.ChangedBy, now)
	entry.CloseAt(history.DayBefore(ch.EffectiveDate))

	p.LastName = ch.LastName
	p.FirstName = ch.FirstName
	p.UpdatedAt = now

	return entry, nil
}

// MaritalStatusChange is the command for a historized marital-status mutation.
type MaritalStatusChange struct {
	Status        MaritalStatus
	Reason        string
	EffectiveDate time.Time
	ChangedBy     id.UserID
}

// ChangeMaritalStatus replaces the marital status and returns the history
// entry snapshotting the outgoing state. Same windowing as ChangeName.
func (p *Person) ChangeMaritalStatus(ch MaritalStatusChange, now time.Time) (*PersonHistoryEntry, error) {
	if !ch.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown marital status: %s", ch.Status)
	}

	entry := p.snapshot(history.MutationUpdate, ch.Reason, ch.ChangedBy, now)
	entry.CloseAt(history.DayBefore(ch.EffectiveDate))

	p.MaritalStatus = ch.Status
	p.UpdatedAt = now

	return entry, nil
}

// snapshot captures the current historized fields as a ledger entry with an
// open validity window starting today.
func (p *Person) snapshot(mt history.MutationType, reason string, changedBy id.UserID, now time.Time) *PersonHistoryEntry {
	return &PersonHistoryEntry{
		Meta:          history.NewMeta(mt, reason, changedBy, now, now),
		PersonID:      p.ID,
		LastName:      p.LastName,
		FirstName:     p.FirstName,
		MaritalStatus: p.MaritalStatus,
	}
}

// SetStatus moves the person to a new lifecycle status.
func (p *Person) SetStatus(status PersonStatus, now time.Time) error {
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown person status: %s", status)
	}
	p.Status = status
	p.UpdatedAt = now
	return nil
}

// FullName returns "First Last" for display.
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AgeAt computes the person's age in full years at the given date.
func (p *Person) AgeAt(date time.Time) int {
	d := history.DateOf(date)
	years := d.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(d) {
		years--
	}
	return years
}

// AgeGroupAt returns the premium age category at the given date.
func (p *Person) AgeGroupAt(date time.Time) AgeGroup {
	return AgeGroupForAge(p.AgeAt(date))
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

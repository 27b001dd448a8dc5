package models

import (
	"time"

	"govinda/internal/history"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// PersonHistoryEntry is one row of the person ledger: the bitemporal metadata
// block plus the pre-mutation snapshot of the historized fields.
//
// Entries reference the owning person by ID only; there is no back-pointer
// from the person to its ledger. The live person state has no row here — the
// ledger stores superseded states exclusively.
type PersonHistoryEntry struct {
	history.Meta
	PersonID      id.PersonID   `json:"person_id"`
	LastName      string        `json:"last_name"`
	FirstName     string        `json:"first_name"`
	MaritalStatus MaritalStatus `json:"marital_status"`
}

// HistoryCorrection carries the replacement snapshot for a retroactive fix.
// Zero-valued fields keep the original snapshot's value.
type HistoryCorrection struct {
	LastName      string
	FirstName     string
	MaritalStatus MaritalStatus
	Reason        string
	ChangedBy     id.UserID
}

// Correct supersedes this entry and returns the replacement CORRECTION row.
//
// The original row stays in the ledger with SupersededAt set; the correction
// inherits the original validity window so the timeline's shape is unchanged,
// only its content. Returns an error if the entry was already superseded.
func (e *PersonHistoryEntry) Correct(c HistoryCorrection, now time.Time) (*PersonHistoryEntry, error) {
	if e.IsSuperseded() {
		return nil, dErrors.New(dErrors.CodeConflict, "history entry is already superseded")
	}

	corrected := &PersonHistoryEntry{
		Meta: history.Meta{
			HistoryID:    id.NewHistoryID(),
			ValidFrom:    e.ValidFrom,
			RecordedAt:   now,
			MutationType: history.MutationCorrection,
			Reason:       c.Reason,
			ChangedBy:    c.ChangedBy,
		},
		PersonID:      e.PersonID,
		LastName:      e.LastName,
		FirstName:     e.FirstName,
		MaritalStatus: e.MaritalStatus,
	}
	if e.ValidTo != nil {
		validTo := *e.ValidTo
		corrected.ValidTo = &validTo
	}
	if c.LastName != "" {
		corrected.LastName = c.LastName
	}
	if c.FirstName != "" {
		corrected.FirstName = c.FirstName
	}
	if c.MaritalStatus != "" {
		if !c.MaritalStatus.Valid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown marital status: %s", c.MaritalStatus)
		}
		corrected.MaritalStatus = c.MaritalStatus
	}

	e.Supersede(now)
	return corrected, nil
}

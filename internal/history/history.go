// Package history holds the shared bitemporal metadata block for history
// ledger entries.
//
// Aggregates that track superseded state (persons today, further aggregates
// as they grow ledgers) embed Meta in their entity-specific history entry and
// store the pre-mutation snapshot next to it. Two time axes are tracked
// independently:
//
//   - business time: ValidFrom/ValidTo bound the window in which the
//     snapshot was true in the real world
//   - transaction time: RecordedAt/SupersededAt bound the window in which
//     the system believed the snapshot
//
// Entries are append-only. The only permitted update is setting SupersededAt
// during a correction; nothing is ever deleted.
package history

import (
	"time"

	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// MutationType classifies why a history entry was written.
type MutationType string

const (
	MutationCreate       MutationType = "CREATE"
	MutationUpdate       MutationType = "UPDATE"
	MutationCorrection   MutationType = "CORRECTION"
	MutationCancellation MutationType = "CANCELLATION"
)

// Valid reports whether t is a known mutation type.
func (t MutationType) Valid() bool {
	switch t {
	case MutationCreate, MutationUpdate, MutationCorrection, MutationCancellation:
		return true
	}
	return false
}

// ParseMutationType validates a wire value.
func ParseMutationType(s string) (MutationType, error) {
	t := MutationType(s)
	if !t.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown mutation type: %s", s)
	}
	return t, nil
}

// Meta is the metadata block shared by all history entries.
//
// ValidFrom and ValidTo are calendar dates (UTC midnight); RecordedAt and
// SupersededAt are instants. A nil ValidTo means the window was still open
// when the entry was written; a nil SupersededAt means the entry is the
// believed truth for its window.
type Meta struct {
	HistoryID    id.HistoryID `json:"history_id"`
	ValidFrom    time.Time    `json:"valid_from"`
	ValidTo      *time.Time   `json:"valid_to,omitempty"`
	RecordedAt   time.Time    `json:"recorded_at"`
	SupersededAt *time.Time   `json:"superseded_at,omitempty"`
	MutationType MutationType `json:"mutation_type"`
	Reason       string       `json:"mutation_reason,omitempty"`
	ChangedBy    id.UserID    `json:"changed_by"`
}

// NewMeta stamps a fresh metadata block. validFrom is the business date the
// snapshot is recorded for; now becomes the immutable RecordedAt.
func NewMeta(mutationType MutationType, reason string, changedBy id.UserID, validFrom, now time.Time) Meta {
	return Meta{
		HistoryID:    id.NewHistoryID(),
		ValidFrom:    DateOf(validFrom),
		RecordedAt:   now,
		MutationType: mutationType,
		Reason:       reason,
		ChangedBy:    changedBy,
	}
}

// CloseAt ends the business validity window on the given date (inclusive).
func (m *Meta) CloseAt(validTo time.Time) {
	d := DateOf(validTo)
	m.ValidTo = &d
}

// Supersede marks the entry as corrected at the given instant. The row stays
// in the ledger; temporal queries skip it.
func (m *Meta) Supersede(at time.Time) {
	m.SupersededAt = &at
}

// IsSuperseded reports whether a correction has invalidated this entry.
func (m *Meta) IsSuperseded() bool { return m.SupersededAt != nil }

// Covers reports whether the business validity window contains the date.
func (m *Meta) Covers(date time.Time) bool {
	d := DateOf(date)
	if m.ValidFrom.After(d) {
		return false
	}
	if m.ValidTo != nil && m.ValidTo.Before(d) {
		return false
	}
	return true
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date. Convenient in tests and fixtures.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayBefore returns the date one day before the given date. Mutations use it
// to close the outgoing window so old and new validity abut without gap or
// overlap.
func DayBefore(date time.Time) time.Time {
	return DateOf(date).AddDate(0, 0, -1)
}

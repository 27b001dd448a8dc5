package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govinda/internal/history"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

func closedEntry(t *testing.T) *PersonHistoryEntry {
	t.Helper()
	p := newTestPerson(t)
	entry, err := p.ChangeName(NameChange{
		LastName:      "Keller",
		FirstName:     "Hans",
		Reason:        "Marriage",
		EffectiveDate: history.Date(2024, time.September, 1),
		ChangedBy:     id.NewUserID(),
	}, testNow)
	require.NoError(t, err)
	return entry
}

func TestCorrectSupersedesOriginal(t *testing.T) {
	entry := closedEntry(t)
	corrector := id.NewUserID()
	at := testNow.Add(48 * time.Hour)

	corrected, err := entry.Correct(HistoryCorrection{
		LastName:  "Mueller",
		Reason:    "umlaut transcription error",
		ChangedBy: corrector,
	}, at)
	require.NoError(t, err)

	// Original is kept, marked superseded.
	require.NotNil(t, entry.SupersededAt)
	assert.Equal(t, at, *entry.SupersededAt)
	assert.Equal(t, "Müller", entry.LastName, "original snapshot unchanged")

	// Correction replaces content, inherits the window.
	assert.Equal(t, history.MutationCorrection, corrected.MutationType)
	assert.Equal(t, "Mueller", corrected.LastName)
	assert.Equal(t, "Hans", corrected.FirstName, "unspecified fields carried over")
	assert.Equal(t, entry.ValidFrom, corrected.ValidFrom)
	require.NotNil(t, corrected.ValidTo)
	assert.Equal(t, *entry.ValidTo, *corrected.ValidTo)
	assert.NotEqual(t, entry.HistoryID, corrected.HistoryID)
	assert.Equal(t, corrector, corrected.ChangedBy)
	assert.Nil(t, corrected.SupersededAt)
}

func TestCorrectTwiceRejected(t *testing.T) {
	entry := closedEntry(t)
	_, err := entry.Correct(HistoryCorrection{LastName: "A", ChangedBy: id.NewUserID()}, testNow)
	require.NoError(t, err)

	_, err = entry.Correct(HistoryCorrection{LastName: "B", ChangedBy: id.NewUserID()}, testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCorrectRejectsUnknownMaritalStatus(t *testing.T) {
	entry := closedEntry(t)
	_, err := entry.Correct(HistoryCorrection{MaritalStatus: "UNKNOWN", ChangedBy: id.NewUserID()}, testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Nil(t, entry.SupersededAt, "failed correction must not supersede")
}

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

func newTestHousehold(t *testing.T) *Household {
	t.Helper()
	h, err := NewHousehold(id.NewTenantID(), "Familie Müller", testNow)
	require.NoError(t, err)
	return h
}

func TestNewHousehold(t *testing.T) {
	h := newTestHousehold(t)
	assert.False(t, h.ID.IsNil())
	assert.Empty(t, h.Members)

	_, err := NewHousehold(id.NewTenantID(), " ", testNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestAddMemberInvariants(t *testing.T) {
	from := history.Date(2024, time.January, 1)

	t.Run("single primary only", func(t *testing.T) {
		h := newTestHousehold(t)
		require.NoError(t, h.AddMember(id.NewPersonID(), RolePrimary, from, testNow))

		err := h.AddMember(id.NewPersonID(), RolePrimary, from, testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("single partner only", func(t *testing.T) {
		h := newTestHousehold(t)
		require.NoError(t, h.AddMember(id.NewPersonID(), RolePartner, from, testNow))

		err := h.AddMember(id.NewPersonID(), RolePartner, from, testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("person only once", func(t *testing.T) {
		h := newTestHousehold(t)
		person := id.NewPersonID()
		require.NoError(t, h.AddMember(person, RolePrimary, from, testNow))

		err := h.AddMember(person, RoleChild, from, testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("multiple children allowed", func(t *testing.T) {
		h := newTestHousehold(t)
		require.NoError(t, h.AddMember(id.NewPersonID(), RoleChild, from, testNow))
		require.NoError(t, h.AddMember(id.NewPersonID(), RoleChild, from, testNow))
		assert.Equal(t, 2, h.ChildCount(testNow))
	})
}

func TestRemoveMemberClosesWindow(t *testing.T) {
	h := newTestHousehold(t)
	person := id.NewPersonID()
	require.NoError(t, h.AddMember(person, RolePrimary, history.Date(2024, time.January, 1), testNow))

	// Closing in the past makes the membership non-current.
	require.NoError(t, h.RemoveMember(person, history.Date(2024, time.June, 30), testNow))
	assert.Nil(t, h.PrimaryMember(testNow))
	assert.Len(t, h.Members, 1, "membership row is kept, only closed")

	// A new primary can join after the old one left.
	require.NoError(t, h.AddMember(id.NewPersonID(), RolePrimary, history.Date(2024, time.July, 1), testNow))

	err := h.RemoveMember(person, testNow, testNow)
	require.Error(t, err, "already removed")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govinda/internal/history"
	id "govinda/pkg/domain"
)

func newTestAddress(t *testing.T, validFrom time.Time) *Address {
	t.Helper()
	a, err := NewAddress(NewAddressParams{
		PersonID:    id.NewPersonID(),
		AddressType: AddressMain,
		Street:      "Bahnhofstrasse",
		HouseNumber: "12",
		PostalCode:  "8001",
		City:        "Zürich",
		Canton:      "ZH",
		ValidFrom:   validFrom,
		CreatedBy:   id.NewUserID(),
	}, testNow)
	require.NoError(t, err)
	return a
}

func TestNewAddressValidation(t *testing.T) {
	params := NewAddressParams{
		PersonID:    id.NewPersonID(),
		AddressType: AddressMain,
		Street:      "Bahnhofstrasse",
		PostalCode:  "8001",
		City:        "Zürich",
		Canton:      "ZH",
		ValidFrom:   testNow,
	}

	t.Run("defaults country", func(t *testing.T) {
		a, err := NewAddress(params, testNow)
		require.NoError(t, err)
		assert.Equal(t, "CHE", a.Country)
	})

	t.Run("rejects blank street", func(t *testing.T) {
		p := params
		p.Street = " "
		_, err := NewAddress(p, testNow)
		assert.Error(t, err)
	})

	t.Run("rejects unknown canton", func(t *testing.T) {
		p := params
		p.Canton = "XX"
		_, err := NewAddress(p, testNow)
		assert.Error(t, err)
	})
}

func TestAddressValidity(t *testing.T) {
	a := newTestAddress(t, history.Date(2024, time.January, 10))

	assert.True(t, a.IsCurrent(testNow))
	assert.True(t, a.IsValidOn(history.Date(2024, time.January, 10)))
	assert.False(t, a.IsValidOn(history.Date(2024, time.January, 9)))

	require.NoError(t, a.Close(history.Date(2024, time.June, 30)))
	assert.True(t, a.IsValidOn(history.Date(2024, time.June, 30)), "validTo inclusive")
	assert.False(t, a.IsValidOn(history.Date(2024, time.July, 1)))
	assert.False(t, a.IsCurrent(testNow))

	assert.Error(t, a.Close(history.Date(2024, time.January, 1)), "end before start")
}

func TestFormattedLines(t *testing.T) {
	a := newTestAddress(t, testNow)
	assert.Equal(t, []string{"Bahnhofstrasse 12", "8001 Zürich"}, a.FormattedLines())

	a.AdditionalLine = "c/o Keller"
	assert.Equal(t, []string{"Bahnhofstrasse 12", "c/o Keller", "8001 Zürich"}, a.FormattedLines())
}

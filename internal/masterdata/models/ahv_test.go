package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAhvNumber(t *testing.T) {
	t.Run("accepts dotted format", func(t *testing.T) {
		n, err := ParseAhvNumber("756.1234.5678.90")
		require.NoError(t, err)
		assert.Equal(t, "756.1234.5678.90", n.String())
		assert.Equal(t, "7561234567890", n.Unformatted())
	})

	t.Run("rejects bad formats", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"756.1234.5678.9",
			"755.1234.5678.90", // wrong country prefix
			"7561234567890",
			"756-1234-5678-90",
			"756.12a4.5678.90",
		} {
			_, err := ParseAhvNumber(bad)
			assert.Error(t, err, "input %q", bad)
		}
	})
}

func TestAhvNumberFromDigits(t *testing.T) {
	n, err := AhvNumberFromDigits("7561234567890")
	require.NoError(t, err)
	assert.Equal(t, AhvNumber("756.1234.5678.90"), n)

	_, err = AhvNumberFromDigits("756123456789")
	assert.Error(t, err, "too short")

	_, err = AhvNumberFromDigits("756123456789x")
	assert.Error(t, err, "non-digit")
}

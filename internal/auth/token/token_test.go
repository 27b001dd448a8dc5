package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govinda/internal/auth/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

var tokenNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func testUser() *models.User {
	return &models.User{
		ID:       id.NewUserID(),
		TenantID: id.NewTenantID(),
		Email:    "hans.mueller@example.ch",
		Role:     models.RoleClerk,
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)
	u := testUser()

	signed, err := svc.Issue(u, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.TenantID, claims.TenantID)
	assert.Equal(t, "CLERK", claims.Role)
	assert.NotEmpty(t, claims.JTI)
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)

	signed, err := svc.Issue(testUser(), tokenNow.Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateWrongKey(t *testing.T) {
	signed, err := NewService("key-one", time.Hour).Issue(testUser(), time.Now())
	require.NoError(t, err)

	_, err = NewService("key-two", time.Hour).ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestFreshJTIPerToken(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)
	u := testUser()

	first, err := svc.Issue(u, time.Now())
	require.NoError(t, err)
	second, err := svc.Issue(u, time.Now())
	require.NoError(t, err)

	firstClaims, err := svc.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.JTI, secondClaims.JTI)
}

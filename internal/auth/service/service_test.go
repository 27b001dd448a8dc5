package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govinda/internal/audit"
	"govinda/internal/auth/models"
	"govinda/internal/auth/store/revocation"
	"govinda/internal/auth/store/user"
	"govinda/internal/auth/token"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/requestcontext"
)

// Token expiry is validated against the wall clock, so this suite pins the
// request time to now instead of a fixed date.
var svcNow = time.Now().UTC().Truncate(time.Second)

type AuthServiceSuite struct {
	suite.Suite
	tokens     *token.Service
	revocation *revocation.InMemory
	auditStore *audit.InMemoryStore
	svc        *Service
	ctx        context.Context
	tenant     id.TenantID
}

func (s *AuthServiceSuite) SetupTest() {
	s.tokens = token.NewService("test-signing-key", time.Hour)
	s.revocation = revocation.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()
	s.svc = New(user.NewInMemory(), s.tokens, s.revocation,
		WithAuditPublisher(audit.NewPublisher(s.auditStore, nil)))

	s.tenant = id.NewTenantID()
	ctx := requestcontext.WithTenantID(context.Background(), s.tenant)
	s.ctx = requestcontext.WithTime(ctx, svcNow)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) registerClerk() *models.User {
	u, err := s.svc.RegisterUser(s.ctx, RegisterUserParams{
		Email:    "hans.mueller@example.ch",
		Password: "correct-horse",
		Role:     models.RoleClerk,
	})
	s.Require().NoError(err)
	return u
}

func (s *AuthServiceSuite) TestRegisterUser() {
	s.Run("registers and derives names", func() {
		u := s.registerClerk()
		s.Equal("hans.mueller@example.ch", u.Email)
		s.Equal("Hans", u.FirstName)
		s.Equal("Mueller", u.LastName)
		s.Equal(models.RoleClerk, u.Role)
		s.NotEqual("correct-horse", u.PasswordHash)
	})

	s.Run("rejects duplicate email case-insensitively", func() {
		_, err := s.svc.RegisterUser(s.ctx, RegisterUserParams{
			Email:    "Hans.Mueller@example.ch",
			Password: "another-pass",
			Role:     models.RoleAdmin,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects invalid role", func() {
		_, err := s.svc.RegisterUser(s.ctx, RegisterUserParams{
			Email:    "vreni@example.ch",
			Password: "long-enough",
			Role:     "SUPERUSER",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects short password", func() {
		_, err := s.svc.RegisterUser(s.ctx, RegisterUserParams{
			Email:    "vreni@example.ch",
			Password: "short",
			Role:     models.RoleClerk,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects missing tenant", func() {
		_, err := s.svc.RegisterUser(context.Background(), RegisterUserParams{
			Email:    "vreni@example.ch",
			Password: "long-enough",
			Role:     models.RoleClerk,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestSameEmailAcrossTenants() {
	s.registerClerk()

	other := requestcontext.WithTenantID(context.Background(), id.NewTenantID())
	other = requestcontext.WithTime(other, svcNow)
	_, err := s.svc.RegisterUser(other, RegisterUserParams{
		Email:    "hans.mueller@example.ch",
		Password: "correct-horse",
		Role:     models.RoleClerk,
	})
	s.NoError(err, "email uniqueness is per tenant")
}

func (s *AuthServiceSuite) TestLogin() {
	u := s.registerClerk()

	s.Run("issues a token for valid credentials", func() {
		result, err := s.svc.Login(s.ctx, s.tenant, "hans.mueller@example.ch", "correct-horse")
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
		s.Equal(svcNow.Add(time.Hour), result.ExpiresAt)
		s.Equal(u.ID, result.User.ID)

		claims, err := s.tokens.ValidateToken(result.Token)
		s.Require().NoError(err)
		s.Equal(u.ID, claims.UserID)
		s.Equal(s.tenant, claims.TenantID)
	})

	s.Run("rejects wrong password", func() {
		_, err := s.svc.Login(s.ctx, s.tenant, "hans.mueller@example.ch", "wrong-pass")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects unknown email with the same error", func() {
		_, err := s.svc.Login(s.ctx, s.tenant, "nobody@example.ch", "correct-horse")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})

	s.Run("rejects credentials from another tenant", func() {
		_, err := s.svc.Login(s.ctx, id.NewTenantID(), "hans.mueller@example.ch", "correct-horse")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestLogout() {
	s.registerClerk()
	result, err := s.svc.Login(s.ctx, s.tenant, "hans.mueller@example.ch", "correct-horse")
	s.Require().NoError(err)

	claims, err := s.tokens.ValidateToken(result.Token)
	s.Require().NoError(err)

	revoked, err := s.revocation.IsTokenRevoked(s.ctx, claims.JTI)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.svc.Logout(s.ctx, claims.JTI))

	revoked, err = s.revocation.IsTokenRevoked(s.ctx, claims.JTI)
	s.Require().NoError(err)
	s.True(revoked)

	err = s.svc.Logout(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *AuthServiceSuite) TestGetUser() {
	u := s.registerClerk()

	found, err := s.svc.GetUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, found.Email)

	_, err = s.svc.GetUser(s.ctx, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	foreign := requestcontext.WithTenantID(context.Background(), id.NewTenantID())
	_, err = s.svc.GetUser(foreign, u.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AuthServiceSuite) TestAuditTrail() {
	u := s.registerClerk()
	_, err := s.svc.Login(s.ctx, s.tenant, "hans.mueller@example.ch", "correct-horse")
	s.Require().NoError(err)

	events, err := s.auditStore.ListByEntity(s.ctx, s.tenant, "user", u.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionUserRegistered, events[0].Action)
	s.Equal(audit.ActionUserLoggedIn, events[1].Action)
}

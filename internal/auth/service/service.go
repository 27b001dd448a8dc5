// Package service orchestrates user registration, login and logout.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"govinda/internal/audit"
	"govinda/internal/auth/models"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/requestcontext"
)

// UserStore is the persistence boundary for users.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *models.User, now time.Time) (string, error)
	TTL() time.Duration
}

// RevocationStore blocks revoked JTIs until token expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuditPublisher records auth events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// Service orchestrates authentication operations.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	revocation RevocationStore
	logger     *slog.Logger
	audit      AuditPublisher
}

func New(users UserStore, tokens TokenIssuer, revocation RevocationStore, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, revocation: revocation}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	s.logger.InfoContext(ctx, event.Action,
		"entity", event.Entity, "entity_id", event.EntityID, "log_type", "audit")
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func tenantFrom(ctx context.Context) (id.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return id.TenantID{}, dErrors.New(dErrors.CodeUnauthorized, "no tenant in request context")
	}
	return tenantID, nil
}

func wrapUserErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}

type RegisterUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// RegisterUser creates a user in the caller's tenant. Route-level role
// checks restrict this to admins.
func (s *Service) RegisterUser(ctx context.Context, params RegisterUserParams) (*models.User, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	u, err := models.NewUser(models.NewUserParams{
		TenantID:  tenantID,
		Email:     params.Email,
		Password:  params.Password,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      params.Role,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, wrapUserErr(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionUserRegistered, Entity: "user", EntityID: u.ID.String(),
		Details: map[string]string{"email": u.Email, "role": string(u.Role)},
	})
	return u, nil
}

// LoginResult carries the signed token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies the credentials and issues a token. Unknown email and wrong
// password return the same error so the response does not leak which one
// failed.
func (s *Service) Login(ctx context.Context, tenantID id.TenantID, emailAddr, password string) (*LoginResult, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant id is required")
	}

	u, err := s.users.FindByEmail(ctx, tenantID, emailAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, wrapUserErr(err)
	}
	if !u.CheckPassword(password) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	signed, err := s.tokens.Issue(u, now)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionUserLoggedIn, Entity: "user", EntityID: u.ID.String(),
		TenantID: tenantID, UserID: u.ID,
	})
	return &LoginResult{
		Token:     signed,
		ExpiresAt: now.Add(s.tokens.TTL()),
		User:      u,
	}, nil
}

// Logout revokes the token's JTI for the remaining token lifetime.
func (s *Service) Logout(ctx context.Context, jti string) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no token to revoke")
	}
	if err := s.revocation.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke token")
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionUserLoggedOut, Entity: "user",
		EntityID: requestcontext.UserID(ctx).String(),
	})
	return nil
}

// GetUser fetches a user within the caller's tenant.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// Package handler exposes the authentication HTTP API. Login is the only
// public route; logout and user management require a valid token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govinda/internal/auth/models"
	"govinda/internal/auth/service"
	"govinda/internal/platform/middleware"
	"govinda/internal/transport/http/shared"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// Service defines the auth operations the handler depends on.
type Service interface {
	RegisterUser(ctx context.Context, params service.RegisterUserParams) (*models.User, error)
	Login(ctx context.Context, tenantID id.TenantID, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, jti string) error
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
}

type Handler struct {
	logger *slog.Logger
	auth   Service
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth}
}

// RegisterPublic mounts the unauthenticated login route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// Register mounts the authenticated auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
}

// RegisterUsers mounts the tenant-scoped user management routes. User
// registration is restricted to admins at the route level.
func (h *Handler) RegisterUsers(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireRole(string(models.RoleAdmin))).Post("/", h.handleRegisterUser)
		r.Get("/{userID}", h.handleGetUser)
	})
}

type loginRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      userResponse `json:"user"`
}

type registerUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
}

type userResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		TenantID:  u.TenantID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	// The tenant may come from the body or the scoping header.
	rawTenant := req.TenantID
	if rawTenant == "" {
		rawTenant = r.Header.Get("X-Tenant-ID")
	}
	tenantID, err := id.ParseTenantID(rawTenant)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return
	}

	result, err := h.auth.Login(r.Context(), tenantID, req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
		User:      toUserResponse(result.User),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.JTIFrom(r.Context())); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	u, err := h.auth.RegisterUser(r.Context(), service.RegisterUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}

	u, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

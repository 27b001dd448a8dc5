// Package handler exposes the tenant administration HTTP API. These routes
// are operator-facing and sit behind the admin token middleware, not behind
// tenant-scoped auth.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govinda/internal/tenant/models"
	"govinda/internal/transport/http/shared"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// Service defines the tenant operations the handler depends on.
type Service interface {
	CreateTenant(ctx context.Context, name string) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
}

type Handler struct {
	logger  *slog.Logger
	tenants Service
}

func New(tenants Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, tenants: tenants}
}

// Register mounts the tenant admin routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", h.handleCreateTenant)
		r.Get("/", h.handleListTenants)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", h.handleGetTenant)
			r.Post("/deactivate", h.handleDeactivate)
			r.Post("/reactivate", h.handleReactivate)
		})
	})
}

type createTenantRequest struct {
	Name string `json:"name"`
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTenantResponse(t *models.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

func tenantIDFrom(r *http.Request) (id.TenantID, error) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		return id.TenantID{}, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id")
	}
	return tenantID, nil
}

func (h *Handler) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.tenants.CreateTenant(r.Context(), req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toTenantResponse(t))
}

func (h *Handler) handleListTenants(w http.ResponseWriter, r *http.Request) {
	found, err := h.tenants.ListTenants(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]tenantResponse, 0, len(found))
	for _, t := range found {
		out = append(out, toTenantResponse(t))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.tenants.DeactivateTenant(r.Context(), tenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	t, err := h.tenants.ReactivateTenant(r.Context(), tenantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

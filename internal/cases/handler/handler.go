// Package handler exposes the case tracking HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govinda/internal/cases/models"
	"govinda/internal/cases/service"
	"govinda/internal/transport/http/shared"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// Service defines the case operations the handler depends on.
type Service interface {
	OpenCase(ctx context.Context, params service.OpenCaseParams) (*models.Case, error)
	GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	ListCases(ctx context.Context) ([]*models.Case, error)
	ListCasesOfPerson(ctx context.Context, personID id.PersonID) ([]*models.Case, error)
	TransitionCase(ctx context.Context, caseID id.CaseID, status models.CaseStatus) (*models.Case, error)
	AssignCase(ctx context.Context, caseID id.CaseID, assignee id.UserID) (*models.Case, error)
}

// Handler serves the case endpoints.
type Handler struct {
	logger *slog.Logger
	cases  Service
}

func New(cases Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, cases: cases}
}

// Register mounts the case routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Post("/", h.handleOpenCase)
		r.Get("/", h.handleListCases)
		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", h.handleGetCase)
			r.Post("/status", h.handleTransition)
			r.Post("/assign", h.handleAssign)
		})
	})
}

type openCaseRequest struct {
	PersonID    string `json:"person_id"`
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

type caseResponse struct {
	ID          string  `json:"id"`
	PersonID    string  `json:"person_id"`
	Type        string  `json:"type"`
	Subject     string  `json:"subject"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	Version     int64   `json:"version"`
}

func toCaseResponse(c *models.Case) caseResponse {
	resp := caseResponse{
		ID:          c.ID.String(),
		PersonID:    c.PersonID.String(),
		Type:        string(c.Type),
		Subject:     c.Subject,
		Description: c.Description,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
		Version:     c.Version,
	}
	if c.AssigneeID != nil {
		v := c.AssigneeID.String()
		resp.AssigneeID = &v
	}
	return resp
}

func toCaseListResponse(cs []*models.Case) []caseResponse {
	out := make([]caseResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCaseResponse(c))
	}
	return out
}

func caseIDFrom(r *http.Request) (id.CaseID, error) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		return id.CaseID{}, dErrors.New(dErrors.CodeBadRequest, "invalid case id")
	}
	return caseID, nil
}

func (h *Handler) handleOpenCase(w http.ResponseWriter, r *http.Request) {
	var req openCaseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	personID, err := id.ParsePersonID(req.PersonID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}

	c, err := h.cases.OpenCase(r.Context(), service.OpenCaseParams{
		PersonID:    personID,
		Type:        models.CaseType(req.Type),
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toCaseResponse(c))
}

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	var (
		found []*models.Case
		err   error
	)
	if raw := r.URL.Query().Get("person_id"); raw != "" {
		personID, parseErr := id.ParsePersonID(raw)
		if parseErr != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
			return
		}
		found, err = h.cases.ListCasesOfPerson(r.Context(), personID)
	} else {
		found, err = h.cases.ListCases(r.Context())
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCaseListResponse(found))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := caseIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.cases.GetCase(r.Context(), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	caseID, err := caseIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.cases.TransitionCase(r.Context(), caseID, models.CaseStatus(req.Status))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	caseID, err := caseIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req assignRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	assignee, err := id.ParseUserID(req.AssigneeID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid assignee id"))
		return
	}

	c, err := h.cases.AssignCase(r.Context(), caseID, assignee)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

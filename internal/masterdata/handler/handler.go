// Package handler exposes the master data HTTP API: persons with their
// effective-dated history, addresses and households.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/service"
	"govinda/internal/masterdata/store/person"
	"govinda/internal/transport/http/shared"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// PersonService defines the person operations the handler depends on.
type PersonService interface {
	CreatePerson(ctx context.Context, params service.CreatePersonParams) (*models.Person, error)
	GetPerson(ctx context.Context, personID id.PersonID) (*models.Person, error)
	GetPersonByAhv(ctx context.Context, ahvNr string) (*models.Person, error)
	SearchPersons(ctx context.Context, query person.Query) ([]*models.Person, error)
	UpdatePerson(ctx context.Context, personID id.PersonID, params service.UpdatePersonParams) (*models.Person, error)
	ChangeName(ctx context.Context, personID id.PersonID, change models.NameChange) (*models.Person, *models.PersonHistoryEntry, error)
	ChangeMaritalStatus(ctx context.Context, personID id.PersonID, change models.MaritalStatusChange) (*models.Person, *models.PersonHistoryEntry, error)
	DeactivatePerson(ctx context.Context, personID id.PersonID) (*models.Person, error)
	GetHistory(ctx context.Context, personID id.PersonID) ([]*models.PersonHistoryEntry, error)
	StateAt(ctx context.Context, personID id.PersonID, date time.Time) (*models.PersonHistoryEntry, error)
	CorrectHistory(ctx context.Context, personID id.PersonID, historyID id.HistoryID, correction models.HistoryCorrection) (*models.PersonHistoryEntry, error)
}

// AddressService defines the address operations the handler depends on.
type AddressService interface {
	RegisterAddress(ctx context.Context, personID id.PersonID, params service.RegisterAddressParams) (*models.Address, error)
	MoveAddress(ctx context.Context, personID id.PersonID, params service.RegisterAddressParams) (*models.Address, error)
	ListAddresses(ctx context.Context, personID id.PersonID) ([]*models.Address, error)
	CurrentAddress(ctx context.Context, personID id.PersonID, addressType models.AddressType) (*models.Address, error)
}

// HouseholdService defines the household operations the handler depends on.
type HouseholdService interface {
	CreateHousehold(ctx context.Context, name string) (*models.Household, error)
	GetHousehold(ctx context.Context, householdID id.HouseholdID) (*models.Household, error)
	GetHouseholdOfPerson(ctx context.Context, personID id.PersonID) (*models.Household, error)
	AddMember(ctx context.Context, householdID id.HouseholdID, personID id.PersonID, role models.HouseholdRole, validFrom time.Time) (*models.Household, error)
	RemoveMember(ctx context.Context, householdID id.HouseholdID, personID id.PersonID, validTo time.Time) (*models.Household, error)
}

// Handler serves the master data endpoints.
type Handler struct {
	logger     *slog.Logger
	persons    PersonService
	addresses  AddressService
	households HouseholdService
}

// New creates a master data Handler.
func New(persons PersonService, addresses AddressService, households HouseholdService, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		persons:    persons,
		addresses:  addresses,
		households: households,
	}
}

// Register mounts the master data routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/persons", func(r chi.Router) {
		r.Post("/", h.handleCreatePerson)
		r.Get("/", h.handleSearchPersons)
		r.Get("/by-ahv/{ahvNumber}", h.handleGetPersonByAhv)

		r.Route("/{personID}", func(r chi.Router) {
			r.Get("/", h.handleGetPerson)
			r.Patch("/", h.handleUpdatePerson)
			r.Post("/deactivate", h.handleDeactivatePerson)
			r.Post("/name", h.handleChangeName)
			r.Post("/marital-status", h.handleChangeMaritalStatus)
			r.Get("/history", h.handleGetHistory)
			r.Get("/state", h.handleStateAt)
			r.Post("/history/{historyID}/corrections", h.handleCorrectHistory)

			r.Post("/addresses", h.handleRegisterAddress)
			r.Post("/addresses/move", h.handleMoveAddress)
			r.Get("/addresses", h.handleListAddresses)
			r.Get("/addresses/current", h.handleCurrentAddress)

			r.Get("/household", h.handleHouseholdOfPerson)
		})
	})

	r.Route("/households", func(r chi.Router) {
		r.Post("/", h.handleCreateHousehold)
		r.Route("/{householdID}", func(r chi.Router) {
			r.Get("/", h.handleGetHousehold)
			r.Post("/members", h.handleAddMember)
			r.Delete("/members/{personID}", h.handleRemoveMember)
		})
	})
}

func personIDFrom(r *http.Request) (id.PersonID, error) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		return id.PersonID{}, dErrors.New(dErrors.CodeBadRequest, "invalid person id")
	}
	return personID, nil
}

func (h *Handler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.persons.CreatePerson(r.Context(), params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toPersonResponse(p))
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.persons.GetPerson(r.Context(), personID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (h *Handler) handleGetPersonByAhv(w http.ResponseWriter, r *http.Request) {
	p, err := h.persons.GetPersonByAhv(r.Context(), chi.URLParam(r, "ahvNumber"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (h *Handler) handleSearchPersons(w http.ResponseWriter, r *http.Request) {
	q := person.Query{
		Name:   r.URL.Query().Get("name"),
		Status: models.PersonStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		q.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer"))
			return
		}
		q.Offset = offset
	}

	persons, err := h.persons.SearchPersons(r.Context(), q)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPersonListResponse(persons))
}

func (h *Handler) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req updatePersonRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	params := service.UpdatePersonParams{Nationality: req.Nationality}
	if req.PreferredLanguage != nil {
		lang := models.Language(*req.PreferredLanguage)
		params.PreferredLanguage = &lang
	}

	p, err := h.persons.UpdatePerson(r.Context(), personID, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (h *Handler) handleDeactivatePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.persons.DeactivatePerson(r.Context(), personID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

type mutationResponse struct {
	Person  personResponse       `json:"person"`
	History historyEntryResponse `json:"history_entry"`
}

func (h *Handler) handleChangeName(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req changeNameRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	change, err := req.toChange()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, entry, err := h.persons.ChangeName(r.Context(), personID, change)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mutationResponse{
		Person:  toPersonResponse(p),
		History: toHistoryEntryResponse(entry),
	})
}

func (h *Handler) handleChangeMaritalStatus(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req changeMaritalStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	change, err := req.toChange()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, entry, err := h.persons.ChangeMaritalStatus(r.Context(), personID, change)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mutationResponse{
		Person:  toPersonResponse(p),
		History: toHistoryEntryResponse(entry),
	})
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.persons.GetHistory(r.Context(), personID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryListResponse(entries))
}

// handleStateAt answers "what did this person look like on date X". A 204
// means the person exists but no history window covers the date, so the
// live record applies.
func (h *Handler) handleStateAt(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"), "date")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entry, err := h.persons.StateAt(r.Context(), personID, date)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryEntryResponse(entry))
}

func (h *Handler) handleCorrectHistory(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	historyID, err := id.ParseHistoryID(chi.URLParam(r, "historyID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid history id"))
		return
	}

	var req correctHistoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	correction, err := req.toCorrection()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entry, err := h.persons.CorrectHistory(r.Context(), personID, historyID, correction)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toHistoryEntryResponse(entry))
}

func (h *Handler) handleRegisterAddress(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req addressRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	a, err := h.addresses.RegisterAddress(r.Context(), personID, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAddressResponse(a))
}

func (h *Handler) handleMoveAddress(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req addressRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	a, err := h.addresses.MoveAddress(r.Context(), personID, params)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAddressResponse(a))
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	addresses, err := h.addresses.ListAddresses(r.Context(), personID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAddressListResponse(addresses))
}

func (h *Handler) handleCurrentAddress(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	addressType := models.AddressType(r.URL.Query().Get("type"))
	if addressType == "" {
		addressType = models.AddressMain
	}

	a, err := h.addresses.CurrentAddress(r.Context(), personID, addressType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAddressResponse(a))
}

func (h *Handler) handleHouseholdOfPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := personIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	hh, err := h.households.GetHouseholdOfPerson(r.Context(), personID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHouseholdResponse(hh))
}

func (h *Handler) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	hh, err := h.households.CreateHousehold(r.Context(), req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toHouseholdResponse(hh))
}

func householdIDFrom(r *http.Request) (id.HouseholdID, error) {
	householdID, err := id.ParseHouseholdID(chi.URLParam(r, "householdID"))
	if err != nil {
		return id.HouseholdID{}, dErrors.New(dErrors.CodeBadRequest, "invalid household id")
	}
	return householdID, nil
}

func (h *Handler) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	householdID, err := householdIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	hh, err := h.households.GetHousehold(r.Context(), householdID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHouseholdResponse(hh))
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	householdID, err := householdIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req addMemberRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	personID, err := id.ParsePersonID(req.PersonID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	validFrom, err := parseDate(req.ValidFrom, "valid_from")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	hh, err := h.households.AddMember(r.Context(), householdID, personID, models.HouseholdRole(req.Role), validFrom)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHouseholdResponse(hh))
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	householdID, err := householdIDFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	validTo, err := parseDate(r.URL.Query().Get("valid_to"), "valid_to")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	hh, err := h.households.RemoveMember(r.Context(), householdID, personID, validTo)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHouseholdResponse(hh))
}

package handler

import (
	"time"

	"govinda/internal/masterdata/models"
)

type personResponse struct {
	ID                string `json:"id"`
	AhvNr             string `json:"ahv_nr"`
	LastName          string `json:"last_name"`
	FirstName         string `json:"first_name"`
	DateOfBirth       string `json:"date_of_birth"`
	Gender            string `json:"gender"`
	MaritalStatus     string `json:"marital_status"`
	Nationality       string `json:"nationality"`
	PreferredLanguage string `json:"preferred_language"`
	Status            string `json:"status"`
	Version           int64  `json:"version"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toPersonResponse(p *models.Person) personResponse {
	return personResponse{
		ID:                p.ID.String(),
		AhvNr:             p.AhvNr.String(),
		LastName:          p.LastName,
		FirstName:         p.FirstName,
		DateOfBirth:       p.DateOfBirth.Format(dateLayout),
		Gender:            string(p.Gender),
		MaritalStatus:     string(p.MaritalStatus),
		Nationality:       p.Nationality,
		PreferredLanguage: string(p.PreferredLanguage),
		Status:            string(p.Status),
		Version:           p.Version,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPersonListResponse(ps []*models.Person) []personResponse {
	out := make([]personResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPersonResponse(p))
	}
	return out
}

type historyEntryResponse struct {
	HistoryID     string  `json:"history_id"`
	PersonID      string  `json:"person_id"`
	LastName      string  `json:"last_name"`
	FirstName     string  `json:"first_name"`
	MaritalStatus string  `json:"marital_status"`
	ValidFrom     string  `json:"valid_from"`
	ValidTo       *string `json:"valid_to,omitempty"`
	RecordedAt    string  `json:"recorded_at"`
	SupersededAt  *string `json:"superseded_at,omitempty"`
	MutationType  string  `json:"mutation_type"`
	Reason        string  `json:"mutation_reason,omitempty"`
	ChangedBy     string  `json:"changed_by"`
}

func toHistoryEntryResponse(e *models.PersonHistoryEntry) historyEntryResponse {
	resp := historyEntryResponse{
		HistoryID:     e.HistoryID.String(),
		PersonID:      e.PersonID.String(),
		LastName:      e.LastName,
		FirstName:     e.FirstName,
		MaritalStatus: string(e.MaritalStatus),
		ValidFrom:     e.ValidFrom.Format(dateLayout),
		RecordedAt:    e.RecordedAt.Format(time.RFC3339),
		MutationType:  string(e.MutationType),
		Reason:        e.Reason,
		ChangedBy:     e.ChangedBy.String(),
	}
	if e.ValidTo != nil {
		v := e.ValidTo.Format(dateLayout)
		resp.ValidTo = &v
	}
	if e.SupersededAt != nil {
		v := e.SupersededAt.Format(time.RFC3339)
		resp.SupersededAt = &v
	}
	return resp
}

func toHistoryListResponse(entries []*models.PersonHistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryEntryResponse(e))
	}
	return out
}

type addressResponse struct {
	ID             string  `json:"id"`
	PersonID       string  `json:"person_id"`
	AddressType    string  `json:"address_type"`
	Street         string  `json:"street"`
	HouseNumber    string  `json:"house_number,omitempty"`
	AdditionalLine string  `json:"additional_line,omitempty"`
	PostalCode     string  `json:"postal_code"`
	City           string  `json:"city"`
	Canton         string  `json:"canton"`
	Country        string  `json:"country"`
	ValidFrom      string  `json:"valid_from"`
	ValidTo        *string `json:"valid_to,omitempty"`
}

func toAddressResponse(a *models.Address) addressResponse {
	resp := addressResponse{
		ID:             a.ID.String(),
		PersonID:       a.PersonID.String(),
		AddressType:    string(a.AddressType),
		Street:         a.Street,
		HouseNumber:    a.HouseNumber,
		AdditionalLine: a.AdditionalLine,
		PostalCode:     a.PostalCode,
		City:           a.City,
		Canton:         a.Canton,
		Country:        a.Country,
		ValidFrom:      a.ValidFrom.Format(dateLayout),
	}
	if a.ValidTo != nil {
		v := a.ValidTo.Format(dateLayout)
		resp.ValidTo = &v
	}
	return resp
}

func toAddressListResponse(as []*models.Address) []addressResponse {
	out := make([]addressResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAddressResponse(a))
	}
	return out
}

type memberResponse struct {
	PersonID  string  `json:"person_id"`
	Role      string  `json:"role"`
	ValidFrom string  `json:"valid_from"`
	ValidTo   *string `json:"valid_to,omitempty"`
}

type householdResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Members []memberResponse `json:"members"`
	Version int64            `json:"version"`
}

func toHouseholdResponse(h *models.Household) householdResponse {
	members := make([]memberResponse, 0, len(h.Members))
	for _, m := range h.Members {
		mr := memberResponse{
			PersonID:  m.PersonID.String(),
			Role:      string(m.Role),
			ValidFrom: m.ValidFrom.Format(dateLayout),
		}
		if m.ValidTo != nil {
			v := m.ValidTo.Format(dateLayout)
			mr.ValidTo = &v
		}
		members = append(members, mr)
	}
	return householdResponse{
		ID:      h.ID.String(),
		Name:    h.Name,
		Members: members,
		Version: h.Version,
	}
}

package models

import (
	"time"

	"govinda/internal/history"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// HouseholdMember links a person to a household for a validity window.
type HouseholdMember struct {
	HouseholdID id.HouseholdID `json:"household_id"`
	PersonID    id.PersonID    `json:"person_id"`
	Role        HouseholdRole  `json:"role"`
	ValidFrom   time.Time      `json:"valid_from"`
	ValidTo     *time.Time     `json:"valid_to,omitempty"`
}

// IsCurrent reports whether the membership is open as of today.
func (m *HouseholdMember) IsCurrent(today time.Time) bool {
	return m.ValidTo == nil || !m.ValidTo.Before(history.DateOf(today))
}

// Household groups related persons into a family unit for insurance purposes.
//
// Invariants over current (open) memberships:
//   - exactly one PRIMARY member (the policyholder) once populated
//   - at most one PARTNER
//   - a person appears at most once
type Household struct {
	ID        id.HouseholdID    `json:"id"`
	TenantID  id.TenantID       `json:"tenant_id"`
	Name      string            `json:"name"`
	Members   []HouseholdMember `json:"members"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int64             `json:"version"`
}

// NewHousehold constructs an empty household.
func NewHousehold(tenantID id.TenantID, name string, now time.Time) (*Household, error) {
	if isBlank(name) {
		return nil, dErrors.New(dErrors.CodeValidation, "household name must not be blank")
	}
	return &Household{
		ID:        id.NewHouseholdID(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CurrentMembers returns all memberships open as of today.
func (h *Household) CurrentMembers(today time.Time) []HouseholdMember {
	var current []HouseholdMember
	for _, m := range h.Members {
		if m.IsCurrent(today) {
			current = append(current, m)
		}
	}
	return current
}

// PrimaryMember returns the current policyholder, if any.
func (h *Household) PrimaryMember(today time.Time) *HouseholdMember {
	for i := range h.Members {
		if h.Members[i].Role == RolePrimary && h.Members[i].IsCurrent(today) {
			return &h.Members[i]
		}
	}
	return nil
}

// ChildCount counts current CHILD members.
func (h *Household) ChildCount(today time.Time) int {
	n := 0
	for _, m := range h.CurrentMembers(today) {
		if m.Role == RoleChild {
			n++
		}
	}
	return n
}

// AddMember opens a membership, enforcing the role invariants.
func (h *Household) AddMember(personID id.PersonID, role HouseholdRole, validFrom, now time.Time) error {
	if !role.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown household role: %s", role)
	}
	today := history.DateOf(now)
	for _, m := range h.CurrentMembers(today) {
		if m.PersonID == personID {
			return dErrors.New(dErrors.CodeConflict, "person is already a member of this household")
		}
	}
	if role == RolePrimary && h.PrimaryMember(today) != nil {
		return dErrors.New(dErrors.CodeConflict, "household already has a primary member")
	}
	if role == RolePartner {
		for _, m := range h.CurrentMembers(today) {
			if m.Role == RolePartner {
				return dErrors.New(dErrors.CodeConflict, "household already has a partner")
			}
		}
	}

	h.Members = append(h.Members, HouseholdMember{
		HouseholdID: h.ID,
		PersonID:    personID,
		Role:        role,
		ValidFrom:   history.DateOf(validFrom),
	})
	h.UpdatedAt = now
	return nil
}

// RemoveMember closes the person's current membership window.
func (h *Household) RemoveMember(personID id.PersonID, validTo, now time.Time) error {
	today := history.DateOf(now)
	for i := range h.Members {
		if h.Members[i].PersonID == personID && h.Members[i].IsCurrent(today) {
			d := history.DateOf(validTo)
			h.Members[i].ValidTo = &d
			h.UpdatedAt = now
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "member not found in household")
}

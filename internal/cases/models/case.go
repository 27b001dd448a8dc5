// Package models holds the case aggregate: a unit of clerical work attached
// to a person, tracked from intake to closure.
package models

import (
	"strings"
	"time"

	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// CaseType classifies what kind of request a case tracks.
type CaseType string

const (
	CaseAddressChange   CaseType = "ADDRESS_CHANGE"
	CasePaymentQuestion CaseType = "PAYMENT_QUESTION"
	CaseDocumentRequest CaseType = "DOCUMENT_REQUEST"
	CaseOther           CaseType = "OTHER"
)

func (t CaseType) Valid() bool {
	switch t {
	case CaseAddressChange, CasePaymentQuestion, CaseDocumentRequest, CaseOther:
		return true
	}
	return false
}

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	CaseNew        CaseStatus = "NEW"
	CaseInProgress CaseStatus = "IN_PROGRESS"
	CaseResolved   CaseStatus = "RESOLVED"
	CaseClosed     CaseStatus = "CLOSED"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseNew, CaseInProgress, CaseResolved, CaseClosed:
		return true
	}
	return false
}

// transitions maps each status to the states it may move to. CLOSED is
// terminal; RESOLVED may be reopened when the resolution did not stick.
var transitions = map[CaseStatus][]CaseStatus{
	CaseNew:        {CaseInProgress, CaseClosed},
	CaseInProgress: {CaseResolved, CaseClosed},
	CaseResolved:   {CaseInProgress, CaseClosed},
	CaseClosed:     {},
}

// CanTransition reports whether a case may move from its current status to
// the target.
func (s CaseStatus) CanTransition(to CaseStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Case is a tracked work item for a person. Status moves through the
// transition table only; the version counter guards concurrent writes the
// same way the person aggregate does.
type Case struct {
	ID          id.CaseID   `json:"id"`
	TenantID    id.TenantID `json:"tenant_id"`
	PersonID    id.PersonID `json:"person_id"`
	Type        CaseType    `json:"type"`
	Subject     string      `json:"subject"`
	Description string      `json:"description"`
	Status      CaseStatus  `json:"status"`
	AssigneeID  *id.UserID  `json:"assignee_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Version     int64       `json:"version"`
}

const maxSubjectLen = 200

// NewCaseParams carries the fields needed to open a case.
type NewCaseParams struct {
	TenantID    id.TenantID
	PersonID    id.PersonID
	Type        CaseType
	Subject     string
	Description string
}

// NewCase opens a case in status NEW.
func NewCase(p NewCaseParams, now time.Time) (*Case, error) {
	if !p.Type.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown case type: %s", p.Type)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject must not be blank")
	}
	if len(p.Subject) > maxSubjectLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "subject must be at most %d characters", maxSubjectLen)
	}
	return &Case{
		ID:          id.NewCaseID(),
		TenantID:    p.TenantID,
		PersonID:    p.PersonID,
		Type:        p.Type,
		Subject:     p.Subject,
		Description: p.Description,
		Status:      CaseNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TransitionTo moves the case to a new status, enforcing the transition
// table.
func (c *Case) TransitionTo(status CaseStatus, now time.Time) error {
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown case status: %s", status)
	}
	if !c.Status.CanTransition(status) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"case cannot move from %s to %s", c.Status, status)
	}
	c.Status = status
	c.UpdatedAt = now
	return nil
}

// Assign hands the case to a user. Closed cases cannot be reassigned.
func (c *Case) Assign(assignee id.UserID, now time.Time) error {
	if c.Status == CaseClosed {
		return dErrors.New(dErrors.CodeInvariantViolation, "closed case cannot be reassigned")
	}
	c.AssigneeID = &assignee
	c.UpdatedAt = now
	return nil
}

// IsOpen reports whether the case still needs work.
func (c *Case) IsOpen() bool {
	return c.Status != CaseClosed
}

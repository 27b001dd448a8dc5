// Package models holds the tenant aggregate. Every person, case and user in
// the system belongs to exactly one tenant (an insurer or a mandate).
package models

import (
	"time"

	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo allows active ↔ inactive only; same-state transitions are
// rejected so callers surface "already inactive" instead of silently
// re-applying.
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	switch {
	case s == TenantStatusActive && target == TenantStatusInactive:
		return true
	case s == TenantStatusInactive && target == TenantStatusActive:
		return true
	}
	return false
}

// Tenant is the aggregate root for a tenant organization.
//
// Invariants:
//   - Name is non-empty, at most 128 characters and unique case-insensitively
//   - Status is either active or inactive
//   - CreatedAt is immutable after construction
//
// Deactivating a tenant is an immediate boundary enforcement: requests
// scoped to an inactive tenant must be rejected at the tenant-resolution
// middleware, without cascading status changes into persons or cases. Data
// stays intact for reactivation.
type Tenant struct {
	ID        id.TenantID  `json:"id"`
	Name      string       `json:"name"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanDeactivate checks if the tenant can transition to inactive status.
// Use with ApplyDeactivation in Execute callbacks.
func (t *Tenant) CanDeactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the tenant to inactive status. Call
// CanDeactivate first to validate the transition.
func (t *Tenant) ApplyDeactivation(now time.Time) {
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
}

// CanReactivate checks if the tenant can transition to active status.
// Use with ApplyReactivation in Execute callbacks.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// ApplyReactivation transitions the tenant to active status. Call
// CanReactivate first to validate the transition.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}

func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

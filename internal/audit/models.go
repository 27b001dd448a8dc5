package audit

import (
	"time"

	id "govinda/pkg/domain"
)

// Action names follow "<entity>.<event>" so downstream consumers can route
// on prefix.
const (
	ActionPersonCreated        = "person.created"
	ActionPersonNameChanged    = "person.name_changed"
	ActionPersonMaritalChanged = "person.marital_status_changed"
	ActionPersonDeactivated    = "person.deactivated"
	ActionHistoryCorrected     = "person.history_corrected"
	ActionAddressRegistered    = "address.registered"
	ActionAddressMoved         = "address.moved"
	ActionHouseholdCreated     = "household.created"
	ActionMemberAdded          = "household.member_added"
	ActionMemberRemoved        = "household.member_removed"
	ActionCaseOpened           = "case.opened"
	ActionCaseStatusChanged    = "case.status_changed"
	ActionTenantCreated        = "tenant.created"
	ActionTenantDeactivated    = "tenant.deactivated"
	ActionTenantReactivated    = "tenant.reactivated"
	ActionUserRegistered       = "user.registered"
	ActionUserLoggedIn         = "user.logged_in"
	ActionUserLoggedOut        = "user.logged_out"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	TenantID  id.TenantID       `json:"tenant_id"`
	UserID    id.UserID         `json:"user_id"`
	RequestID string            `json:"request_id,omitempty"`
	Action    string            `json:"action"`
	Entity    string            `json:"entity"`
	EntityID  string            `json:"entity_id"`
	Details   map[string]string `json:"details,omitempty"`
}

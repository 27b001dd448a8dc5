// Package domain provides typed identifiers shared across modules.
//
// Every aggregate gets its own UUID-backed ID type so tenant, person and
// case identifiers cannot be swapped accidentally. Parsing enforces the
// invariant that IDs are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "govinda/pkg/domain-errors"
)

type (
	// TenantID identifies an insurer tenant (isolation boundary).
	TenantID uuid.UUID
	// UserID identifies a back-office user (actor of mutations).
	UserID uuid.UUID
	// PersonID identifies an insured person aggregate.
	PersonID uuid.UUID
	// HouseholdID identifies a household aggregate.
	HouseholdID uuid.UUID
	// AddressID identifies an effective-dated address row.
	AddressID uuid.UUID
	// CaseID identifies a case aggregate.
	CaseID uuid.UUID
	// HistoryID identifies a single history ledger entry.
	HistoryID uuid.UUID
)

func NewTenantID() TenantID       { return TenantID(uuid.New()) }
func NewUserID() UserID           { return UserID(uuid.New()) }
func NewPersonID() PersonID       { return PersonID(uuid.New()) }
func NewHouseholdID() HouseholdID { return HouseholdID(uuid.New()) }
func NewAddressID() AddressID     { return AddressID(uuid.New()) }
func NewCaseID() CaseID           { return CaseID(uuid.New()) }
func NewHistoryID() HistoryID     { return HistoryID(uuid.New()) }

func (id TenantID) String() string    { return uuid.UUID(id).String() }
func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id PersonID) String() string    { return uuid.UUID(id).String() }
func (id HouseholdID) String() string { return uuid.UUID(id).String() }
func (id AddressID) String() string   { return uuid.UUID(id).String() }
func (id CaseID) String() string      { return uuid.UUID(id).String() }
func (id HistoryID) String() string   { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id HouseholdID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AddressID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id HistoryID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep typed IDs JSON-friendly as plain UUID strings.

func (id TenantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TenantID(u)
	return nil
}

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id PersonID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = PersonID(u)
	return nil
}

func (id HouseholdID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *HouseholdID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = HouseholdID(u)
	return nil
}

func (id AddressID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *AddressID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AddressID(u)
	return nil
}

func (id CaseID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *CaseID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CaseID(u)
	return nil
}

func (id HistoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *HistoryID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = HistoryID(u)
	return nil
}

// Value/Scan let typed IDs cross the database/sql boundary as UUID strings.

func (id TenantID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *TenantID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id UserID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *UserID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id PersonID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *PersonID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id HouseholdID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *HouseholdID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id AddressID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *AddressID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id CaseID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *CaseID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id HistoryID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *HistoryID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	return TenantID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s)
	return PersonID(u), err
}

func ParseHouseholdID(s string) (HouseholdID, error) {
	u, err := parseUUID(s)
	return HouseholdID(u), err
}

func ParseAddressID(s string) (AddressID, error) {
	u, err := parseUUID(s)
	return AddressID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s)
	return CaseID(u), err
}

func ParseHistoryID(s string) (HistoryID, error) {
	u, err := parseUUID(s)
	return HistoryID(u), err
}

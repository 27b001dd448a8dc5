// Package models holds the user aggregate for authentication. Users belong
// to exactly one tenant; the same email may exist under different tenants.
package models

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/email"
)

// Role determines what a user may do inside their tenant.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleClerk    Role = "CLERK"
	RoleReadonly Role = "READONLY"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClerk, RoleReadonly:
		return true
	}
	return false
}

// CanWrite reports whether the role may perform mutating operations.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleClerk
}

const minPasswordLen = 8

// User is a backoffice account scoped to a tenant.
//
// Invariants:
//   - Email is unique per tenant, case-insensitively
//   - PasswordHash is a bcrypt hash, never the plaintext
//   - Role is one of ADMIN, CLERK, READONLY
type User struct {
	ID           id.UserID   `json:"id"`
	TenantID     id.TenantID `json:"tenant_id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         Role        `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type NewUserParams struct {
	TenantID  id.TenantID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
}

// NewUser validates the params and hashes the password. Missing names are
// derived from the email local part.
func NewUser(params NewUserParams, now time.Time) (*User, error) {
	if params.TenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user must belong to a tenant")
	}

	addr := strings.ToLower(strings.TrimSpace(params.Email))
	if _, err := mail.ParseAddress(addr); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}

	if len(params.Password) < minPasswordLen {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if !params.Role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of ADMIN, CLERK, READONLY")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	first, last := params.FirstName, params.LastName
	if first == "" && last == "" {
		first, last = email.DeriveNameFromEmail(addr)
	}

	return &User{
		ID:           id.NewUserID(),
		TenantID:     params.TenantID,
		Email:        addr,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword compares a plaintext candidate against the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

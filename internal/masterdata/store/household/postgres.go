package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists households and their membership rows. Update
// rewrites the membership set together with the version bump; run it inside
// tx.Runner so both tables commit atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, h *models.Household) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO households (id, tenant_id, name, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.TenantID, h.Name, h.CreatedAt, h.UpdatedAt, h.Version,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert household: %w", err)
	}
	return s.insertMembers(ctx, h)
}

func (s *PostgresStore) insertMembers(ctx context.Context, h *models.Household) error {
	for _, m := range h.Members {
		_, err := s.q(ctx).ExecContext(ctx, `
			INSERT INTO household_members (household_id, person_id, role, valid_from, valid_to)
			VALUES ($1, $2, $3, $4, $5)`,
			m.HouseholdID, m.PersonID, m.Role, m.ValidFrom, m.ValidTo,
		)
		if err != nil {
			return fmt.Errorf("insert household member: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, householdID id.HouseholdID) (*models.Household, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at, version
		FROM households WHERE id = $1 AND tenant_id = $2`,
		householdID, tenantID,
	)
	var h models.Household
	err := row.Scan(&h.ID, &h.TenantID, &h.Name, &h.CreatedAt, &h.UpdatedAt, &h.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find household: %w", err)
	}
	if err := s.loadMembers(ctx, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *PostgresStore) FindByMember(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Household, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT h.id, h.tenant_id, h.name, h.created_at, h.updated_at, h.version
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE h.tenant_id = $1 AND m.person_id = $2 AND m.valid_to IS NULL`,
		tenantID, personID,
	)
	var h models.Household
	err := row.Scan(&h.ID, &h.TenantID, &h.Name, &h.CreatedAt, &h.UpdatedAt, &h.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find household by member: %w", err)
	}
	if err := s.loadMembers(ctx, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *PostgresStore) loadMembers(ctx context.Context, h *models.Household) error {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT household_id, person_id, role, valid_from, valid_to
		FROM household_members
		WHERE household_id = $1
		ORDER BY valid_from, person_id`,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("load household members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.HouseholdMember
		if err := rows.Scan(&m.HouseholdID, &m.PersonID, &m.Role, &m.ValidFrom, &m.ValidTo); err != nil {
			return fmt.Errorf("scan household member: %w", err)
		}
		h.Members = append(h.Members, m)
	}
	return rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, h *models.Household) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE households
		SET name = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND tenant_id = $4 AND version = $5`,
		h.Name, h.UpdatedAt, h.ID, h.TenantID, h.Version,
	)
	if err != nil {
		return fmt.Errorf("update household: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update household: %w", err)
	}
	if n == 0 {
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM households WHERE id = $1 AND tenant_id = $2)`,
			h.ID, h.TenantID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update household: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}

	// Membership rows follow the aggregate wholesale.
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM household_members WHERE household_id = $1`, h.ID); err != nil {
		return fmt.Errorf("replace household members: %w", err)
	}
	if err := s.insertMembers(ctx, h); err != nil {
		return err
	}
	h.Version++
	return nil
}

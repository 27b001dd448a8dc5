package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"govinda/internal/cases/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists cases.
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

const caseColumns = `id, tenant_id, person_id, case_type, subject, description,
	status, assignee_id, created_at, updated_at, version`

func scanCase(row interface{ Scan(...any) error }) (*models.Case, error) {
	var (
		c        models.Case
		assignee uuid.NullUUID
	)
	err := row.Scan(
		&c.ID, &c.TenantID, &c.PersonID, &c.Type, &c.Subject, &c.Description,
		&c.Status, &assignee, &c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		return nil, err
	}
	if assignee.Valid {
		v := id.UserID(assignee.UUID)
		c.AssigneeID = &v
	}
	return &c, nil
}

// assigneeArg converts the optional assignee for the driver; a nil pointer
// must become SQL NULL, not a nil-dereference in Value().
func assigneeArg(a *id.UserID) any {
	if a == nil {
		return nil
	}
	return *a
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.TenantID, c.PersonID, c.Type, c.Subject, c.Description,
		c.Status, assigneeArg(c.AssigneeID), c.CreatedAt, c.UpdatedAt, c.Version,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, caseID id.CaseID) (*models.Case, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE id = $1 AND tenant_id = $2`,
		caseID, tenantID,
	)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Case, error) {
	return s.list(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id`,
		tenantID,
	)
}

func (s *PostgresStore) ListByPerson(ctx context.Context, tenantID id.TenantID, personID id.PersonID) ([]*models.Case, error) {
	return s.list(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE tenant_id = $1 AND person_id = $2
		ORDER BY created_at DESC, id`,
		tenantID, personID,
	)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update writes the case guarded by a compare-and-increment on the version
// column, mirroring the person store.
func (s *PostgresStore) Update(ctx context.Context, c *models.Case) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE cases
		SET case_type = $1, subject = $2, description = $3, status = $4,
			assignee_id = $5, updated_at = $6, version = version + 1
		WHERE id = $7 AND tenant_id = $8 AND version = $9`,
		c.Type, c.Subject, c.Description, c.Status,
		assigneeArg(c.AssigneeID), c.UpdatedAt,
		c.ID, c.TenantID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if n == 0 {
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1 AND tenant_id = $2)`,
			c.ID, c.TenantID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	c.Version++
	return nil
}

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govinda/internal/tenant/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists tenants. A unique index on lower(name) backs the
// case-insensitive name constraint.
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

const tenantColumns = `id, name, status, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, t *models.Tenant) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE lower(name) = lower($1)`, name)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Tenant) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE tenants SET name = $1, status = $2, updated_at = $3 WHERE id = $4`,
		t.Name, t.Status, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute runs validate-then-mutate inside a transaction holding a FOR
// UPDATE lock on the tenant row.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID,
	validate func(*models.Tenant) error, apply func(*models.Tenant)) (*models.Tenant, error) {

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tenant tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	row := dbTx.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock tenant: %w", err)
	}

	if err := validate(t); err != nil {
		return nil, err
	}
	apply(t)

	_, err = dbTx.ExecContext(ctx, `
		UPDATE tenants SET name = $1, status = $2, updated_at = $3 WHERE id = $4`,
		t.Name, t.Status, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tenant tx: %w", err)
	}
	return t, nil
}

package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists persons and their history ledger. All methods join
// a transaction carried in the context, so a mutation and its history entry
// commit atomically when the service runs them inside tx.Runner.
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

const personColumns = `id, tenant_id, ahv_nr, last_name, first_name, date_of_birth,
	gender, marital_status, nationality, preferred_language, status,
	created_at, updated_at, version`

func scanPerson(row interface{ Scan(...any) error }) (*models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID, &p.TenantID, &p.AhvNr, &p.LastName, &p.FirstName, &p.DateOfBirth,
		&p.Gender, &p.MaritalStatus, &p.Nationality, &p.PreferredLanguage, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Person) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.TenantID, p.AhvNr, p.LastName, p.FirstName, p.DateOfBirth,
		p.Gender, p.MaritalStatus, p.Nationality, p.PreferredLanguage, p.Status,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Person, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+personColumns+` FROM persons WHERE id = $1 AND tenant_id = $2`,
		personID, tenantID,
	)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByAhv(ctx context.Context, tenantID id.TenantID, ahv models.AhvNumber) (*models.Person, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+personColumns+` FROM persons WHERE tenant_id = $1 AND ahv_nr = $2`,
		tenantID, ahv,
	)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person by ahv: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Search(ctx context.Context, tenantID id.TenantID, q Query) ([]*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE tenant_id = $1`
	args := []any{tenantID}

	if name := strings.TrimSpace(q.Name); name != "" {
		args = append(args, "%"+name+"%")
		query += fmt.Sprintf(" AND (last_name ILIKE $%d OR first_name ILIKE $%d)", len(args), len(args))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY last_name, first_name"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes the aggregate guarded by a compare-and-increment on the
// version column. Zero rows affected means either the person vanished or a
// concurrent writer got there first.
func (s *PostgresStore) Update(ctx context.Context, p *models.Person) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE persons
		SET ahv_nr = $1, last_name = $2, first_name = $3, date_of_birth = $4,
			gender = $5, marital_status = $6, nationality = $7,
			preferred_language = $8, status = $9, updated_at = $10,
			version = version + 1
		WHERE id = $11 AND tenant_id = $12 AND version = $13`,
		p.AhvNr, p.LastName, p.FirstName, p.DateOfBirth,
		p.Gender, p.MaritalStatus, p.Nationality,
		p.PreferredLanguage, p.Status, p.UpdatedAt,
		p.ID, p.TenantID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if n == 0 {
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM persons WHERE id = $1 AND tenant_id = $2)`,
			p.ID, p.TenantID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update person: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	p.Version++
	return nil
}

const historyColumns = `history_id, person_id, valid_from, valid_to, recorded_at,
	superseded_at, mutation_type, mutation_reason, changed_by,
	last_name, first_name, marital_status`

func scanHistoryEntry(row interface{ Scan(...any) error }) (*models.PersonHistoryEntry, error) {
	var (
		e      models.PersonHistoryEntry
		reason sql.NullString
	)
	err := row.Scan(
		&e.HistoryID, &e.PersonID, &e.ValidFrom, &e.ValidTo, &e.RecordedAt,
		&e.SupersededAt, &e.MutationType, &reason, &e.ChangedBy,
		&e.LastName, &e.FirstName, &e.MaritalStatus,
	)
	if err != nil {
		return nil, err
	}
	e.Reason = reason.String
	return &e, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, e *models.PersonHistoryEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO person_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)`,
		e.HistoryID, e.PersonID, e.ValidFrom, e.ValidTo, e.RecordedAt,
		e.SupersededAt, e.MutationType, e.Reason, e.ChangedBy,
		e.LastName, e.FirstName, e.MaritalStatus,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SupersedeHistory(ctx context.Context, personID id.PersonID, historyID id.HistoryID, at time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE person_history SET superseded_at = $1
		WHERE history_id = $2 AND person_id = $3 AND superseded_at IS NULL`,
		at, historyID, personID,
	)
	if err != nil {
		return fmt.Errorf("supersede history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("supersede history: %w", err)
	}
	if n == 0 {
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM person_history WHERE history_id = $1 AND person_id = $2)`,
			historyID, personID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("supersede history: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindHistoryEntry(ctx context.Context, personID id.PersonID, historyID id.HistoryID) (*models.PersonHistoryEntry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM person_history
		WHERE history_id = $1 AND person_id = $2`,
		historyID, personID,
	)
	e, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find history entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) HistoryOf(ctx context.Context, personID id.PersonID) ([]*models.PersonHistoryEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+historyColumns+` FROM person_history
		WHERE person_id = $1
		ORDER BY valid_from DESC, recorded_at DESC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []*models.PersonHistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// HistoryAt is the temporal point query: the newest non-superseded window
// covering the date. Both window bounds are inclusive; NULL valid_to means
// the window was still open when recorded.
func (s *PostgresStore) HistoryAt(ctx context.Context, personID id.PersonID, date time.Time) (*models.PersonHistoryEntry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM person_history
		WHERE person_id = $1
		  AND valid_from <= $2
		  AND (valid_to IS NULL OR valid_to >= $2)
		  AND superseded_at IS NULL
		ORDER BY valid_from DESC
		LIMIT 1`,
		personID, history.DateOf(date),
	)
	e, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history at date: %w", err)
	}
	return e, nil
}

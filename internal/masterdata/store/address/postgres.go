package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists effective-dated address rows. Methods join a
// context-carried transaction so "close old, insert new" commits atomically.
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

const columns = `id, person_id, address_type, street, house_number, additional_line,
	postal_code, city, canton, country, valid_from, valid_to, recorded_at, created_by`

func scan(row interface{ Scan(...any) error }) (*models.Address, error) {
	var a models.Address
	err := row.Scan(
		&a.ID, &a.PersonID, &a.AddressType, &a.Street, &a.HouseNumber, &a.AdditionalLine,
		&a.PostalCode, &a.City, &a.Canton, &a.Country, &a.ValidFrom, &a.ValidTo,
		&a.RecordedAt, &a.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Address) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO addresses (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.PersonID, a.AddressType, a.Street, a.HouseNumber, a.AdditionalLine,
		a.PostalCode, a.City, a.Canton, a.Country, a.ValidFrom, a.ValidTo,
		a.RecordedAt, a.CreatedBy,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, addressID id.AddressID) (*models.Address, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+columns+` FROM addresses WHERE id = $1`, addressID)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Address, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+columns+` FROM addresses
		WHERE person_id = $1
		ORDER BY valid_from DESC, recorded_at DESC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []*models.Address
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CurrentByType(ctx context.Context, personID id.PersonID, t models.AddressType, today time.Time) (*models.Address, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+columns+` FROM addresses
		WHERE person_id = $1 AND address_type = $2
		  AND (valid_to IS NULL OR valid_to >= $3)
		ORDER BY valid_from DESC
		LIMIT 1`,
		personID, t, history.DateOf(today),
	)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("current address: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Close(ctx context.Context, addressID id.AddressID, validTo time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE addresses SET valid_to = $1
		WHERE id = $2 AND valid_to IS NULL`,
		history.DateOf(validTo), addressID,
	)
	if err != nil {
		return fmt.Errorf("close address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close address: %w", err)
	}
	if n == 0 {
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1)`, addressID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("close address: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

//go:build integration

package person_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/store/person"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/testutil/containers"
)

type PostgresPersonSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *person.PostgresStore
	tenant   id.TenantID
}

func TestPostgresPersonSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPersonSuite))
}

func (s *PostgresPersonSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = person.NewPostgres(s.postgres.DB)
}

func (s *PostgresPersonSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "person_history", "persons"))
	s.tenant = id.NewTenantID()
}

func (s *PostgresPersonSuite) newPerson(ahv string) *models.Person {
	p, err := models.NewPerson(models.NewPersonParams{
		TenantID:      s.tenant,
		AhvNr:         models.AhvNumber(ahv),
		LastName:      "Müller",
		FirstName:     "Hans",
		DateOfBirth:   history.Date(1985, time.March, 15),
		Gender:        models.GenderMale,
		MaritalStatus: models.MaritalSingle,
	}, time.Now().UTC())
	s.Require().NoError(err)
	return p
}

// TestRoundTrip verifies all columns survive insert and read back.
func (s *PostgresPersonSuite) TestRoundTrip() {
	ctx := context.Background()
	p := s.newPerson("756.1111.1111.11")
	s.Require().NoError(s.store.Create(ctx, p))

	found, err := s.store.FindByID(ctx, s.tenant, p.ID)
	s.Require().NoError(err)
	s.Equal(p.AhvNr, found.AhvNr)
	s.Equal(p.LastName, found.LastName)
	s.Equal(p.MaritalStatus, found.MaritalStatus)
	s.EqualValues(0, found.Version)
}

// TestAhvUniquePerTenant verifies the partial unique index on (tenant_id, ahv_nr).
func (s *PostgresPersonSuite) TestAhvUniquePerTenant() {
	ctx := context.Background()
	p1 := s.newPerson("756.2222.2222.22")
	s.Require().NoError(s.store.Create(ctx, p1))

	p2 := s.newPerson("756.2222.2222.22")
	s.Require().ErrorIs(s.store.Create(ctx, p2), sentinel.ErrConflict)

	// Same AHV in another tenant is fine.
	other := s.newPerson("756.2222.2222.22")
	other.TenantID = id.NewTenantID()
	s.Require().NoError(s.store.Create(ctx, other))
}

// TestConcurrentVersionedUpdate verifies that of N writers racing on the same
// version, exactly one wins.
func (s *PostgresPersonSuite) TestConcurrentVersionedUpdate() {
	ctx := context.Background()
	p := s.newPerson("756.3333.3333.33")
	s.Require().NoError(s.store.Create(ctx, p))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, staleLosses atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			cp := *p
			cp.LastName = "Writer"
			err := s.store.Update(ctx, &cp)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrVersionMismatch):
				staleLosses.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one writer should win")
	s.Equal(int32(goroutines-1), staleLosses.Load())

	found, err := s.store.FindByID(ctx, s.tenant, p.ID)
	s.Require().NoError(err)
	s.EqualValues(1, found.Version)
}

// TestHistoryReasonNullable verifies an entry without a reason stores NULL
// and reads back as the empty string.
func (s *PostgresPersonSuite) TestHistoryReasonNullable() {
	ctx := context.Background()
	p := s.newPerson("756.6666.6666.66")
	s.Require().NoError(s.store.Create(ctx, p))

	entry := &models.PersonHistoryEntry{
		Meta:     history.NewMeta(history.MutationUpdate, "", id.NewUserID(), history.Date(2024, time.January, 1), time.Now().UTC()),
		PersonID: p.ID, LastName: "Meier", FirstName: "Hans", MaritalStatus: models.MaritalSingle,
	}
	s.Require().NoError(s.store.AppendHistory(ctx, entry))

	var stored *string
	row := s.postgres.DB.QueryRowContext(ctx,
		`SELECT mutation_reason FROM person_history WHERE history_id = $1`, entry.HistoryID)
	s.Require().NoError(row.Scan(&stored))
	s.Nil(stored)

	found, err := s.store.FindHistoryEntry(ctx, p.ID, entry.HistoryID)
	s.Require().NoError(err)
	s.Empty(found.Reason)
}

// TestTemporalQuery verifies the SQL point query against a two-window ledger.
func (s *PostgresPersonSuite) TestTemporalQuery() {
	ctx := context.Background()
	p := s.newPerson("756.4444.4444.44")
	s.Require().NoError(s.store.Create(ctx, p))

	actor := id.NewUserID()
	closed := history.Date(2023, time.December, 31)
	first := &models.PersonHistoryEntry{
		Meta:     history.NewMeta(history.MutationUpdate, "name change", actor, history.Date(2023, time.January, 1), time.Now().UTC()),
		PersonID: p.ID, LastName: "Meier", FirstName: "Hans", MaritalStatus: models.MaritalSingle,
	}
	first.ValidTo = &closed
	s.Require().NoError(s.store.AppendHistory(ctx, first))

	e, err := s.store.HistoryAt(ctx, p.ID, history.Date(2023, time.June, 1))
	s.Require().NoError(err)
	s.Equal("Meier", e.LastName)

	// Inclusive upper bound, then miss the day after.
	_, err = s.store.HistoryAt(ctx, p.ID, closed)
	s.Require().NoError(err)
	_, err = s.store.HistoryAt(ctx, p.ID, closed.AddDate(0, 0, 1))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Superseded rows are invisible to the point query.
	s.Require().NoError(s.store.SupersedeHistory(ctx, p.ID, first.HistoryID, time.Now().UTC()))
	_, err = s.store.HistoryAt(ctx, p.ID, history.Date(2023, time.June, 1))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

package person

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

var storeNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

type PersonStoreSuite struct {
	suite.Suite
	store  *InMemory
	ctx    context.Context
	tenant id.TenantID
}

func (s *PersonStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.tenant = id.NewTenantID()
}

func TestPersonStoreSuite(t *testing.T) {
	suite.Run(t, new(PersonStoreSuite))
}

func (s *PersonStoreSuite) newPerson(lastName, ahv string) *models.Person {
	p, err := models.NewPerson(models.NewPersonParams{
		TenantID:      s.tenant,
		AhvNr:         models.AhvNumber(ahv),
		LastName:      lastName,
		FirstName:     "Hans",
		DateOfBirth:   history.Date(1985, time.March, 15),
		Gender:        models.GenderMale,
		MaritalStatus: models.MaritalSingle,
	}, storeNow)
	s.Require().NoError(err)
	return p
}

func (s *PersonStoreSuite) entryFor(p *models.Person, validFrom time.Time, validTo *time.Time) *models.PersonHistoryEntry {
	e := &models.PersonHistoryEntry{
		Meta: history.NewMeta(history.MutationUpdate, "test", id.NewUserID(), validFrom, storeNow),
		PersonID: p.ID,
		LastName: p.LastName, FirstName: p.FirstName, MaritalStatus: p.MaritalStatus,
	}
	e.ValidTo = validTo
	return e
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := history.Date(y, m, d)
	return &t
}

func (s *PersonStoreSuite) TestCreateAndLookups() {
	s.Run("creates and finds by id", func() {
		p := s.newPerson("Müller", "756.1111.2222.33")
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
		s.Require().NoError(err)
		s.Equal("Müller", found.LastName)
	})

	s.Run("hides persons from other tenants", func() {
		p := s.newPerson("Keller", "756.2222.3333.44")
		s.Require().NoError(s.store.Create(s.ctx, p))

		_, err := s.store.FindByID(s.ctx, id.NewTenantID(), p.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds by ahv number", func() {
		p := s.newPerson("Weber", "756.3333.4444.55")
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByAhv(s.ctx, s.tenant, p.AhvNr)
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("rejects duplicate ahv within tenant", func() {
		p1 := s.newPerson("First", "756.5555.6666.77")
		p2 := s.newPerson("Second", "756.5555.6666.77")
		s.Require().NoError(s.store.Create(s.ctx, p1))
		s.Require().ErrorIs(s.store.Create(s.ctx, p2), sentinel.ErrConflict)
	})
}

func (s *PersonStoreSuite) TestSearch() {
	for _, n := range []struct{ last, ahv string }{
		{"Müller", "756.0000.0000.01"},
		{"Müller-Weber", "756.0000.0000.02"},
		{"Keller", "756.0000.0000.03"},
	} {
		s.Require().NoError(s.store.Create(s.ctx, s.newPerson(n.last, n.ahv)))
	}

	s.Run("filters by name fragment", func() {
		found, err := s.store.Search(s.ctx, s.tenant, Query{Name: "müller"})
		s.Require().NoError(err)
		s.Len(found, 2)
	})

	s.Run("orders and paginates", func() {
		found, err := s.store.Search(s.ctx, s.tenant, Query{Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal("Keller", found[0].LastName)

		rest, err := s.store.Search(s.ctx, s.tenant, Query{Offset: 2})
		s.Require().NoError(err)
		s.Require().Len(rest, 1)
		s.Equal("Müller-Weber", rest[0].LastName)
	})
}

func (s *PersonStoreSuite) TestVersionedUpdate() {
	s.Run("increments version on success", func() {
		p := s.newPerson("Müller", "756.1234.0000.11")
		s.Require().NoError(s.store.Create(s.ctx, p))

		p.LastName = "Schmidt"
		s.Require().NoError(s.store.Update(s.ctx, p))
		s.EqualValues(1, p.Version)

		found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
		s.Require().NoError(err)
		s.Equal("Schmidt", found.LastName)
		s.EqualValues(1, found.Version)
	})

	s.Run("rejects stale version", func() {
		p := s.newPerson("Müller", "756.1234.0000.22")
		s.Require().NoError(s.store.Create(s.ctx, p))

		stale, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
		s.Require().NoError(err)

		p.LastName = "Winner"
		s.Require().NoError(s.store.Update(s.ctx, p))

		stale.LastName = "Loser"
		err = s.store.Update(s.ctx, stale)
		s.Require().ErrorIs(err, sentinel.ErrVersionMismatch)

		found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
		s.Require().NoError(err)
		s.Equal("Winner", found.LastName)
	})

	s.Run("returns ErrNotFound for unknown person", func() {
		p := s.newPerson("Ghost", "756.1234.0000.33")
		s.Require().ErrorIs(s.store.Update(s.ctx, p), sentinel.ErrNotFound)
	})
}

func (s *PersonStoreSuite) TestHistoryAt() {
	p := s.newPerson("Müller", "756.9999.0000.11")
	s.Require().NoError(s.store.Create(s.ctx, p))

	// Two closed windows and the open live period after 2024-07-01.
	first := s.entryFor(p, history.Date(2023, time.January, 1), datePtr(2023, time.December, 31))
	first.LastName = "Meier"
	second := s.entryFor(p, history.Date(2024, time.January, 1), datePtr(2024, time.June, 30))
	s.Require().NoError(s.store.AppendHistory(s.ctx, first))
	s.Require().NoError(s.store.AppendHistory(s.ctx, second))

	s.Run("resolves the covering window", func() {
		e, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2023, time.June, 15))
		s.Require().NoError(err)
		s.Equal("Meier", e.LastName)
	})

	s.Run("window bounds are inclusive", func() {
		e, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2024, time.January, 1))
		s.Require().NoError(err)
		s.Equal(second.HistoryID, e.HistoryID)

		e, err = s.store.HistoryAt(s.ctx, p.ID, history.Date(2024, time.June, 30))
		s.Require().NoError(err)
		s.Equal(second.HistoryID, e.HistoryID)
	})

	s.Run("live period has no ledger row", func() {
		_, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2024, time.July, 1))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("date before first window misses", func() {
		_, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2022, time.December, 31))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("superseded rows do not participate", func() {
		s.Require().NoError(s.store.SupersedeHistory(s.ctx, p.ID, second.HistoryID, storeNow))

		_, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2024, time.March, 1))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PersonStoreSuite) TestHistoryAtPrefersLatestValidFrom() {
	p := s.newPerson("Müller", "756.9999.0000.22")
	s.Require().NoError(s.store.Create(s.ctx, p))

	// Overlapping windows: the one starting later wins.
	older := s.entryFor(p, history.Date(2024, time.January, 1), datePtr(2024, time.December, 31))
	newer := s.entryFor(p, history.Date(2024, time.June, 1), datePtr(2024, time.December, 31))
	newer.LastName = "Schmidt"
	s.Require().NoError(s.store.AppendHistory(s.ctx, older))
	s.Require().NoError(s.store.AppendHistory(s.ctx, newer))

	e, err := s.store.HistoryAt(s.ctx, p.ID, history.Date(2024, time.August, 1))
	s.Require().NoError(err)
	s.Equal("Schmidt", e.LastName)
}

func (s *PersonStoreSuite) TestHistoryOfOrdering() {
	p := s.newPerson("Müller", "756.9999.0000.33")
	s.Require().NoError(s.store.Create(s.ctx, p))

	a := s.entryFor(p, history.Date(2023, time.January, 1), datePtr(2023, time.December, 31))
	b := s.entryFor(p, history.Date(2024, time.January, 1), datePtr(2024, time.June, 30))
	s.Require().NoError(s.store.AppendHistory(s.ctx, a))
	s.Require().NoError(s.store.AppendHistory(s.ctx, b))

	all, err := s.store.HistoryOf(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(b.HistoryID, all[0].HistoryID, "newest window first")
	s.Equal(a.HistoryID, all[1].HistoryID)
}

func (s *PersonStoreSuite) TestSupersedeHistory() {
	p := s.newPerson("Müller", "756.9999.0000.44")
	s.Require().NoError(s.store.Create(s.ctx, p))

	e := s.entryFor(p, history.Date(2024, time.January, 1), datePtr(2024, time.June, 30))
	s.Require().NoError(s.store.AppendHistory(s.ctx, e))

	s.Require().NoError(s.store.SupersedeHistory(s.ctx, p.ID, e.HistoryID, storeNow))

	found, err := s.store.FindHistoryEntry(s.ctx, p.ID, e.HistoryID)
	s.Require().NoError(err)
	s.Require().NotNil(found.SupersededAt)

	s.Run("refuses to supersede twice", func() {
		err := s.store.SupersedeHistory(s.ctx, p.ID, e.HistoryID, storeNow)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown entry is not found", func() {
		err := s.store.SupersedeHistory(s.ctx, p.ID, id.NewHistoryID(), storeNow)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

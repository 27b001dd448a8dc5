package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/store/household"
	"govinda/internal/masterdata/store/person"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/requestcontext"
)

// trackedHouseholdStore records whether the aggregate update ran inside the
// transaction boundary.
type trackedHouseholdStore struct {
	*household.InMemory
	spy        *txSpy
	updateInTx bool
}

func (s *trackedHouseholdStore) Update(ctx context.Context, h *models.Household) error {
	s.updateInTx = s.spy.inTx
	return s.InMemory.Update(ctx, h)
}

type HouseholdServiceSuite struct {
	suite.Suite
	persons    *person.InMemory
	households *trackedHouseholdStore
	spy        *txSpy
	svc        *HouseholdService
	ctx        context.Context
	tenant     id.TenantID
}

func (s *HouseholdServiceSuite) SetupTest() {
	s.persons = person.NewInMemory()
	s.spy = &txSpy{}
	s.households = &trackedHouseholdStore{InMemory: household.NewInMemory(), spy: s.spy}
	s.svc = NewHouseholdService(s.households, s.persons, WithTx(s.spy))

	s.tenant = id.NewTenantID()
	ctx := requestcontext.WithTenantID(context.Background(), s.tenant)
	ctx = requestcontext.WithUserID(ctx, id.NewUserID())
	s.ctx = requestcontext.WithTime(ctx, svcNow)
}

func TestHouseholdServiceSuite(t *testing.T) {
	suite.Run(t, new(HouseholdServiceSuite))
}

func (s *HouseholdServiceSuite) storedPerson(ahv string) *models.Person {
	p, err := models.NewPerson(models.NewPersonParams{
		TenantID:      s.tenant,
		AhvNr:         models.AhvNumber(ahv),
		LastName:      "Müller",
		FirstName:     "Hans",
		DateOfBirth:   history.Date(1985, time.March, 15),
		Gender:        models.GenderMale,
		MaritalStatus: models.MaritalSingle,
	}, svcNow)
	s.Require().NoError(err)
	s.Require().NoError(s.persons.Create(s.ctx, p))
	return p
}

func (s *HouseholdServiceSuite) TestAddMember() {
	h, err := s.svc.CreateHousehold(s.ctx, "Familie Müller")
	s.Require().NoError(err)
	p := s.storedPerson("756.1111.1111.11")
	from := history.Date(2024, time.January, 1)

	s.Run("adds existing person", func() {
		updated, err := s.svc.AddMember(s.ctx, h.ID, p.ID, models.RolePrimary, from)
		s.Require().NoError(err)
		s.Require().NotNil(updated.PrimaryMember(svcNow))
		s.EqualValues(1, updated.Version)
	})

	s.Run("rejects unknown person", func() {
		_, err := s.svc.AddMember(s.ctx, h.ID, id.NewPersonID(), models.RoleChild, from)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("person cannot join a second household", func() {
		other, err := s.svc.CreateHousehold(s.ctx, "Zweitfamilie")
		s.Require().NoError(err)

		_, err = s.svc.AddMember(s.ctx, other.ID, p.ID, models.RolePartner, from)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *HouseholdServiceSuite) TestRemoveMemberAndLookup() {
	h, err := s.svc.CreateHousehold(s.ctx, "Familie Weber")
	s.Require().NoError(err)
	p := s.storedPerson("756.2222.2222.22")

	_, err = s.svc.AddMember(s.ctx, h.ID, p.ID, models.RolePrimary, history.Date(2024, time.January, 1))
	s.Require().NoError(err)

	found, err := s.svc.GetHouseholdOfPerson(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(h.ID, found.ID)

	_, err = s.svc.RemoveMember(s.ctx, h.ID, p.ID, history.Date(2024, time.June, 30))
	s.Require().NoError(err)

	_, err = s.svc.GetHouseholdOfPerson(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// The Postgres store rewrites the membership rows next to the aggregate row,
// so every membership change must persist inside one transaction boundary.
func (s *HouseholdServiceSuite) TestMembershipChangesRunInTransaction() {
	h, err := s.svc.CreateHousehold(s.ctx, "Familie Brunner")
	s.Require().NoError(err)
	p := s.storedPerson("756.4444.4444.44")

	_, err = s.svc.AddMember(s.ctx, h.ID, p.ID, models.RolePrimary, history.Date(2024, time.January, 1))
	s.Require().NoError(err)
	s.Equal(1, s.spy.calls)
	s.True(s.households.updateInTx, "add member must persist inside the transaction")

	s.households.updateInTx = false
	_, err = s.svc.RemoveMember(s.ctx, h.ID, p.ID, history.Date(2024, time.June, 30))
	s.Require().NoError(err)
	s.Equal(2, s.spy.calls)
	s.True(s.households.updateInTx, "remove member must persist inside the transaction")
}

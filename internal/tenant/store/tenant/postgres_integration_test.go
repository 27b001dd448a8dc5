//go:build integration

package tenant_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govinda/internal/tenant/models"
	"govinda/internal/tenant/store/tenant"
	id "govinda/pkg/domain"
	dErrors "govinda/pkg/domain-errors"
	"govinda/pkg/platform/sentinel"
	"govinda/pkg/testutil/containers"
)

type PostgresTenantSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *tenant.PostgresStore
}

func TestPostgresTenantSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTenantSuite))
}

func (s *PostgresTenantSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = tenant.NewPostgres(s.postgres.DB)
}

func (s *PostgresTenantSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "tenants"))
}

func (s *PostgresTenantSuite) newTenant(name string) *models.Tenant {
	t, err := models.NewTenant(id.NewTenantID(), name, time.Now().UTC())
	s.Require().NoError(err)
	return t
}

func (s *PostgresTenantSuite) TestRoundTrip() {
	ctx := context.Background()
	t := s.newTenant("Krankenkasse Alpina")
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, t))

	found, err := s.store.FindByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(t.Name, found.Name)
	s.Equal(models.TenantStatusActive, found.Status)
}

// TestNameUnique verifies the unique index on lower(name).
func (s *PostgresTenantSuite) TestNameUnique() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, s.newTenant("Helvetia Mandat")))

	err := s.store.CreateIfNameAvailable(ctx, s.newTenant("HELVETIA mandat"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	found, err := s.store.FindByName(ctx, "helvetia MANDAT")
	s.Require().NoError(err)
	s.Equal("Helvetia Mandat", found.Name)
}

// TestExecuteLocksRow verifies that racing deactivations resolve to exactly
// one winner under FOR UPDATE.
func (s *PostgresTenantSuite) TestExecuteLocksRow() {
	ctx := context.Background()
	t := s.newTenant("Visana Mandat")
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, t))

	const goroutines = 10
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, t.ID,
				func(t *models.Tenant) error { return t.CanDeactivate() },
				func(t *models.Tenant) { t.ApplyDeactivation(time.Now().UTC()) },
			)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one deactivation should win")
	s.Equal(int32(goroutines-1), conflicts.Load())

	found, err := s.store.FindByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusInactive, found.Status)
}

func (s *PostgresTenantSuite) TestExecuteUnknownTenant() {
	_, err := s.store.Execute(context.Background(), id.NewTenantID(),
		func(t *models.Tenant) error { return nil },
		func(t *models.Tenant) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

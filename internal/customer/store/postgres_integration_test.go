//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/store"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/sentinel"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "customers"))
}

func (s *PostgresStoreSuite) newCustomer(raw string) *models.Customer {
	email, err := models.NewEmail(raw)
	s.Require().NoError(err)
	c, err := models.New(email, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	c := s.newCustomer("pg@example.com")
	s.Require().NoError(s.store.Save(s.ctx, c))

	loaded, err := s.store.FindByID(s.ctx, c.ID())
	s.Require().NoError(err)
	s.Equal(c.Email(), loaded.Email())
	s.Equal(domain.CustomerStatusPending, loaded.Status())
	s.True(c.CreatedAt().Equal(loaded.CreatedAt()))
	s.Nil(loaded.DeletedAt())
	s.Equal(int64(1), loaded.Version())

	s.Require().NoError(loaded.Activate(time.Now().UTC()))
	s.Require().NoError(s.store.Save(s.ctx, loaded))
	s.Equal(int64(2), loaded.Version())
}

func (s *PostgresStoreSuite) TestStaleWriteConflicts() {
	c := s.newCustomer("stale@example.com")
	s.Require().NoError(s.store.Save(s.ctx, c))

	first, err := s.store.FindByID(s.ctx, c.ID())
	s.Require().NoError(err)
	second, err := s.store.FindByID(s.ctx, c.ID())
	s.Require().NoError(err)

	s.Require().NoError(first.Activate(time.Now().UTC()))
	s.Require().NoError(s.store.Save(s.ctx, first))

	s.Require().NoError(second.MarkInactive(time.Now().UTC()))
	s.ErrorIs(s.store.Save(s.ctx, second), sentinel.ErrConflict)
}

// TestConcurrentRegistrationSameEmail verifies the partial unique index lets
// exactly one live customer own an email.
func (s *PostgresStoreSuite) TestConcurrentRegistrationSameEmail() {
	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Save(s.ctx, s.newCustomer("race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestDeletedCustomerReleasesEmail() {
	c := s.newCustomer("gone@example.com")
	s.Require().NoError(s.store.Save(s.ctx, c))
	s.Require().NoError(c.Delete(time.Now().UTC()))
	s.Require().NoError(s.store.Save(s.ctx, c))

	email, _ := models.NewEmail("gone@example.com")
	_, err := s.store.FindByEmail(s.ctx, email)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Save(s.ctx, s.newCustomer("gone@example.com")))
}

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vigil/internal/concern"
	"vigil/internal/decision/store/postgres"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
	"vigil/pkg/testutil/containers"
)

type FlagStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresFlagStore
}

func TestFlagStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(FlagStoreSuite))
}

func (s *FlagStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.Pool)
}

func (s *FlagStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "flags"))
}

func (s *FlagStoreSuite) newFlag(family domain.FamilyID, at time.Time) *concern.Flag {
	return &concern.Flag{
		ID:         domain.NewFlagID(),
		FamilyID:   family,
		SubjectID:  "child-1",
		Category:   concern.CategoryBullying,
		Severity:   concern.SeverityMedium,
		Confidence: 81,
		EventID:    "evt-1",
		CreatedAt:  at,
	}
}

func (s *FlagStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	flag := s.newFlag("fam-1", time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Save(ctx, flag))

	got, err := s.store.FindByID(ctx, flag.ID)
	s.Require().NoError(err)
	s.Equal(*flag, *got)

	s.Run("duplicate id conflicts", func() {
		s.ErrorIs(s.store.Save(ctx, flag), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(ctx, domain.NewFlagID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *FlagStoreSuite) TestListByFamilyNewestFirst() {
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	older := s.newFlag("fam-1", base)
	newer := s.newFlag("fam-1", base.Add(time.Hour))
	other := s.newFlag("fam-2", base)
	for _, f := range []*concern.Flag{older, newer, other} {
		s.Require().NoError(s.store.Save(ctx, f))
	}

	flags, err := s.store.ListByFamily(ctx, "fam-1")
	s.Require().NoError(err)
	s.Require().Len(flags, 2)
	s.Equal(newer.ID, flags[0].ID)
	s.Equal(older.ID, flags[1].ID)
}

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestSensitivity() {
	s.Run("missing family is ErrNotFound", func() {
		_, err := s.store.FindSensitivity(s.ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects invalid config", func() {
		err := s.store.PutSensitivity(s.ctx, models.FamilySensitivityConfig{FamilyID: "f", Level: "loud"})
		s.Error(err)
	})

	s.Run("returned overrides are a copy", func() {
		s.Require().NoError(s.store.PutSensitivity(s.ctx, models.FamilySensitivityConfig{
			FamilyID:          "f",
			Level:             models.LevelBalanced,
			CategoryOverrides: map[concern.Category]int{concern.CategoryDrugs: 80},
		}))
		got, err := s.store.FindSensitivity(s.ctx, "f")
		s.Require().NoError(err)
		got.CategoryOverrides[concern.CategoryDrugs] = 50

		again, err := s.store.FindSensitivity(s.ctx, "f")
		s.Require().NoError(err)
		s.Equal(80, again.CategoryOverrides[concern.CategoryDrugs])
	})
}

func (s *InMemoryStoreSuite) TestUpdateProfile() {
	s.Run("creates on first correction", func() {
		p, err := s.store.UpdateProfile(s.ctx, "f", concern.CategoryViolence, func(p *models.FamilyBiasProfile) error {
			p.CorrectionCount++
			return nil
		})
		s.Require().NoError(err)
		s.Equal(1, p.CorrectionCount)
		s.Equal(concern.CategoryViolence, p.Category)
	})

	s.Run("fn error leaves profile untouched", func() {
		_, err := s.store.UpdateProfile(s.ctx, "f", concern.CategoryViolence, func(p *models.FamilyBiasProfile) error {
			p.CorrectionCount = 99
			return errors.New("boom")
		})
		s.Error(err)
		p, err := s.store.FindProfile(s.ctx, "f", concern.CategoryViolence)
		s.Require().NoError(err)
		s.Equal(1, p.CorrectionCount)
	})
}

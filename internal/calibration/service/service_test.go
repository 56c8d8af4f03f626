package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vigil/internal/calibration/models"
	"vigil/internal/calibration/store/memory"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/requestcontext"
)

// Justification for unit tests: threshold resolution order and bias
// arithmetic decide whether a child's activity reaches a guardian. The
// boundaries (inclusive thresholds, clamping, activation count) are easy to
// get subtly wrong and are cheap to pin here.
type CalibrationSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.InMemory
	resolver *ThresholdResolver
	bias     *BiasEngine
}

func TestCalibrationSuite(t *testing.T) {
	suite.Run(t, new(CalibrationSuite))
}

func (s *CalibrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemory()
	s.resolver = NewThresholdResolver(s.store)
	s.bias = NewBiasEngine(s.store, s.store)
}

func (s *CalibrationSuite) putLevel(family domain.FamilyID, level models.SensitivityLevel, overrides map[concern.Category]int) {
	s.Require().NoError(s.store.PutSensitivity(s.ctx, models.FamilySensitivityConfig{
		FamilyID: family, Level: level, CategoryOverrides: overrides,
	}))
}

func (s *CalibrationSuite) TestEffectiveThreshold() {
	s.putLevel("sensitive", models.LevelSensitive, nil)
	s.putLevel("balanced", models.LevelBalanced, nil)
	s.putLevel("relaxed", models.LevelRelaxed, map[concern.Category]int{concern.CategoryBullying: 55})

	cases := []struct {
		name     string
		family   domain.FamilyID
		category concern.Category
		want     int
	}{
		{"sensitive level", "sensitive", concern.CategoryViolence, 60},
		{"balanced level", "balanced", concern.CategoryViolence, 75},
		{"relaxed level", "relaxed", concern.CategoryViolence, 90},
		{"override wins over level", "relaxed", concern.CategoryBullying, 55},
		{"missing config defaults silently", "unknown", concern.CategoryViolence, 75},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			got, err := s.resolver.EffectiveThreshold(s.ctx, tc.family, tc.category)
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}

	s.Run("store failure is reported", func() {
		r := NewThresholdResolver(failingStore{})
		_, err := r.EffectiveThreshold(s.ctx, "f", concern.CategoryViolence)
		s.Error(err)
	})
}

func (s *CalibrationSuite) TestAdjust() {
	s.Require().NoError(s.store.PutApproval(s.ctx, models.AppApprovalRecord{
		SubjectID: "kid", AppIdentifier: "approved.app", Category: concern.CategoryViolence, Status: models.ApprovalApproved,
	}))
	s.Require().NoError(s.store.PutApproval(s.ctx, models.AppApprovalRecord{
		SubjectID: "kid", AppIdentifier: "banned.app", Category: concern.CategoryViolence, Status: models.ApprovalDisapproved,
	}))

	s.Run("approved app lowers confidence by 20", func() {
		got, err := s.bias.Adjust(s.ctx, 80, "fam", "kid", "approved.app", concern.CategoryViolence)
		s.Require().NoError(err)
		s.Equal(60, got)
	})

	s.Run("disapproved app raises and clamps", func() {
		got, err := s.bias.Adjust(s.ctx, 90, "fam", "kid", "banned.app", concern.CategoryViolence)
		s.Require().NoError(err)
		s.Equal(100, got)
	})

	s.Run("approval is per category", func() {
		got, err := s.bias.Adjust(s.ctx, 80, "fam", "kid", "approved.app", concern.CategoryDrugs)
		s.Require().NoError(err)
		s.Equal(80, got)
	})

	s.Run("no app identifier skips approval lookup", func() {
		got, err := s.bias.Adjust(s.ctx, 42, "fam", "kid", "", concern.CategoryViolence)
		s.Require().NoError(err)
		s.Equal(42, got)
	})
}

func (s *CalibrationSuite) TestAdjustWithFamilyBias() {
	builder := NewProfileBuilder(s.store)
	ctx := requestcontext.WithTime(s.ctx, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	for i := range models.MinCorrections - 1 {
		p, err := builder.RecordCorrection(ctx, "fam", concern.CategoryGambling, models.CorrectionFalsePositive)
		s.Require().NoError(err)
		s.Equal(i+1, p.CorrectionCount)
	}

	s.Run("inactive profile is ignored", func() {
		got, err := s.bias.Adjust(s.ctx, 70, "fam", "kid", "", concern.CategoryGambling)
		s.Require().NoError(err)
		s.Equal(70, got)
	})

	_, err := builder.RecordCorrection(ctx, "fam", concern.CategoryGambling, models.CorrectionFalsePositive)
	s.Require().NoError(err)

	s.Run("active profile applies", func() {
		got, err := s.bias.Adjust(s.ctx, 70, "fam", "kid", "", concern.CategoryGambling)
		s.Require().NoError(err)
		s.Equal(45, got)
	})

	s.Run("family bias then approval, clamped at zero", func() {
		s.Require().NoError(s.store.PutApproval(s.ctx, models.AppApprovalRecord{
			SubjectID: "kid", AppIdentifier: "cards.app", Category: concern.CategoryGambling, Status: models.ApprovalApproved,
		}))
		got, err := s.bias.Adjust(s.ctx, 30, "fam", "kid", "cards.app", concern.CategoryGambling)
		s.Require().NoError(err)
		s.Equal(0, got)
	})

	s.Run("unknown correction kind is rejected", func() {
		_, err := builder.RecordCorrection(ctx, "fam", concern.CategoryGambling, "whatever")
		s.Error(err)
	})
}

func (s *CalibrationSuite) TestApplyAdjustmentsClampsEachStep() {
	// +20 on 95 clamps to 100 before the approval's -20 brings it to 80.
	profile := &models.FamilyBiasProfile{Adjustment: 20, CorrectionCount: 10}
	approval := &models.AppApprovalRecord{Status: models.ApprovalApproved}
	s.Equal(80, ApplyAdjustments(95, profile, approval))
	s.Equal(100, ApplyAdjustments(150, nil, nil))
	s.Equal(0, ApplyAdjustments(-3, nil, nil))
}

func (s *CalibrationSuite) TestApplyAdjustmentsBoundsStoredProfile() {
	// A stored adjustment outside -50..+20 is applied at the bound.
	low := &models.FamilyBiasProfile{Adjustment: -80, CorrectionCount: 10}
	s.Equal(30, ApplyAdjustments(80, low, nil))

	high := &models.FamilyBiasProfile{Adjustment: 45, CorrectionCount: 10}
	s.Equal(70, ApplyAdjustments(50, high, nil))
}

func (s *CalibrationSuite) TestVolumeTracker() {
	tracker := NewVolumeTracker(time.Hour)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Equal(1, tracker.Record("fam", concern.CategoryDrugs, t0))
	s.Equal(2, tracker.Record("fam", concern.CategoryDrugs, t0.Add(30*time.Minute)))
	s.Equal(1, tracker.Record("fam", concern.CategoryViolence, t0.Add(30*time.Minute)))
	s.Equal(2, tracker.Record("fam", concern.CategoryDrugs, t0.Add(61*time.Minute)))
	s.Equal(0, tracker.Count("fam", concern.CategoryDrugs, t0.Add(3*time.Hour)))
}

type failingStore struct{}

func (failingStore) FindSensitivity(context.Context, domain.FamilyID) (*models.FamilySensitivityConfig, error) {
	return nil, errors.New("connection refused")
}

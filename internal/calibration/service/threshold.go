package service

import (
	"context"
	"errors"
	"fmt"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

// ThresholdResolver computes the advisory confidence bar for a family and
// category. It never applies the safety floor; callers do.
type ThresholdResolver struct {
	configs SensitivityReader
}

func NewThresholdResolver(configs SensitivityReader) *ThresholdResolver {
	return &ThresholdResolver{configs: configs}
}

// EffectiveThreshold returns a value in [50,95]. A family without config gets
// the default silently; only store failures are errors.
func (r *ThresholdResolver) EffectiveThreshold(ctx context.Context, familyID domain.FamilyID, category concern.Category) (int, error) {
	cfg, err := r.configs.FindSensitivity(ctx, familyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.DefaultThreshold, nil
		}
		return 0, fmt.Errorf("load family sensitivity: %w", err)
	}
	return ResolveThreshold(cfg, category), nil
}

// ResolveThreshold applies override, then level, then default.
func ResolveThreshold(cfg *models.FamilySensitivityConfig, category concern.Category) int {
	if cfg == nil {
		return models.DefaultThreshold
	}
	if t, ok := cfg.CategoryOverrides[category]; ok &&
		t >= models.MinOverrideThreshold && t <= models.MaxOverrideThreshold {
		return t
	}
	if t, ok := cfg.Level.Threshold(); ok {
		return t
	}
	return models.DefaultThreshold
}

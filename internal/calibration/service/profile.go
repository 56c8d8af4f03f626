package service

import (
	"context"
	"fmt"
	"log/slog"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/requestcontext"
)

// ProfileBuilder folds guardian corrections into family bias profiles.
type ProfileBuilder struct {
	profiles ProfileStore
	logger   *slog.Logger
}

type ProfileOption func(*ProfileBuilder)

func WithLogger(logger *slog.Logger) ProfileOption {
	return func(b *ProfileBuilder) {
		b.logger = logger
	}
}

func NewProfileBuilder(profiles ProfileStore, opts ...ProfileOption) *ProfileBuilder {
	b := &ProfileBuilder{profiles: profiles}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RecordCorrection applies one correction and returns the updated profile.
func (b *ProfileBuilder) RecordCorrection(ctx context.Context, familyID domain.FamilyID, category concern.Category, kind models.CorrectionKind) (*models.FamilyBiasProfile, error) {
	if _, err := kind.Delta(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	profile, err := b.profiles.UpdateProfile(ctx, familyID, category, func(p *models.FamilyBiasProfile) error {
		return p.Apply(kind, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update bias profile: %w", err)
	}
	if b.logger != nil {
		b.logger.InfoContext(ctx, "bias correction recorded",
			"family_id", familyID,
			"correction_count", profile.CorrectionCount,
			"active", profile.Active(),
		)
	}
	return profile, nil
}

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

// BiasEngine adjusts raw classifier confidence with family history and
// per-app guardian approvals. It applies no floor.
type BiasEngine struct {
	profiles  ProfileStore
	approvals ApprovalReader
}

func NewBiasEngine(profiles ProfileStore, approvals ApprovalReader) *BiasEngine {
	return &BiasEngine{profiles: profiles, approvals: approvals}
}

// Adjust returns the adjusted confidence in [0,100].
func (e *BiasEngine) Adjust(
	ctx context.Context,
	rawConfidence int,
	familyID domain.FamilyID,
	subjectID domain.SubjectID,
	appIdentifier string,
	category concern.Category,
) (int, error) {
	profile, err := e.profiles.FindProfile(ctx, familyID, category)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, fmt.Errorf("load bias profile: %w", err)
	}

	var approval *models.AppApprovalRecord
	if appIdentifier != "" {
		approval, err = e.approvals.FindApproval(ctx, subjectID, appIdentifier, category)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return 0, fmt.Errorf("load app approval: %w", err)
		}
	}

	return ApplyAdjustments(rawConfidence, profile, approval), nil
}

// ApplyAdjustments is the pure part of Adjust. Either input may be nil.
func ApplyAdjustments(rawConfidence int, profile *models.FamilyBiasProfile, approval *models.AppApprovalRecord) int {
	v := models.Clamp(rawConfidence, 0, 100)
	if profile != nil && profile.Active() {
		adj := models.Clamp(profile.Adjustment, models.MinBiasAdjustment, models.MaxBiasAdjustment)
		v = models.Clamp(v+adj, 0, 100)
	}
	if approval != nil {
		v = models.Clamp(v+approval.Status.Adjustment(), 0, 100)
	}
	return v
}

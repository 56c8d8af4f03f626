package service

import (
	"context"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
)

// SensitivityReader returns sentinel.ErrNotFound when a family has no config.
type SensitivityReader interface {
	FindSensitivity(ctx context.Context, familyID domain.FamilyID) (*models.FamilySensitivityConfig, error)
}

// ApprovalReader returns sentinel.ErrNotFound when no guardian verdict exists.
type ApprovalReader interface {
	FindApproval(ctx context.Context, subjectID domain.SubjectID, appIdentifier string, category concern.Category) (*models.AppApprovalRecord, error)
}

// ProfileStore persists family bias profiles. UpdateProfile runs fn against
// the current profile (zero-valued when absent) and saves the result
// atomically.
type ProfileStore interface {
	FindProfile(ctx context.Context, familyID domain.FamilyID, category concern.Category) (*models.FamilyBiasProfile, error)
	UpdateProfile(ctx context.Context, familyID domain.FamilyID, category concern.Category, fn func(*models.FamilyBiasProfile) error) (*models.FamilyBiasProfile, error)
}

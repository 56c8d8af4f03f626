package service

import (
	"context"
	"time"

	"vigil/internal/concern"
	"vigil/pkg/domain"
)

// Guard answers whether a candidate's context is a crisis resource.
type Guard interface {
	Check(domain, text string) bool
}

// Adjuster applies family and app calibration to raw confidence.
type Adjuster interface {
	Adjust(ctx context.Context, rawConfidence int, familyID domain.FamilyID, subjectID domain.SubjectID, appIdentifier string, category concern.Category) (int, error)
}

// ThresholdSource resolves the advisory threshold for a family and category.
type ThresholdSource interface {
	EffectiveThreshold(ctx context.Context, familyID domain.FamilyID, category concern.Category) (int, error)
}

// FlagStore persists created flags.
type FlagStore interface {
	Save(ctx context.Context, flag *concern.Flag) error
}

// Router hands a created flag to notification routing. Errors are the
// router's to record; the decision path only logs them.
type Router interface {
	RouteFlag(ctx context.Context, flag concern.Flag) error
}

// Publisher emits flag created events.
type Publisher interface {
	PublishFlagCreated(ctx context.Context, flag concern.Flag) error
}

// VolumeRecorder counts recent flags per family and category.
type VolumeRecorder interface {
	Record(familyID domain.FamilyID, category concern.Category, at time.Time) int
}

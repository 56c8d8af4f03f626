// Package models holds the family calibration inputs: sensitivity settings,
// app approvals and accumulated bias profiles.
package models

import (
	"fmt"
	"time"

	"vigil/internal/concern"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

const (
	// AlwaysFlagThreshold is the safety floor. Adjusted confidence at or above
	// it is flagged regardless of any family configuration.
	AlwaysFlagThreshold = 95
	// DefaultThreshold applies when a family has no sensitivity config.
	DefaultThreshold = 75

	MinOverrideThreshold = 50
	MaxOverrideThreshold = 95

	MinBiasAdjustment = -50
	MaxBiasAdjustment = 20
	// MinCorrections is how many corrections a bias profile needs before it
	// influences confidence.
	MinCorrections = 5
)

// SensitivityLevel is the family-wide sensitivity preset.
type SensitivityLevel string

const (
	LevelSensitive SensitivityLevel = "sensitive"
	LevelBalanced  SensitivityLevel = "balanced"
	LevelRelaxed   SensitivityLevel = "relaxed"
)

var levelThresholds = map[SensitivityLevel]int{
	LevelSensitive: 60,
	LevelBalanced:  75,
	LevelRelaxed:   90,
}

// ParseSensitivityLevel validates a level name.
func ParseSensitivityLevel(raw string) (SensitivityLevel, error) {
	l := SensitivityLevel(raw)
	if _, ok := levelThresholds[l]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown sensitivity level %q", raw))
	}
	return l, nil
}

// Threshold returns the level's confidence bar.
func (l SensitivityLevel) Threshold() (int, bool) {
	t, ok := levelThresholds[l]
	return t, ok
}

// FamilySensitivityConfig is owned by the family; vigil only reads it.
type FamilySensitivityConfig struct {
	FamilyID          domain.FamilyID
	Level             SensitivityLevel
	CategoryOverrides map[concern.Category]int
}

// Validate enforces the option table at the boundary.
func (c FamilySensitivityConfig) Validate() error {
	if c.FamilyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "family_id is required")
	}
	if _, ok := c.Level.Threshold(); !ok {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown sensitivity level %q", c.Level))
	}
	for cat, t := range c.CategoryOverrides {
		if t < MinOverrideThreshold || t > MaxOverrideThreshold {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("override for %s must be between %d and %d", cat, MinOverrideThreshold, MaxOverrideThreshold))
		}
	}
	return nil
}

// ApprovalStatus is a guardian's verdict on an app for a category.
type ApprovalStatus string

const (
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalDisapproved ApprovalStatus = "disapproved"
	ApprovalNeutral     ApprovalStatus = "neutral"
)

// Adjustment is the confidence delta for the status.
func (s ApprovalStatus) Adjustment() int {
	switch s {
	case ApprovalApproved:
		return -20
	case ApprovalDisapproved:
		return 15
	default:
		return 0
	}
}

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalApproved, ApprovalDisapproved, ApprovalNeutral:
		return true
	}
	return false
}

// AppApprovalRecord is set by a guardian per monitored subject.
type AppApprovalRecord struct {
	SubjectID     domain.SubjectID
	AppIdentifier string
	Category      concern.Category
	Status        ApprovalStatus
}

// FamilyBiasProfile accumulates guardian corrections for one category.
type FamilyBiasProfile struct {
	FamilyID        domain.FamilyID
	Category        concern.Category
	Adjustment      int
	CorrectionCount int
	UpdatedAt       time.Time
}

// Active reports whether the profile has enough history to apply.
func (p FamilyBiasProfile) Active() bool {
	return p.CorrectionCount >= MinCorrections
}

// CorrectionKind is a guardian's feedback on a past decision.
type CorrectionKind string

const (
	// CorrectionFalsePositive: a flag the guardian considered harmless.
	CorrectionFalsePositive CorrectionKind = "false_positive"
	// CorrectionMissedConcern: something the guardian thinks should have been flagged.
	CorrectionMissedConcern CorrectionKind = "missed_concern"
)

// Delta is the per-correction change to the bias adjustment.
func (k CorrectionKind) Delta() (int, error) {
	switch k {
	case CorrectionFalsePositive:
		return -5, nil
	case CorrectionMissedConcern:
		return 5, nil
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown correction kind %q", k))
}

// Apply folds one correction into the profile, clamping the adjustment.
func (p *FamilyBiasProfile) Apply(kind CorrectionKind, at time.Time) error {
	delta, err := kind.Delta()
	if err != nil {
		return err
	}
	p.Adjustment = Clamp(p.Adjustment+delta, MinBiasAdjustment, MaxBiasAdjustment)
	p.CorrectionCount++
	p.UpdatedAt = at
	return nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

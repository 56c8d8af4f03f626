// Package concern holds the model shared by the decision and notification
// paths: categories, severities, candidates and flags.
package concern

import (
	"fmt"
	"strings"
	"time"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// Category is the classifier's label for a candidate. Categories are open
// ended; the ones named here carry special handling.
type Category string

const (
	CategorySelfHarm       Category = "self_harm"
	CategorySuicide        Category = "suicide"
	CategoryEatingDisorder Category = "eating_disorder"
	CategoryViolence       Category = "violence"
	CategoryWeapons        Category = "weapons"
	CategoryGrooming       Category = "grooming"
	CategoryBullying       Category = "bullying"
	CategoryAdultContent   Category = "adult_content"
	CategoryDrugs          Category = "drugs"
	CategoryHateSpeech     Category = "hate_speech"
	CategoryGambling       Category = "gambling"
)

const maxCategoryLength = 64

// ParseCategory lowercases and validates a category label.
func ParseCategory(raw string) (Category, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category is required")
	}
	if len(c) > maxCategoryLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category too long")
	}
	for _, r := range c {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "category must be a lowercase token")
		}
	}
	return Category(c), nil
}

func (c Category) String() string { return string(c) }

// SafetyAdjacent reports categories whose discarded candidates must leave no
// log trace.
func (c Category) SafetyAdjacent() bool {
	switch c {
	case CategorySelfHarm, CategorySuicide, CategoryEatingDisorder:
		return true
	}
	return false
}

// Severity is a closed variant. The zero value means "not provided".
type Severity int

const (
	SeverityUnspecified Severity = iota
	SeverityLow
	SeverityMedium
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityCritical:
		return "critical"
	default:
		return "unspecified"
	}
}

// ParseSeverity accepts "low", "medium" or "critical".
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "critical":
		return SeverityCritical, nil
	}
	return SeverityUnspecified, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown severity %q", raw))
}

func (s Severity) MarshalText() ([]byte, error) {
	if s == SeverityUnspecified {
		return nil, fmt.Errorf("cannot marshal unspecified severity")
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Max returns the higher of two severities.
func Max(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

var defaultSeverity = map[Category]Severity{
	CategorySelfHarm:       SeverityCritical,
	CategorySuicide:        SeverityCritical,
	CategoryGrooming:       SeverityCritical,
	CategoryWeapons:        SeverityCritical,
	CategoryEatingDisorder: SeverityMedium,
	CategoryViolence:       SeverityMedium,
	CategoryBullying:       SeverityMedium,
	CategoryDrugs:          SeverityMedium,
	CategoryHateSpeech:     SeverityMedium,
	CategoryAdultContent:   SeverityLow,
	CategoryGambling:       SeverityLow,
}

// DefaultSeverity is used when the classifier did not supply one.
// Unknown categories are medium.
func DefaultSeverity(c Category) Severity {
	if s, ok := defaultSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

// Candidate is a single classifier signal awaiting a decision. It is
// transient and never stored as-is.
type Candidate struct {
	Category      Category
	RawConfidence int
	ContextDomain string
	ContextText   string
	FamilyID      domain.FamilyID
	SubjectID     domain.SubjectID
	AppIdentifier string
	Severity      Severity
	EventID       string
}

// Validate checks the candidate at the intake boundary.
func (c Candidate) Validate() error {
	if c.Category == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "category is required")
	}
	if c.RawConfidence < 0 || c.RawConfidence > 100 {
		return dErrors.New(dErrors.CodeInvalidInput, "raw_confidence must be between 0 and 100")
	}
	if c.FamilyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "family_id is required")
	}
	if c.SubjectID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	return nil
}

// EffectiveSeverity is the upstream severity or the category default.
func (c Candidate) EffectiveSeverity() Severity {
	if c.Severity != SeverityUnspecified {
		return c.Severity
	}
	return DefaultSeverity(c.Category)
}

// Flag is a persisted, guardian-visible alert. Immutable once created.
type Flag struct {
	ID         domain.FlagID
	FamilyID   domain.FamilyID
	SubjectID  domain.SubjectID
	Category   Category
	Severity   Severity
	Confidence int
	EventID    string
	CreatedAt  time.Time
}

// EventKey identifies the underlying content event. Flags without an event
// id stand alone.
func (f Flag) EventKey() string {
	if f.EventID != "" {
		return f.EventID
	}
	return f.ID.String()
}

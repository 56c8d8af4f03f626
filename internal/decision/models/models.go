// Package models holds decision outcomes.
package models

import "vigil/internal/concern"

// Outcome is the result of evaluating one candidate.
type Outcome int

const (
	OutcomeDiscarded Outcome = iota
	OutcomeCreated
	OutcomeSuppressed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "discarded"
	}
}

// Result carries the flag only when Outcome is OutcomeCreated. There is no
// reason field: a suppressed result is indistinguishable from any other
// beyond its Outcome.
type Result struct {
	Outcome Outcome
	Flag    *concern.Flag
}

func Created(flag *concern.Flag) Result { return Result{Outcome: OutcomeCreated, Flag: flag} }

func Discarded() Result { return Result{Outcome: OutcomeDiscarded} }

func Suppressed() Result { return Result{Outcome: OutcomeSuppressed} }

// FlagCreatedEvent is published for every persisted flag.
type FlagCreatedEvent struct {
	FlagID     string `json:"flag_id"`
	FamilyID   string `json:"family_id"`
	SubjectID  string `json:"subject_id"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Confidence int    `json:"confidence"`
	CreatedAt  string `json:"created_at"`
}

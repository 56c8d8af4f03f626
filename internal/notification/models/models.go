// Package models describes guardian preferences, queued deliveries and
// delivery outcomes.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vigil/internal/concern"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// ErrThrottled is returned by a transport that refused a send because the
// recipient exceeded their send budget. The send may be retried later.
var ErrThrottled = errors.New("recipient send rate exceeded")

// MediumMode selects how medium severity flags reach a guardian.
type MediumMode string

const (
	MediumImmediate MediumMode = "immediate"
	MediumDigest    MediumMode = "digest"
)

// DigestType is the flush cadence a queued item belongs to.
type DigestType string

const (
	DigestHourly DigestType = "hourly"
	DigestDaily  DigestType = "daily"
)

// Preference is one guardian's notification settings. It is never shared
// with or derived from another guardian's.
type Preference struct {
	GuardianID      domain.GuardianID
	FamilyID        domain.FamilyID
	CriticalEnabled bool
	MediumMode      MediumMode
	LowEnabled      bool
	QuietHoursStart string // "HH:MM", empty for none
	QuietHoursEnd   string
	Timezone        string // IANA name, empty for UTC
}

// ClockLayout is the "HH:MM" 24h form of quiet-hour bounds.
const ClockLayout = "15:04"

// Validate checks the enumerated options, the quiet-hour clock values and
// the timezone. Stores call it before persisting.
func (p Preference) Validate() error {
	if p.GuardianID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "guardian_id is required")
	}
	switch p.MediumMode {
	case MediumImmediate, MediumDigest:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("medium_mode must be immediate or digest, got %q", p.MediumMode))
	}
	if (p.QuietHoursStart == "") != (p.QuietHoursEnd == "") {
		return dErrors.New(dErrors.CodeInvalidInput, "quiet hours need both start and end")
	}
	for _, clock := range []string{p.QuietHoursStart, p.QuietHoursEnd} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse(ClockLayout, clock); err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("quiet hours %q must be HH:MM", clock))
		}
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown timezone %q", p.Timezone))
		}
	}
	return nil
}

// Payload is what a push transport receives. It never names the category:
// push previews are visible on lock screens.
type Payload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeepLink string `json:"deep_link"`
	// Urgent marks critical alerts. Transports must not throttle them.
	Urgent bool `json:"urgent,omitempty"`
}

// DigestItem is a flag waiting for the next flush for one guardian.
type DigestItem struct {
	ID         uuid.UUID
	GuardianID domain.GuardianID
	SubjectID  domain.SubjectID
	FlagID     domain.FlagID
	EventKey   string
	Severity   concern.Severity
	DigestType DigestType
	QueuedAt   time.Time
}

// PendingDelivery is an immediate notification deferred by quiet hours.
type PendingDelivery struct {
	ID         uuid.UUID
	GuardianID domain.GuardianID
	FlagID     domain.FlagID
	DeliverAt  time.Time
	Payload    Payload
	CreatedAt  time.Time
}

// DeliveryKind distinguishes history rows for deduplication.
type DeliveryKind string

const (
	KindImmediate DeliveryKind = "immediate"
	KindDigest    DeliveryKind = "digest"
)

// DeliveryStatus is the recorded status of a delivery attempt.
type DeliveryStatus string

const (
	StatusSent     DeliveryStatus = "sent"
	StatusFailed   DeliveryStatus = "failed"
	StatusDeferred DeliveryStatus = "deferred"
)

// HistoryEntry is an append-only record of a delivery attempt. FlagID is
// nil for failed digest sends that cover several flags.
type HistoryEntry struct {
	ID         uuid.UUID
	GuardianID domain.GuardianID
	FlagID     *domain.FlagID
	Kind       DeliveryKind
	Status     DeliveryStatus
	Detail     string
	SentAt     time.Time
}

// Outcome is what routing did for one guardian.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeFailed
	OutcomeDeferred
	OutcomeQueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeQueued:
		return "queued"
	default:
		return "skipped"
	}
}

// Delivery is the per-guardian routing result.
type Delivery struct {
	GuardianID domain.GuardianID
	Outcome    Outcome
	Reason     string     // set for OutcomeFailed
	DeliverAt  time.Time  // set for OutcomeDeferred
	DigestType DigestType // set for OutcomeQueued
}

func Sent(g domain.GuardianID) Delivery { return Delivery{GuardianID: g, Outcome: OutcomeSent} }

func Failed(g domain.GuardianID, reason string) Delivery {
	return Delivery{GuardianID: g, Outcome: OutcomeFailed, Reason: reason}
}

func Deferred(g domain.GuardianID, at time.Time) Delivery {
	return Delivery{GuardianID: g, Outcome: OutcomeDeferred, DeliverAt: at}
}

func Queued(g domain.GuardianID, t DigestType) Delivery {
	return Delivery{GuardianID: g, Outcome: OutcomeQueued, DigestType: t}
}

func Skipped(g domain.GuardianID) Delivery { return Delivery{GuardianID: g, Outcome: OutcomeSkipped} }

// FlushReport summarizes one digest flush.
type FlushReport struct {
	Groups  int
	Sent    int
	Failed  int
	Cleared int // items removed without sending because history shows them sent
}

// ParseMediumMode normalizes user input.
func ParseMediumMode(raw string) (MediumMode, error) {
	m := MediumMode(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MediumImmediate, MediumDigest:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("medium_mode must be immediate or digest, got %q", raw))
}

package service

import (
	"time"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/internal/notification/quiethours"
)

// Action is the routing decision for one guardian.
type Action int

const (
	ActionSkip Action = iota
	ActionImmediate
	ActionDefer
	ActionDigest
)

// Plan is the pure routing decision for one guardian and flag.
type Plan struct {
	Action     Action
	DeliverAt  time.Time         // ActionDefer
	DigestType models.DigestType // ActionDigest
}

// PlanDelivery decides what to do for one guardian. It reads nothing but the
// flag, that guardian's preference and the clock. A nil preference notifies
// nothing.
func PlanDelivery(flag concern.Flag, pref *models.Preference, now time.Time) Plan {
	if pref == nil {
		return Plan{Action: ActionSkip}
	}
	switch flag.Severity {
	case concern.SeverityCritical:
		if pref.CriticalEnabled {
			return Plan{Action: ActionImmediate}
		}
		return Plan{Action: ActionSkip}
	case concern.SeverityMedium:
		switch pref.MediumMode {
		case models.MediumImmediate:
			return immediateOrDeferred(*pref, flag.Severity, now)
		case models.MediumDigest:
			return Plan{Action: ActionDigest, DigestType: models.DigestHourly}
		default:
			return Plan{Action: ActionSkip}
		}
	case concern.SeverityLow:
		if pref.LowEnabled {
			return Plan{Action: ActionDigest, DigestType: models.DigestDaily}
		}
		return Plan{Action: ActionSkip}
	default:
		return Plan{Action: ActionSkip}
	}
}

func immediateOrDeferred(pref models.Preference, severity concern.Severity, now time.Time) Plan {
	if !quiethours.IsQuietFor(pref, severity, now) {
		return Plan{Action: ActionImmediate}
	}
	return Plan{Action: ActionDefer, DeliverAt: quiethours.DeferUntil(pref, now)}
}

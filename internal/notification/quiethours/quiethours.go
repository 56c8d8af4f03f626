// Package quiethours evaluates guardian quiet-hour windows. Windows are
// half-open [start, end) in the guardian's timezone and may wrap midnight.
package quiethours

import (
	"fmt"
	"time"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	dErrors "vigil/pkg/domain-errors"
)

// Window is a parsed quiet-hours configuration.
type Window struct {
	start int // minutes after local midnight
	end   int
	loc   *time.Location
}

// ParseClock parses "HH:MM" in 24h form.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(models.ClockLayout, s)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("quiet hours %q must be HH:MM", s))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FromPreference returns the guardian's window. ok is false when no window
// is configured or start equals end.
func FromPreference(p models.Preference) (w Window, ok bool, err error) {
	if p.QuietHoursStart == "" && p.QuietHoursEnd == "" {
		return Window{}, false, nil
	}
	if w.start, err = ParseClock(p.QuietHoursStart); err != nil {
		return Window{}, false, err
	}
	if w.end, err = ParseClock(p.QuietHoursEnd); err != nil {
		return Window{}, false, err
	}
	w.loc = time.UTC
	if p.Timezone != "" {
		if w.loc, err = time.LoadLocation(p.Timezone); err != nil {
			return Window{}, false, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown timezone %q", p.Timezone))
		}
	}
	return w, w.start != w.end, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	local := t.In(w.loc)
	m := local.Hour()*60 + local.Minute()
	if w.start < w.end {
		return m >= w.start && m < w.end
	}
	return m >= w.start || m < w.end
}

// NextEnd returns the first window end strictly after t.
func (w Window) NextEnd(t time.Time) time.Time {
	local := t.In(w.loc)
	y, mo, d := local.Date()
	end := time.Date(y, mo, d, w.end/60, w.end%60, 0, 0, w.loc)
	if !end.After(t) {
		end = time.Date(y, mo, d+1, w.end/60, w.end%60, 0, 0, w.loc)
	}
	return end
}

// IsQuiet reports whether now is inside the guardian's quiet hours. A
// missing or malformed window is never quiet.
func IsQuiet(p models.Preference, now time.Time) bool {
	w, ok, err := FromPreference(p)
	if err != nil || !ok {
		return false
	}
	return w.Contains(now)
}

// IsQuietFor applies the critical override: critical severity is never quiet.
func IsQuietFor(p models.Preference, severity concern.Severity, now time.Time) bool {
	if severity == concern.SeverityCritical {
		return false
	}
	return IsQuiet(p, now)
}

// DeferUntil returns when a delivery held by quiet hours may go out, or
// now when it need not be held.
func DeferUntil(p models.Preference, now time.Time) time.Time {
	w, ok, err := FromPreference(p)
	if err != nil || !ok || !w.Contains(now) {
		return now
	}
	return w.NextEnd(now)
}

package service

import (
	"sync"
	"time"

	"vigil/internal/concern"
	"vigil/pkg/domain"
)

const (
	defaultVolumeWindow = time.Hour
	sweepEvery          = 1024
)

type volumeKey struct {
	family   domain.FamilyID
	category concern.Category
}

// slidingWindow holds event timestamps in ascending order.
type slidingWindow struct {
	timestamps []time.Time
}

func (sw *slidingWindow) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// VolumeTracker counts flags per family and category over a sliding window.
// Counts are advisory: out-of-order timestamps are tolerated, not reordered.
type VolumeTracker struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[volumeKey]*slidingWindow
	records int
}

func NewVolumeTracker(window time.Duration) *VolumeTracker {
	if window <= 0 {
		window = defaultVolumeWindow
	}
	return &VolumeTracker{
		window:  window,
		buckets: make(map[volumeKey]*slidingWindow),
	}
}

// Record notes one flag at time at and returns the count within the window,
// including this one.
func (t *VolumeTracker) Record(familyID domain.FamilyID, category concern.Category, at time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := volumeKey{familyID, category}
	sw := t.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		t.buckets[key] = sw
	}
	sw.cleanup(at, t.window)
	sw.timestamps = append(sw.timestamps, at)

	t.records++
	if t.records%sweepEvery == 0 {
		t.sweep(at)
	}
	return len(sw.timestamps)
}

// Count returns the current count without recording.
func (t *VolumeTracker) Count(familyID domain.FamilyID, category concern.Category, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	sw := t.buckets[volumeKey{familyID, category}]
	if sw == nil {
		return 0
	}
	sw.cleanup(now, t.window)
	return len(sw.timestamps)
}

// sweep drops empty windows. Must be called with t.mu held.
func (t *VolumeTracker) sweep(now time.Time) {
	for k, sw := range t.buckets {
		sw.cleanup(now, t.window)
		if len(sw.timestamps) == 0 {
			delete(t.buckets, k)
		}
	}
}

package sender

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"vigil/internal/notification/metrics"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

// ErrThrottled is returned when a recipient exceeded their send budget.
var ErrThrottled = models.ErrThrottled

// Sender is the transport being decorated.
type Sender interface {
	Send(ctx context.Context, recipient domain.GuardianID, payload models.Payload) error
}

// RateLimited caps sends per recipient so a burst of flags cannot flood one
// guardian's device. Urgent payloads always pass and do not spend budget.
// Refused sends return ErrThrottled; routing defers them.
type RateLimited struct {
	next    Sender
	metrics *metrics.Metrics

	mu         sync.Mutex
	limiters   map[domain.GuardianID]*rate.Limiter
	lastAccess map[domain.GuardianID]time.Time
	limit      rate.Limit
	burst      int
}

func NewRateLimited(next Sender, perMinute int, m *metrics.Metrics) *RateLimited {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &RateLimited{
		next:       next,
		metrics:    m,
		limiters:   make(map[domain.GuardianID]*rate.Limiter),
		lastAccess: make(map[domain.GuardianID]time.Time),
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      max(1, perMinute/10),
	}
}

func (r *RateLimited) Send(ctx context.Context, recipient domain.GuardianID, payload models.Payload) error {
	if !payload.Urgent && !r.allow(recipient) {
		r.metrics.IncThrottled()
		return ErrThrottled
	}
	return r.next.Send(ctx, recipient, payload)
}

func (r *RateLimited) allow(recipient domain.GuardianID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	limiter, ok := r.limiters[recipient]
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.limiters[recipient] = limiter
	}
	r.lastAccess[recipient] = time.Now()
	return limiter.Allow()
}

// Evict drops limiters idle for longer than maxAge.
func (r *RateLimited) Evict(maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	for g, last := range r.lastAccess {
		if last.Before(cutoff) {
			delete(r.limiters, g)
			delete(r.lastAccess, g)
		}
	}
}

package service

import (
	"context"
	"log/slog"
	"time"

	"vigil/pkg/requestcontext"
)

// Scheduler drives the digest and deferred-release jobs on their own
// timers. It only calls the services; all coordination with routing goes
// through the persisted queue.
type Scheduler struct {
	digests      *DigestManager
	releaser     *Releaser
	hourly       time.Duration
	dailyHourUTC int
	releaseEvery time.Duration
	logger       *slog.Logger
}

func NewScheduler(digests *DigestManager, releaser *Releaser, hourly time.Duration, dailyHourUTC int, releaseEvery time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		digests:      digests,
		releaser:     releaser,
		hourly:       hourly,
		dailyHourUTC: dailyHourUTC,
		releaseEvery: releaseEvery,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	hourly := time.NewTicker(s.hourly)
	defer hourly.Stop()
	release := time.NewTicker(s.releaseEvery)
	defer release.Stop()
	daily := time.NewTimer(time.Until(NextDailyRun(time.Now(), s.dailyHourUTC)))
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hourly.C:
			if _, err := s.digests.FlushHourly(jobContext(ctx)); err != nil {
				s.logger.ErrorContext(ctx, "hourly digest flush failed", "error", err)
			}
		case <-daily.C:
			if _, err := s.digests.FlushDaily(jobContext(ctx)); err != nil {
				s.logger.ErrorContext(ctx, "daily digest flush failed", "error", err)
			}
			daily.Reset(time.Until(NextDailyRun(time.Now(), s.dailyHourUTC)))
		case <-release.C:
			if _, err := s.releaser.ReleaseDue(jobContext(ctx)); err != nil {
				s.logger.ErrorContext(ctx, "deferred release failed", "error", err)
			}
		}
	}
}

// jobContext pins one "now" for the whole batch.
func jobContext(ctx context.Context) context.Context {
	return requestcontext.WithTime(ctx, time.Now().UTC())
}

// NextDailyRun returns the next occurrence of hourUTC:00 strictly after now.
func NextDailyRun(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

package allowlist

import (
	"context"
	"log/slog"
	"time"
)

// Syncer keeps the cache current: a full refresh on the regular schedule and
// a cheap manifest poll that forces an out-of-cycle refresh when the remote
// raises its emergency flag on a new version.
type Syncer struct {
	cache             *Cache
	interval          time.Duration
	emergencyInterval time.Duration
	logger            *slog.Logger
}

func NewSyncer(cache *Cache, interval, emergencyInterval time.Duration, logger *slog.Logger) *Syncer {
	return &Syncer{
		cache:             cache,
		interval:          interval,
		emergencyInterval: emergencyInterval,
		logger:            logger,
	}
}

// Run blocks until ctx is cancelled. Without a remote source there is
// nothing to sync and it returns immediately.
func (s *Syncer) Run(ctx context.Context) {
	if s.cache.remote == nil {
		s.logger.InfoContext(ctx, "allowlist sync disabled: no remote configured")
		return
	}

	refresh := time.NewTicker(s.interval)
	defer refresh.Stop()
	emergency := time.NewTicker(s.emergencyInterval)
	defer emergency.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			if _, err := s.cache.Refresh(ctx, false); err != nil {
				s.logger.WarnContext(ctx, "scheduled allowlist refresh failed; keeping current dataset", "error", err)
			}
		case <-emergency.C:
			if _, err := s.CheckEmergency(ctx); err != nil {
				s.logger.WarnContext(ctx, "allowlist emergency poll failed", "error", err)
			}
		}
	}
}

// CheckEmergency polls the manifest and force-refreshes when an emergency
// version differs from the active one. It reports whether a refresh ran.
func (s *Syncer) CheckEmergency(ctx context.Context) (bool, error) {
	m, err := s.cache.Manifest(ctx)
	if err != nil {
		return false, err
	}
	if !m.Emergency || m.Version == s.cache.Current().Dataset.Version {
		return false, nil
	}
	s.logger.WarnContext(ctx, "emergency allowlist version published, re-syncing", "version", m.Version)
	if _, err := s.cache.Refresh(ctx, true); err != nil {
		return false, err
	}
	return true, nil
}

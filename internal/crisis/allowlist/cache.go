// Package allowlist resolves and holds the process-wide crisis allowlist.
//
// Resolution order is remote, then last-known cache, then the bundled
// snapshot, then a hard-coded baseline. Readers always see a complete,
// non-empty dataset: refreshes build a new snapshot and swap the pointer.
package allowlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vigil/internal/crisis/matcher"
	"vigil/internal/crisis/metrics"
	"vigil/internal/crisis/models"
	"vigil/pkg/platform/sentinel"
)

// RemoteSource is the live allowlist service.
type RemoteSource interface {
	Fetch(ctx context.Context) (*models.Dataset, error)
	Manifest(ctx context.Context) (*models.Manifest, error)
}

// LastKnownStore persists the most recent remote dataset. Load returns
// sentinel.ErrNotFound when nothing has been saved yet.
type LastKnownStore interface {
	Load(ctx context.Context) (*models.Dataset, error)
	Save(ctx context.Context, ds *models.Dataset) error
}

// Snapshot is an immutable resolved allowlist.
type Snapshot struct {
	Dataset  *models.Dataset
	Matcher  *matcher.Matcher
	Source   models.Source
	LoadedAt time.Time
}

// Status summarizes the snapshot for operators.
func (s *Snapshot) Status() models.Status {
	return models.Status{
		Version:   s.Dataset.Version,
		Source:    s.Source,
		Entries:   s.Matcher.Len(),
		Emergency: s.Dataset.Emergency,
		LoadedAt:  s.LoadedAt,
	}
}

// RefreshResult reports what a refresh did.
type RefreshResult struct {
	Updated bool
	Status  models.Status
}

// Cache holds the active snapshot.
type Cache struct {
	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex

	remote    RemoteSource
	lastKnown LastKnownStore
	bundled   func() *models.Dataset
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithBundled replaces the embedded snapshot. Tests use it to exercise the
// baseline tier.
func WithBundled(fn func() *models.Dataset) Option {
	return func(c *Cache) {
		c.bundled = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New returns a cache already holding the baseline, so Current is usable
// before Load. remote and lastKnown may be nil.
func New(remote RemoteSource, lastKnown LastKnownStore, opts ...Option) *Cache {
	c := &Cache{
		remote:    remote,
		lastKnown: lastKnown,
		bundled:   Bundled,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.swap(Baseline(), models.SourceBaseline)
	return c
}

// Current returns the active snapshot. Never nil, never empty.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Load resolves the allowlist through every tier and installs the first
// usable dataset. It cannot fail.
func (c *Cache) Load(ctx context.Context) models.Status {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if ds, err := c.fetchRemote(ctx); err == nil {
		c.swap(ds, models.SourceRemote)
		c.persist(ctx, ds)
		return c.Current().Status()
	}
	if ds, err := c.loadLastKnown(ctx); err == nil {
		c.swap(ds, models.SourceCache)
		return c.Current().Status()
	}
	if ds := c.bundled(); usable(ds) == nil {
		c.metrics.IncRefresh(string(models.SourceBundled), "ok")
		c.swap(ds, models.SourceBundled)
		return c.Current().Status()
	}
	c.logger.ErrorContext(ctx, "bundled allowlist unusable, running on baseline")
	c.swap(Baseline(), models.SourceBaseline)
	return c.Current().Status()
}

// Refresh pulls the remote dataset. Without force an unchanged version is a
// no-op; force (emergency) re-installs and re-persists regardless. On remote
// failure the active dataset is kept, upgraded to the last-known cache if it
// is currently running on an embedded tier.
func (c *Cache) Refresh(ctx context.Context, force bool) (RefreshResult, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ds, err := c.fetchRemote(ctx)
	if err != nil {
		cur := c.Current()
		if cur.Source == models.SourceBundled || cur.Source == models.SourceBaseline {
			if cached, cerr := c.loadLastKnown(ctx); cerr == nil {
				c.swap(cached, models.SourceCache)
				return RefreshResult{Updated: true, Status: c.Current().Status()}, fmt.Errorf("refresh allowlist: %w", err)
			}
		}
		return RefreshResult{Status: cur.Status()}, fmt.Errorf("refresh allowlist: %w", err)
	}

	cur := c.Current()
	if !force && cur.Source == models.SourceRemote && cur.Dataset.Version == ds.Version {
		c.metrics.IncRefresh(string(models.SourceRemote), "unchanged")
		return RefreshResult{Status: cur.Status()}, nil
	}

	c.swap(ds, models.SourceRemote)
	c.persist(ctx, ds)
	status := c.Current().Status()
	c.logger.InfoContext(ctx, "crisis allowlist refreshed",
		"version", status.Version,
		"entries", status.Entries,
		"emergency", ds.Emergency,
		"forced", force,
	)
	return RefreshResult{Updated: true, Status: status}, nil
}

// Manifest probes the remote version without swapping anything.
func (c *Cache) Manifest(ctx context.Context) (*models.Manifest, error) {
	if c.remote == nil {
		return nil, fmt.Errorf("allowlist remote: %w", sentinel.ErrUnavailable)
	}
	return c.remote.Manifest(ctx)
}

func (c *Cache) fetchRemote(ctx context.Context) (*models.Dataset, error) {
	if c.remote == nil {
		return nil, fmt.Errorf("allowlist remote: %w", sentinel.ErrUnavailable)
	}
	ds, err := c.remote.Fetch(ctx)
	if err == nil {
		err = usable(ds)
	}
	if err != nil {
		c.metrics.IncRefresh(string(models.SourceRemote), "error")
		c.logger.WarnContext(ctx, "allowlist remote tier failed", "error", err)
		return nil, err
	}
	c.metrics.IncRefresh(string(models.SourceRemote), "ok")
	return ds, nil
}

func (c *Cache) loadLastKnown(ctx context.Context) (*models.Dataset, error) {
	if c.lastKnown == nil {
		return nil, sentinel.ErrNotFound
	}
	ds, err := c.lastKnown.Load(ctx)
	if err == nil {
		err = usable(ds)
	}
	if err != nil {
		c.metrics.IncRefresh(string(models.SourceCache), "error")
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "allowlist cache tier failed", "error", err)
		}
		return nil, err
	}
	c.metrics.IncRefresh(string(models.SourceCache), "ok")
	return ds, nil
}

// persist is best effort: a cache write failure never undoes a good swap.
func (c *Cache) persist(ctx context.Context, ds *models.Dataset) {
	if c.lastKnown == nil {
		return
	}
	if err := c.lastKnown.Save(ctx, ds); err != nil {
		c.logger.WarnContext(ctx, "failed to persist allowlist to cache tier", "error", err)
	}
}

// usable accepts datasets that validate and compile to at least one pattern.
func usable(ds *models.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if matcher.New(ds).Len() == 0 {
		return fmt.Errorf("%w: no entry normalizes to a domain", sentinel.ErrInvalidDataset)
	}
	return nil
}

// swap installs ds, which must be usable.
func (c *Cache) swap(ds *models.Dataset, source models.Source) {
	m := matcher.New(ds)
	c.current.Store(&Snapshot{
		Dataset:  ds,
		Matcher:  m,
		Source:   source,
		LoadedAt: c.now(),
	})
	c.metrics.SetActive(string(source), m.Len())
}

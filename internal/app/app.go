// Package app assembles the engine from configuration. The HTTP server and
// the operator CLI share it so both run against the same stores.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"

	calservice "vigil/internal/calibration/service"
	calmemory "vigil/internal/calibration/store/memory"
	calpostgres "vigil/internal/calibration/store/postgres"
	"vigil/internal/crisis/allowlist"
	"vigil/internal/crisis/guard"
	crisismetrics "vigil/internal/crisis/metrics"
	crisisfile "vigil/internal/crisis/store/file"
	crisisredis "vigil/internal/crisis/store/redis"
	decisionmetrics "vigil/internal/decision/metrics"
	"vigil/internal/decision/publisher"
	decisionservice "vigil/internal/decision/service"
	flagmemory "vigil/internal/decision/store/memory"
	flagpostgres "vigil/internal/decision/store/postgres"
	notifymetrics "vigil/internal/notification/metrics"
	"vigil/internal/notification/sender"
	notifyservice "vigil/internal/notification/service"
	notifymemory "vigil/internal/notification/store/memory"
	notifypostgres "vigil/internal/notification/store/postgres"
	"vigil/internal/platform/config"
	"vigil/internal/platform/kafka"
	"vigil/internal/platform/middleware/auth"
	"vigil/internal/platform/postgres"
	vredis "vigil/internal/platform/redis"
)

// limiterIdleAfter is how long a recipient's send limiter survives without use.
const limiterIdleAfter = 30 * time.Minute

// App holds the wired components.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Redis *vredis.Client
	Kafka *kgo.Client

	Allowlist *allowlist.Cache
	Syncer    *allowlist.Syncer
	Guard     *guard.Guard

	Thresholds *calservice.ThresholdResolver
	Bias       *calservice.BiasEngine
	Profiles   *calservice.ProfileBuilder
	Volume     *calservice.VolumeTracker

	Decision *decisionservice.Service

	Orchestrator *notifyservice.Orchestrator
	Digests      *notifyservice.DigestManager
	Releaser     *notifyservice.Releaser
	Scheduler    *notifyservice.Scheduler
	limiter      *sender.RateLimited

	Tokens *auth.TokenService
}

// stores groups the persistence backends picked by configuration.
type stores struct {
	sensitivity calservice.SensitivityReader
	approvals   calservice.ApprovalReader
	profiles    calservice.ProfileStore
	flags       decisionservice.FlagStore
	prefs       notifyservice.PreferenceReader
	queue       notifyservice.DigestQueue
	history     notifyservice.HistoryStore
	pending     notifyservice.PendingStore
}

// Build connects to the configured backends and wires every service. The
// allowlist is resolved before Build returns, so the guard is usable at once.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	st := a.stores()

	crisisMetrics := crisismetrics.New()
	if err := a.buildCrisis(ctx, crisisMetrics); err != nil {
		a.Close()
		return nil, err
	}

	a.Thresholds = calservice.NewThresholdResolver(st.sensitivity)
	a.Bias = calservice.NewBiasEngine(st.profiles, st.approvals)
	a.Profiles = calservice.NewProfileBuilder(st.profiles, calservice.WithLogger(logger))
	a.Volume = calservice.NewVolumeTracker(time.Hour)

	if err := a.buildNotification(st); err != nil {
		a.Close()
		return nil, err
	}

	opts := []decisionservice.Option{
		decisionservice.WithLogger(logger),
		decisionservice.WithMetrics(decisionmetrics.New()),
		decisionservice.WithRouter(a.Orchestrator),
		decisionservice.WithVolumeRecorder(a.Volume),
	}
	if a.Kafka != nil {
		opts = append(opts, decisionservice.WithPublisher(publisher.NewKafkaPublisher(a.Kafka, cfg.Kafka.FlagTopic)))
	}
	a.Decision = decisionservice.New(a.Guard, a.Bias, a.Thresholds, st.flags, opts...)

	a.Tokens = auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	var err error
	if a.Config.Database.URL != "" {
		if a.Pool, err = postgres.NewPool(ctx, a.Config.Database, a.Logger); err != nil {
			return err
		}
		if err = postgres.Migrate(ctx, a.Pool); err != nil {
			return err
		}
	} else {
		a.Logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	if a.Redis, err = vredis.New(ctx, a.Config.Redis); err != nil {
		return err
	}

	if a.Kafka, err = kafka.NewClient(ctx, a.Config.Kafka); err != nil {
		return err
	}
	if a.Kafka != nil {
		if err = kafka.EnsureTopics(ctx, a.Kafka, a.Logger, a.Config.Kafka.FlagTopic); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) stores() stores {
	if a.Pool != nil {
		cal := calpostgres.New(a.Pool)
		notify := notifypostgres.New(a.Pool)
		return stores{
			sensitivity: cal,
			approvals:   cal,
			profiles:    cal,
			flags:       flagpostgres.New(a.Pool),
			prefs:       notify,
			queue:       notify,
			history:     notify,
			pending:     notifypostgres.NewPendingStore(a.Pool),
		}
	}
	cal := calmemory.NewInMemory()
	notify := notifymemory.NewInMemory()
	return stores{
		sensitivity: cal,
		approvals:   cal,
		profiles:    cal,
		flags:       flagmemory.NewInMemoryFlagStore(),
		prefs:       notify,
		queue:       notify,
		history:     notify,
		pending:     notifymemory.NewPendingDeliveries(),
	}
}

func (a *App) buildCrisis(ctx context.Context, m *crisismetrics.Metrics) error {
	cfg := a.Config.Allowlist

	var remote allowlist.RemoteSource
	if cfg.RemoteURL != "" {
		src, err := allowlist.NewHTTPSource(allowlist.HTTPSourceConfig{
			DatasetURL:  cfg.RemoteURL,
			ManifestURL: cfg.ManifestURL,
			Timeout:     cfg.FetchTimeout,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("crisis allowlist source: %w", err)
		}
		remote = src
	}

	var lastKnown allowlist.LastKnownStore
	switch cfg.CacheBackend {
	case config.CacheBackendFile:
		lastKnown = crisisfile.New(cfg.CacheFile)
	case config.CacheBackendRedis:
		if a.Redis == nil {
			return fmt.Errorf("allowlist redis cache requires a redis connection")
		}
		lastKnown = crisisredis.New(a.Redis.Client, cfg.RedisKey)
	}

	a.Allowlist = allowlist.New(remote, lastKnown,
		allowlist.WithLogger(a.Logger),
		allowlist.WithMetrics(m),
	)
	status := a.Allowlist.Load(ctx)
	a.Logger.InfoContext(ctx, "crisis allowlist loaded",
		"version", status.Version,
		"source", status.Source,
		"entries", status.Entries,
	)
	a.Syncer = allowlist.NewSyncer(a.Allowlist, cfg.RefreshInterval, cfg.EmergencyPollInterval, a.Logger)
	a.Guard = guard.New(a.Allowlist, guard.WithMetrics(m))
	return nil
}

func (a *App) buildNotification(st stores) error {
	cfg := a.Config
	m := notifymetrics.New()

	var transport notifyservice.Sender
	if cfg.Delivery.WebhookURL != "" {
		ws, err := sender.NewWebhookSender(sender.WebhookConfig{
			URL:        cfg.Delivery.WebhookURL,
			AuthToken:  cfg.Delivery.WebhookToken,
			Timeout:    cfg.Delivery.Timeout,
			MaxRetries: 2,
		}, a.Logger, m)
		if err != nil {
			return fmt.Errorf("push sender: %w", err)
		}
		transport = ws
	} else {
		a.Logger.Warn("PUSH_WEBHOOK_URL not set, notifications are logged only")
		transport = sender.NewLogSender(a.Logger)
	}
	a.limiter = sender.NewRateLimited(transport, cfg.Delivery.PerRecipientPerMinute, m)

	opts := []notifyservice.Option{
		notifyservice.WithLogger(a.Logger),
		notifyservice.WithMetrics(m),
		notifyservice.WithDeepLinkBase(cfg.Delivery.DeepLinkBase),
	}
	var err error
	if a.Orchestrator, err = notifyservice.NewOrchestrator(st.prefs, st.queue, st.history, st.pending, a.limiter, opts...); err != nil {
		return err
	}
	if a.Digests, err = notifyservice.NewDigestManager(st.queue, st.history, a.limiter, cfg.Digest.StaleHourlyAfter, opts...); err != nil {
		return err
	}
	if a.Releaser, err = notifyservice.NewReleaser(st.pending, st.history, a.limiter, opts...); err != nil {
		return err
	}
	a.Scheduler = notifyservice.NewScheduler(a.Digests, a.Releaser,
		cfg.Digest.HourlyInterval, cfg.Digest.DailyHourUTC, cfg.Digest.DeferredPollInterval, a.Logger)
	return nil
}

// RunBackground starts the allowlist syncer, the digest scheduler and
// limiter cleanup. They stop when ctx is cancelled.
func (a *App) RunBackground(ctx context.Context) {
	go a.Syncer.Run(ctx)
	go a.Scheduler.Run(ctx)
	go func() {
		ticker := time.NewTicker(limiterIdleAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.limiter.Evict(limiterIdleAfter)
			}
		}
	}()
}

// Close waits for in-flight flag side effects, then releases connections.
func (a *App) Close() {
	if a.Decision != nil {
		a.Decision.Wait()
	}
	if a.Kafka != nil {
		a.Kafka.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

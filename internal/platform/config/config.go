package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration, built from the environment so
// main stays lean.
type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Allowlist Allowlist
	Delivery  Delivery
	Digest    Digest
	Auth      Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
}

// Log selects the slog handler.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Database configures the Postgres pool. An empty URL selects in-memory stores.
type Database struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig configures the optional Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the flag event publisher. No brokers disables publishing.
type Kafka struct {
	Brokers   []string
	FlagTopic string
	ClientID  string
}

// Allowlist configures crisis allowlist sourcing and sync.
type Allowlist struct {
	RemoteURL             string
	ManifestURL           string // optional; emergency polling fetches the full dataset without it
	FetchTimeout          time.Duration
	RefreshInterval       time.Duration
	EmergencyPollInterval time.Duration
	CacheBackend          string // file, redis, none
	CacheFile             string
	RedisKey              string
}

// Delivery configures the push sender.
type Delivery struct {
	WebhookURL            string
	WebhookToken          string
	Timeout               time.Duration
	PerRecipientPerMinute int
	DeepLinkBase          string
}

// Digest configures the scheduled flush jobs.
type Digest struct {
	HourlyInterval       time.Duration
	DailyHourUTC         int
	DeferredPollInterval time.Duration
	StaleHourlyAfter     time.Duration
}

// Auth configures service-token verification on the intake and admin API.
type Auth struct {
	SigningKey string
	Issuer     string
	Audience   string
}

const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// DefaultConfig returns development defaults.
func DefaultConfig() Config {
	return Config{
		Server: Server{Addr: ":8080", Environment: "development"},
		Log:    Log{Level: "info", Format: "json"},
		Database: Database{
			MaxConns: 10,
			MinConns: 2,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Kafka: Kafka{
			FlagTopic: "vigil.flags.created",
			ClientID:  "vigil",
		},
		Allowlist: Allowlist{
			FetchTimeout:          2 * time.Second,
			RefreshInterval:       6 * time.Hour,
			EmergencyPollInterval: 5 * time.Minute,
			CacheBackend:          CacheBackendFile,
			CacheFile:             "/var/lib/vigil/crisis-allowlist.yaml",
			RedisKey:              "vigil:crisis:allowlist",
		},
		Delivery: Delivery{
			Timeout:               5 * time.Second,
			PerRecipientPerMinute: 30,
			DeepLinkBase:          "vigil://",
		},
		Digest: Digest{
			HourlyInterval:       time.Hour,
			DailyHourUTC:         8,
			DeferredPollInterval: time.Minute,
			StaleHourlyAfter:     2 * time.Hour,
		},
		Auth: Auth{
			Issuer:   "vigil",
			Audience: "vigil-intake",
		},
	}
}

// FromEnv overlays environment variables on DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.Server.Addr = getEnv("VIGIL_ADDR", cfg.Server.Addr)
	cfg.Server.Environment = getEnv("VIGIL_ENV", cfg.Server.Environment)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Kafka.Brokers = getList("KAFKA_BROKERS")
	cfg.Kafka.FlagTopic = getEnv("KAFKA_FLAG_TOPIC", cfg.Kafka.FlagTopic)

	cfg.Allowlist.RemoteURL = os.Getenv("ALLOWLIST_URL")
	cfg.Allowlist.ManifestURL = os.Getenv("ALLOWLIST_MANIFEST_URL")
	cfg.Allowlist.CacheBackend = getEnv("ALLOWLIST_CACHE", cfg.Allowlist.CacheBackend)
	cfg.Allowlist.CacheFile = getEnv("ALLOWLIST_CACHE_FILE", cfg.Allowlist.CacheFile)

	cfg.Delivery.WebhookURL = os.Getenv("PUSH_WEBHOOK_URL")
	cfg.Delivery.WebhookToken = os.Getenv("PUSH_WEBHOOK_TOKEN")
	cfg.Delivery.DeepLinkBase = getEnv("DEEP_LINK_BASE", cfg.Delivery.DeepLinkBase)

	cfg.Auth.SigningKey = os.Getenv("SERVICE_TOKEN_KEY")
	if cfg.Auth.SigningKey == "" && cfg.Server.Environment == "development" {
		// Development default; production must set SERVICE_TOKEN_KEY.
		cfg.Auth.SigningKey = "dev-secret-key-change-in-production"
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ALLOWLIST_FETCH_TIMEOUT", &cfg.Allowlist.FetchTimeout},
		{"ALLOWLIST_REFRESH_INTERVAL", &cfg.Allowlist.RefreshInterval},
		{"ALLOWLIST_EMERGENCY_POLL_INTERVAL", &cfg.Allowlist.EmergencyPollInterval},
		{"PUSH_TIMEOUT", &cfg.Delivery.Timeout},
		{"DIGEST_HOURLY_INTERVAL", &cfg.Digest.HourlyInterval},
		{"DEFERRED_POLL_INTERVAL", &cfg.Digest.DeferredPollInterval},
		{"DIGEST_STALE_HOURLY_AFTER", &cfg.Digest.StaleHourlyAfter},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, *d.dst); err != nil {
			return Config{}, err
		}
	}
	if cfg.Digest.DailyHourUTC, err = getInt("DIGEST_DAILY_HOUR_UTC", cfg.Digest.DailyHourUTC); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.PerRecipientPerMinute, err = getInt("PUSH_PER_RECIPIENT_PER_MINUTE", cfg.Delivery.PerRecipientPerMinute); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("SERVICE_TOKEN_KEY is required outside development"))
	}
	if c.Allowlist.FetchTimeout <= 0 {
		errs = append(errs, errors.New("allowlist fetch timeout must be positive"))
	}
	switch c.Allowlist.CacheBackend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown allowlist cache backend %q", c.Allowlist.CacheBackend))
	}
	if c.Allowlist.CacheBackend == CacheBackendRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("ALLOWLIST_CACHE=redis requires REDIS_URL"))
	}
	if c.Digest.DailyHourUTC < 0 || c.Digest.DailyHourUTC > 23 {
		errs = append(errs, fmt.Errorf("daily digest hour %d out of range 0-23", c.Digest.DailyHourUTC))
	}
	if c.Digest.HourlyInterval <= 0 || c.Digest.DeferredPollInterval <= 0 {
		errs = append(errs, errors.New("digest intervals must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

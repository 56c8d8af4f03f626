package allowlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"vigil/internal/crisis/models"
	"vigil/pkg/platform/circuit"
	"vigil/pkg/platform/sentinel"
)

const (
	defaultFetchTimeout = 2 * time.Second
	maxDatasetBytes     = 4 << 20
	userAgent           = "vigil-allowlist/1"
)

// HTTPSource fetches the allowlist over HTTP. There is no retry: a slow or
// failing remote must fall through to the cache tier quickly, and the circuit
// breaker skips the remote entirely after repeated failures.
type HTTPSource struct {
	client      *http.Client
	datasetURL  string
	manifestURL string
	timeout     time.Duration
	breaker     *circuit.Breaker
	logger      *slog.Logger
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	DatasetURL  string
	ManifestURL string
	Timeout     time.Duration
}

func NewHTTPSource(cfg HTTPSourceConfig, logger *slog.Logger) (*HTTPSource, error) {
	for _, raw := range []string{cfg.DatasetURL, cfg.ManifestURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("allowlist URL must use http or https scheme, got %q", u.Scheme)
		}
	}
	if cfg.DatasetURL == "" {
		return nil, fmt.Errorf("allowlist dataset URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		client:      &http.Client{Timeout: timeout},
		datasetURL:  cfg.DatasetURL,
		manifestURL: cfg.ManifestURL,
		timeout:     timeout,
		breaker: circuit.New("crisis-allowlist",
			circuit.WithFailureThreshold(3),
			circuit.WithSuccessThreshold(1),
			circuit.WithProbeInterval(time.Minute),
		),
		logger: logger,
	}, nil
}

// Fetch downloads and decodes the full dataset. Validation is the caller's job.
func (s *HTTPSource) Fetch(ctx context.Context) (*models.Dataset, error) {
	var ds models.Dataset
	if err := s.get(ctx, s.datasetURL, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Manifest returns the remote version and emergency flag. Without a manifest
// endpoint it is derived from the full dataset.
func (s *HTTPSource) Manifest(ctx context.Context) (*models.Manifest, error) {
	if s.manifestURL == "" {
		ds, err := s.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &models.Manifest{Version: ds.Version, Emergency: ds.Emergency}, nil
	}
	var m models.Manifest
	if err := s.get(ctx, s.manifestURL, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *HTTPSource) get(ctx context.Context, target string, out any) error {
	if !s.breaker.AllowPrimary() {
		return fmt.Errorf("allowlist remote circuit open: %w", sentinel.ErrUnavailable)
	}
	err := s.doGet(ctx, target, out)
	if err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "allowlist remote circuit opened", "url", RedactURL(target))
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "allowlist remote circuit closed", "url", RedactURL(target))
	}
	return nil
}

func (s *HTTPSource) doGet(ctx context.Context, target string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", RedactURL(target), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: HTTP %d", RedactURL(target), resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDatasetBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", RedactURL(target), err)
	}
	return nil
}

// RedactURL strips credentials, query and path, keeping scheme and host.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid-url]"
	}
	return u.Scheme + "://" + u.Host
}

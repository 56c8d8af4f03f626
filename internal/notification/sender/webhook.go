// Package sender implements push transports for guardian notifications.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"vigil/internal/notification/metrics"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 2
	userAgent         = "vigil-notifier/1"
)

// WebhookConfig configures a WebhookSender.
type WebhookConfig struct {
	URL        string
	AuthToken  string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the linear retry step: attempt n waits n*Backoff.
	Backoff time.Duration
}

// WebhookSender posts notifications to a push gateway as JSON.
type WebhookSender struct {
	client     *http.Client
	url        string
	authToken  string
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// webhookEnvelope is the wire format of one push request.
type webhookEnvelope struct {
	Recipient string `json:"recipient"`
	models.Payload
	SentAt time.Time `json:"sent_at"`
}

func NewWebhookSender(cfg WebhookConfig, logger *slog.Logger, m *metrics.Metrics) (*WebhookSender, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &WebhookSender{
		client:     &http.Client{Timeout: timeout},
		url:        cfg.URL,
		authToken:  cfg.AuthToken,
		maxRetries: retries,
		backoff:    backoff,
		logger:     logger,
		metrics:    m,
	}, nil
}

// Send posts one notification, retrying transient failures.
func (ws *WebhookSender) Send(ctx context.Context, recipient domain.GuardianID, payload models.Payload) error {
	start := time.Now()
	body, err := json.Marshal(webhookEnvelope{
		Recipient: recipient.String(),
		Payload:   payload,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	err = ws.doSend(ctx, body)
	result := "success"
	if err != nil {
		result = "error"
	}
	ws.metrics.ObserveSend(result, time.Since(start))
	return err
}

func (ws *WebhookSender) doSend(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := range ws.maxRetries + 1 {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * ws.backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			}
		}

		lastErr = ws.doPost(ctx, body)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		ws.logger.DebugContext(ctx, "webhook send transient failure, will retry",
			"attempt", attempt+1,
			"url", RedactURL(ws.url),
			"error", lastErr,
		)
	}
	return fmt.Errorf("webhook send failed after %d attempts: %w", ws.maxRetries+1, lastErr)
}

func (ws *WebhookSender) doPost(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if ws.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+ws.authToken)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return &webhookError{err: err, retryable: true}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &webhookError{
		err:       fmt.Errorf("webhook returned HTTP %d", resp.StatusCode),
		retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
	}
}

// webhookError wraps an error with a retryable flag.
type webhookError struct {
	err       error
	retryable bool
}

func (e *webhookError) Error() string { return e.err.Error() }
func (e *webhookError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var we *webhookError
	if errors.As(err, &we) {
		return we.retryable
	}
	return true
}

// RedactURL keeps scheme and host only.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid-url]"
	}
	return u.Scheme + "://" + u.Host
}

package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vigil/internal/notification/metrics"
)

// common holds the ambient dependencies shared by the routing, digest and
// release services.
type common struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	deepLinkBase string
}

func defaults() common {
	return common{
		logger:       slog.Default(),
		tracer:       otel.Tracer("vigil/notification"),
		deepLinkBase: "vigil://",
	}
}

type Option func(*common)

func WithLogger(logger *slog.Logger) Option {
	return func(c *common) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *common) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *common) {
		c.tracer = t
	}
}

// WithDeepLinkBase sets the app link prefix used in payloads.
func WithDeepLinkBase(base string) Option {
	return func(c *common) {
		if base != "" {
			c.deepLinkBase = base
		}
	}
}

func apply(opts []Option) common {
	c := defaults()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

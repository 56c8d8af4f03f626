// Package guard decides whether a candidate touched a crisis resource.
//
// The answer is a bare boolean. Nothing about the match (which entry, which
// input, how close) leaves this package: no return value, no log line, no
// labelled metric.
package guard

import (
	"vigil/internal/crisis/allowlist"
	"vigil/internal/crisis/metrics"
)

type Guard struct {
	cache   *allowlist.Cache
	metrics *metrics.Metrics
}

type Option func(*Guard)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func New(cache *allowlist.Cache, opts ...Option) *Guard {
	g := &Guard{cache: cache}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reports whether the candidate context must be suppressed. Either
// argument may be empty.
func (g *Guard) Check(domain, text string) bool {
	if domain == "" && text == "" {
		return false
	}
	if !g.cache.Current().Matcher.Match(domain, text) {
		return false
	}
	g.metrics.IncSuppressed()
	return true
}

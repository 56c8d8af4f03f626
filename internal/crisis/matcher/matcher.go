// Package matcher decides whether a domain or free text refers to a crisis
// resource. It answers yes or no and nothing else.
package matcher

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"vigil/internal/crisis/models"
	pstrings "vigil/pkg/platform/strings"
)

const (
	// Labels shorter than this are matched exactly only.
	minFuzzyLength = 6
	// Max edit distance relative to the longer string, and max length skew.
	maxRatio = 0.15
	// A label matches under another TLD only when it is at least this long
	// and identical. Shorter labels are ordinary words ("lifeline").
	minTLDSwapLength = 13
	// Upper bound on domain-like tokens inspected per text.
	maxTextTokens = 64
)

var domainToken = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}`)

type pattern struct {
	host        string
	registrable string
	// label is empty for patterns naming a specific subdomain; those are
	// compared host to host.
	label string
}

// Matcher is immutable after New and safe for concurrent use.
type Matcher struct {
	patterns []pattern
	hosts    map[string]struct{}
	safe     map[string]struct{}
}

// New compiles a dataset. Patterns that do not normalize are skipped.
func New(ds *models.Dataset) *Matcher {
	m := &Matcher{
		hosts: make(map[string]struct{}),
		safe:  make(map[string]struct{}),
	}
	if ds == nil {
		return m
	}
	for _, e := range ds.Entries {
		host, ok := NormalizeHost(e.Pattern)
		if !ok {
			continue
		}
		if _, dup := m.hosts[host]; dup {
			continue
		}
		m.hosts[host] = struct{}{}
		p := pattern{host: host, registrable: RegistrableDomain(host)}
		if p.registrable == host {
			p.label, _ = splitLabel(host)
		}
		m.patterns = append(m.patterns, p)
	}
	for _, d := range pstrings.DedupeAndTrimLower(ds.SafeDomains) {
		if host, ok := NormalizeHost(d); ok {
			m.safe[RegistrableDomain(host)] = struct{}{}
		}
	}
	return m
}

// Len is the number of compiled allowlist patterns.
func (m *Matcher) Len() int { return len(m.patterns) }

// Match reports whether either input refers to a crisis resource.
func (m *Matcher) Match(domain, text string) bool {
	if domain != "" && m.MatchDomain(domain) {
		return true
	}
	return text != "" && m.MatchText(text)
}

// MatchDomain checks a single host or URL.
func (m *Matcher) MatchDomain(raw string) bool {
	host, ok := NormalizeHost(raw)
	if !ok {
		return false
	}

	// Exact host or any subdomain of an allowlisted host.
	for h := host; ; {
		if _, hit := m.hosts[h]; hit {
			return true
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}

	reg := RegistrableDomain(host)
	if _, safe := m.safe[reg]; safe {
		return false
	}
	label, _ := splitLabel(reg)
	for _, p := range m.patterns {
		if p.fuzzyMatch(host, reg, label) {
			return true
		}
	}
	return false
}

// MatchText scans free text for domain-like tokens.
func (m *Matcher) MatchText(text string) bool {
	for _, tok := range domainToken.FindAllString(text, maxTextTokens) {
		if m.MatchDomain(tok) {
			return true
		}
	}
	return false
}

func (p pattern) fuzzyMatch(host, registrable, label string) bool {
	if p.label == "" {
		return similar(host, p.host)
	}
	if len(p.label) < minFuzzyLength {
		return false
	}
	// Registrable catches character typos; an identical distinctive label
	// catches TLD swaps.
	if similar(registrable, p.registrable) {
		return true
	}
	return len(p.label) >= minTLDSwapLength && label == p.label
}

func similar(a, b string) bool {
	la, lb := len(a), len(b)
	if la < minFuzzyLength || lb < minFuzzyLength {
		return false
	}
	longer := float64(max(la, lb))
	if float64(abs(la-lb))/longer > maxRatio {
		return false
	}
	d := levenshtein.ComputeDistance(a, b)
	return d <= maxDistance(min(la, lb)) && float64(d)/longer <= maxRatio
}

func maxDistance(n int) int {
	if n < 10 {
		return 1
	}
	return 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package matcher

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeHost reduces a URL, host or host:port to a bare lowercase host
// without "www.", scheme, credentials, port, path or query. ok is false when
// nothing host-like remains.
func NormalizeHost(raw string) (host string, ok bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "*.")
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimPrefix(s, "www.")

	if s == "" || !strings.Contains(s, ".") {
		return "", false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return "", false
		}
	}
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return "", false
	}
	return s, true
}

// RegistrableDomain returns eTLD+1 ("help.988lifeline.org" -> "988lifeline.org").
// Hosts that are themselves public suffixes are returned unchanged.
func RegistrableDomain(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// splitLabel separates the registrable label from its public suffix
// ("988lifeline.org" -> "988lifeline", "org").
func splitLabel(registrable string) (label, suffix string) {
	suffix, _ = publicsuffix.PublicSuffix(registrable)
	label = strings.TrimSuffix(registrable, "."+suffix)
	return label, suffix
}

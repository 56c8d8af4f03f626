// Package strings provides string slice utilities.
package strings

import (
	"strings"
)

// DedupeBy normalizes each element with fn, drops empty results and
// duplicates, and preserves first-seen order.
//
// Example:
//
//	DedupeBy([]string{" A.org", "a.org", ""}, strings.ToLower)
//	// Returns: []string{"a.org"}
func DedupeBy(values []string, fn func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := strings.TrimSpace(v)
		if fn != nil {
			normalized = fn(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}

// DedupeAndTrimLower trims, lowercases and deduplicates.
func DedupeAndTrimLower(values []string) []string {
	return DedupeBy(values, strings.ToLower)
}

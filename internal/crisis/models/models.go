// Package models describes the crisis-resource allowlist dataset.
package models

import (
	"fmt"
	"strings"
	"time"

	"vigil/pkg/platform/sentinel"
)

// CategoryCrisis is the only category an allowlist entry may carry.
const CategoryCrisis = "crisis"

// Entry is one crisis-resource domain pattern, e.g. "988lifeline.org" or
// "*.crisistextline.org".
type Entry struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Dataset is versioned and replaced as a whole, never patched.
type Dataset struct {
	Version     string   `json:"version" yaml:"version"`
	Emergency   bool     `json:"emergency" yaml:"emergency"`
	Entries     []Entry  `json:"entries" yaml:"entries"`
	SafeDomains []string `json:"safe_domains" yaml:"safe_domains"`
}

// Validate rejects datasets that must not replace a working one. An empty
// payload is never a successful sync.
func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil dataset", sentinel.ErrInvalidDataset)
	}
	if strings.TrimSpace(d.Version) == "" {
		return fmt.Errorf("%w: missing version", sentinel.ErrInvalidDataset)
	}
	if len(d.Entries) == 0 {
		return fmt.Errorf("%w: no entries", sentinel.ErrInvalidDataset)
	}
	for i, e := range d.Entries {
		if strings.TrimSpace(e.Pattern) == "" {
			return fmt.Errorf("%w: entry %d has empty pattern", sentinel.ErrInvalidDataset, i)
		}
		if e.Category != "" && e.Category != CategoryCrisis {
			return fmt.Errorf("%w: entry %d has category %q", sentinel.ErrInvalidDataset, i, e.Category)
		}
	}
	return nil
}

// Manifest is the lightweight version probe used for emergency polling.
type Manifest struct {
	Version   string `json:"version"`
	Emergency bool   `json:"emergency"`
}

// Source names the tier a dataset was resolved from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceBundled  Source = "bundled"
	SourceBaseline Source = "baseline"
)

// Status is what operators may see about the active dataset.
type Status struct {
	Version   string    `json:"version"`
	Source    Source    `json:"source"`
	Entries   int       `json:"entries"`
	Emergency bool      `json:"emergency"`
	LoadedAt  time.Time `json:"loaded_at"`
}

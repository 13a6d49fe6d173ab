package catalog

import (
	"errors"
	"fmt"
	"strings"

	"regcorpus/internal/contentstore"
)

var ErrSourceNotFound = errors.New("source not found")

// Source is one row of the source registry.
type Source struct {
	ID             string            `json:"source_id"`
	URL            string            `json:"url"`
	Domain         string            `json:"domain"`
	Kind           string            `json:"source_type"`
	Publisher      string            `json:"publisher"`
	CrawlFrequency string            `json:"crawl_freq,omitempty"`
	Version        string            `json:"version,omitempty"`
	Jurisdiction   string            `json:"jurisdiction,omitempty"`
	EffectiveFrom  string            `json:"effective_from,omitempty"`
	EffectiveTo    string            `json:"effective_to,omitempty"`
	Title          string            `json:"title,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// StorageKey is where the raw payload of the source lives in the content store.
func (s Source) StorageKey() string {
	return contentstore.Key(s.ID, s.Kind)
}

// RowError reports a catalog row that was skipped during load.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sources line %d: %s", e.Line, e.Reason)
}

// ItemID names the skipped row in run results and the failed-item ledger.
func (e *RowError) ItemID() string {
	return fmt.Sprintf("line %d", e.Line)
}

// Filter selects sources. Empty fields match everything; fields are ANDed
// and compared case-insensitively.
type Filter struct {
	Domain         string
	Kind           string
	Publisher      string
	CrawlFrequency string
	IDContains     string
}

func (f Filter) Match(s Source) bool {
	if f.Domain != "" && !strings.EqualFold(f.Domain, s.Domain) {
		return false
	}
	if f.Kind != "" && !strings.EqualFold(f.Kind, s.Kind) {
		return false
	}
	if f.Publisher != "" && !strings.EqualFold(f.Publisher, s.Publisher) {
		return false
	}
	if f.CrawlFrequency != "" && !strings.EqualFold(f.CrawlFrequency, s.CrawlFrequency) {
		return false
	}
	if f.IDContains != "" && !strings.Contains(strings.ToLower(s.ID), strings.ToLower(f.IDContains)) {
		return false
	}
	return true
}

package model

import (
	"fmt"
	"time"
)

// Stats holds the aggregate statistics of a crawl. Counters are always
// derived from page states by the aggregator, never mutated independently,
// so they cannot drift from the page collection.
type Stats struct {
	// PagesDiscovered is the total number of pages in the session.
	PagesDiscovered int `json:"pages_discovered"`

	// PagesCrawled is the count of pages in a terminal state.
	PagesCrawled int `json:"pages_crawled"`

	// BytesExtracted is the sum of content lengths of succeeded pages.
	BytesExtracted int `json:"bytes_extracted"`

	// ErrorsEncountered is the count of failed pages, plus one if a
	// session-level error was recorded.
	ErrorsEncountered int `json:"errors_encountered"`
}

// HumanBytes returns BytesExtracted as a human-readable size string,
// e.g. "512 B", "1.25 KB", "3.40 MB".
func (s Stats) HumanBytes() string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	switch {
	case s.BytesExtracted >= mb:
		return fmt.Sprintf("%.2f MB", float64(s.BytesExtracted)/mb)
	case s.BytesExtracted >= kb:
		return fmt.Sprintf("%.2f KB", float64(s.BytesExtracted)/kb)
	default:
		return fmt.Sprintf("%d B", s.BytesExtracted)
	}
}

// ConsolidatedResult is the final output of a crawl: the merged markdown
// document covering all succeeded pages, the derived statistics, and an
// optional session-level error. The session-level error is set only when
// the crawl as a whole could not complete; individual page failures live
// on their pages and in the stats.
type ConsolidatedResult struct {
	// Markdown is the consolidated document in discovery order, with a
	// per-page boundary header tracing each block back to its source.
	Markdown string `json:"markdown"`

	// Error is the session-level error message, empty on success.
	// Even when set, Markdown and Stats reflect whatever succeeded.
	Error string `json:"error,omitempty"`

	// Stats are the derived aggregate statistics.
	Stats Stats `json:"stats"`
}

// CrawlReport bundles everything a report writer needs: the session
// context, the final page list, and the consolidated result.
type CrawlReport struct {
	// Seed is the canonical seed URL of the session.
	Seed string `json:"seed"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl phase returned.
	FinishedAt time.Time `json:"finished_at"`

	// Pages is the final page list in discovery order.
	Pages []DiscoveredPage `json:"pages"`

	// Result is the consolidated output and statistics.
	Result *ConsolidatedResult `json:"result"`
}

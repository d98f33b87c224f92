package model

import "fmt"

// PageStatus represents the crawl state of a discovered page.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons, with String() providing the wire/report
// form. The enum is closed: every consumer switches exhaustively and treats
// unknown values as a bug.
type PageStatus int

const (
	// StatusPending is the initial state set by discovery.
	// The page is known but no worker has claimed it yet.
	StatusPending PageStatus = iota

	// StatusInProgress is set the instant a worker slot claims the page.
	StatusInProgress

	// StatusSucceeded is terminal: the fetch returned extracted content.
	StatusSucceeded

	// StatusFailed is terminal: the fetch errored or timed out.
	StatusFailed
)

// String returns the human-readable form used in reports and logs.
func (s PageStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in-progress"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is succeeded or failed.
// Terminal pages never transition again within a session.
func (s PageStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// MarshalText implements encoding.TextMarshaler so JSON reports carry
// the string form rather than the numeric constant.
func (s PageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting exactly
// the forms String produces, so emitted JSON reports decode back into
// the enum. Unknown names are rejected.
func (s *PageStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = StatusPending
	case "in-progress":
		*s = StatusInProgress
	case "succeeded":
		*s = StatusSucceeded
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown page status %q", string(text))
	}
	return nil
}

// ErrorKind classifies page-level and session-level fetch failures.
// The kind is always distinguishable programmatically; the caller is
// responsible for user-facing messaging.
type ErrorKind string

const (
	// KindNone means no error occurred.
	KindNone ErrorKind = ""

	// KindTimeout means the per-page timeout elapsed before content arrived.
	// Recorded and counted; the crawl continues.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork means the fetch failed at the transport or HTTP layer
	// (connection reset, unexpected status, truncated body).
	// Recorded and counted; the crawl continues.
	KindNetwork ErrorKind = "network"

	// KindExtraction means the page was fetched but no usable content
	// could be extracted from it.
	// Recorded and counted; the crawl continues.
	KindExtraction ErrorKind = "extraction"

	// KindSystemic means the fetch collaborator is entirely unreachable
	// (connection refused, host resolution failure on a previously verified
	// origin). Surfaces as a session-level error beside a partial result.
	KindSystemic ErrorKind = "systemic"
)

// DiscoveredPage represents one page found during discovery and tracked
// through the crawl. Its identity is the canonical URL, unique within a
// session; the page is never deleted once created, only its status and
// outcome fields change.
type DiscoveredPage struct {
	// URL is the canonical URL, the page's identity key.
	URL string `json:"url"`

	// Title is an optional display string from discovery (sitemap slug or
	// link text), not extracted content. The fetch may replace it with the
	// page's real title.
	Title string `json:"title,omitempty"`

	// Status is the page's position in the crawl state machine.
	Status PageStatus `json:"status"`

	// DiscoveredAt is the page's ordinal position in discovery order.
	// It is an index, not a wall-clock value, and fixes the page's place
	// in the consolidated output.
	DiscoveredAt int `json:"discovered_at"`

	// Markdown is the extracted content, set only on success.
	Markdown string `json:"-"`

	// ContentBytes is the byte length of Markdown, set only on success.
	ContentBytes int `json:"content_bytes"`

	// ErrKind classifies the failure, set only on failure.
	ErrKind ErrorKind `json:"error_kind,omitempty"`

	// ErrMessage is the failure detail, set only on failure.
	ErrMessage string `json:"error_message,omitempty"`
}

// Link is a hyperlink extracted from a fetched page, used during
// discovery's link-following fallback.
type Link struct {
	// Href is the resolved absolute URL.
	Href string

	// Text is the anchor text, used as a provisional page title.
	Text string
}

// FetchOutcome is the Page Fetcher collaborator's per-page result.
// It is transient: the scheduler consumes it immediately to update the
// corresponding DiscoveredPage.
type FetchOutcome struct {
	// URL is the fetched URL (canonical form).
	URL string

	// Title is the page title extracted from the document, if any.
	Title string

	// Markdown is the page content converted to markdown.
	Markdown string

	// ContentBytes is the byte length of Markdown.
	ContentBytes int

	// Links are hyperlinks found on the page, resolved to absolute URLs.
	// Only discovery's seed fetch uses them.
	Links []Link
}

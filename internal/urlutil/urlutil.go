package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot be canonicalized.
// This covers unparseable input, missing or non-HTTP schemes, and empty hosts.
// Callers should discard such candidates during discovery rather than treat
// the error as fatal; only an invalid seed URL aborts a session.
var ErrInvalidURL = errors.New("invalid URL")

// Normalize canonicalizes a raw URL into its identity form.
//
// Rules:
//   - the scheme must be http or https (anything else is rejected)
//   - scheme and host are lowercased
//   - the fragment is stripped (it never changes page content)
//   - trailing slashes are collapsed, except the bare root path "/"
//   - an empty path becomes "/" so example.com and example.com/ collide
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	// Collapse trailing slashes so /docs and /docs/ share one identity.
	// The root path stays "/" because stripping it would change the URL's
	// meaning for some servers.
	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Seen is a set of canonical URLs used for deduplication during discovery.
// Candidates must be normalized before insertion; Seen does exact matching
// on the canonical form only.
type Seen struct {
	set map[string]struct{}
}

// NewSeen creates an empty Seen set.
func NewSeen() *Seen {
	return &Seen{set: make(map[string]struct{})}
}

// Add inserts a canonical URL into the set.
// It returns true if the URL was not present before, false for duplicates.
func (s *Seen) Add(canonical string) bool {
	if _, ok := s.set[canonical]; ok {
		return false
	}
	s.set[canonical] = struct{}{}
	return true
}

// Contains reports whether the canonical URL is already in the set.
func (s *Seen) Contains(canonical string) bool {
	_, ok := s.set[canonical]
	return ok
}

// Len returns the number of unique URLs seen.
func (s *Seen) Len() int {
	return len(s.set)
}

package model

import (
	"sync"
	"time"
)

// CrawlSession is the unit of work spanning discovery and crawl for one
// seed URL. It holds the insertion-ordered, URL-keyed page collection and
// guards all mutation behind a mutex so that claim-and-transition is atomic:
// exactly one worker proceeds per page.
//
// Design decision: The session exposes transition methods (Claim, Complete,
// Fail, Release) instead of raw page access because the state machine
// invariants live here. A worker cannot construct an illegal transition;
// it can only ask for one and be refused.
type CrawlSession struct {
	mu sync.Mutex

	// seed is the canonical seed URL this session expands.
	seed string

	// pages is the URL-keyed collection; order preserves insertion order.
	pages map[string]*DiscoveredPage
	order []string

	// concurrency is the worker limit for the crawl phase.
	concurrency int

	// startedAt is when the session was created.
	startedAt time.Time
}

// NewCrawlSession creates a session for the given canonical seed URL and
// discovered pages. Pages sharing a canonical URL are merged: the first
// occurrence wins its slot and later duplicates never create a second entry.
func NewCrawlSession(seed string, pages []*DiscoveredPage, concurrency int) *CrawlSession {
	s := &CrawlSession{
		seed:        seed,
		pages:       make(map[string]*DiscoveredPage, len(pages)),
		order:       make([]string, 0, len(pages)),
		concurrency: concurrency,
		startedAt:   time.Now(),
	}
	for _, p := range pages {
		if _, ok := s.pages[p.URL]; ok {
			continue
		}
		cp := *p
		cp.Status = StatusPending
		cp.DiscoveredAt = len(s.order)
		s.pages[p.URL] = &cp
		s.order = append(s.order, p.URL)
	}
	return s
}

// Seed returns the canonical seed URL.
func (s *CrawlSession) Seed() string {
	return s.seed
}

// Concurrency returns the worker limit for the crawl phase.
func (s *CrawlSession) Concurrency() int {
	return s.concurrency
}

// StartedAt returns the session creation time.
func (s *CrawlSession) StartedAt() time.Time {
	return s.startedAt
}

// Len returns the number of pages in the session.
func (s *CrawlSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// URLs returns the page URLs in insertion (discovery) order.
func (s *CrawlSession) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, len(s.order))
	copy(urls, s.order)
	return urls
}

// Get returns a copy of the page for the given URL.
// The copy is safe to read without holding any lock.
func (s *CrawlSession) Get(url string) (DiscoveredPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	if !ok {
		return DiscoveredPage{}, false
	}
	return *p, true
}

// Snapshot returns copies of all pages in insertion order.
// Aggregation and progress reporting work on snapshots so they never
// observe a page mid-mutation.
func (s *CrawlSession) Snapshot() []DiscoveredPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DiscoveredPage, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, *s.pages[u])
	}
	return out
}

// Claim atomically transitions a page from pending to in-progress.
// It returns false if the page does not exist or is not pending, so at
// most one worker ever claims a given page.
func (s *CrawlSession) Claim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	if !ok || p.Status != StatusPending {
		return false
	}
	p.Status = StatusInProgress
	return true
}

// Complete transitions an in-progress page to succeeded and records the
// fetch outcome. Returns false if the page is not in-progress; a terminal
// page is never overwritten.
func (s *CrawlSession) Complete(url string, outcome *FetchOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	if !ok || p.Status != StatusInProgress {
		return false
	}
	p.Status = StatusSucceeded
	p.Markdown = outcome.Markdown
	p.ContentBytes = outcome.ContentBytes
	if outcome.Title != "" {
		p.Title = outcome.Title
	}
	p.ErrKind = KindNone
	p.ErrMessage = ""
	return true
}

// Fail transitions an in-progress page to failed with the given error
// kind and message. Returns false if the page is not in-progress.
func (s *CrawlSession) Fail(url string, kind ErrorKind, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	if !ok || p.Status != StatusInProgress {
		return false
	}
	p.Status = StatusFailed
	p.ErrKind = kind
	p.ErrMessage = msg
	return true
}

// Release returns an in-progress page to pending. This is used only when
// the fetch collaborator itself was unreachable: the attempt never reached
// the page, so the page did not consume its single fetch. Terminal states
// are never released.
func (s *CrawlSession) Release(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	if !ok || p.Status != StatusInProgress {
		return false
	}
	p.Status = StatusPending
	p.ErrKind = KindNone
	p.ErrMessage = ""
	return true
}

// TerminalCount returns the number of pages in a terminal state.
func (s *CrawlSession) TerminalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pages {
		if p.Status.Terminal() {
			n++
		}
	}
	return n
}

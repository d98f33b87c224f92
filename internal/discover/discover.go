package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tansode/sitemd/internal/fetcher"
	"github.com/tansode/sitemd/internal/model"
	"github.com/tansode/sitemd/internal/urlutil"
)

// ErrSeedUnreachable is returned when neither the sitemap manifest nor the
// seed page itself could be fetched. Discovery failure blocks the crawl
// phase entirely; callers may retry at a higher level.
var ErrSeedUnreachable = errors.New("seed page unreachable")

// DefaultMaxPages bounds discovery when no limit is configured.
const DefaultMaxPages = 100

// sitemapTimeout bounds the manifest probe. The probe is an optimization,
// so it fails fast rather than holding up the fallback path.
const sitemapTimeout = 15 * time.Second

// Engine expands a seed URL into candidate pages.
type Engine struct {
	// fetcher fetches the seed page for the link-following fallback.
	fetcher fetcher.Fetcher

	// client performs the sitemap probe. The manifest is raw XML, so it
	// bypasses the markdown-extracting fetcher.
	client *http.Client

	// maxPages bounds the number of distinct URLs collected.
	maxPages int

	// ignore holds URL substrings excluded from the candidate set.
	ignore []string

	// logger records discovery progress.
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPages sets the maximum number of distinct URLs to collect.
func WithMaxPages(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPages = n
		}
	}
}

// WithIgnorePatterns excludes candidate URLs containing any of the given
// substrings. Typically sourced from per-site configuration.
func WithIgnorePatterns(patterns []string) Option {
	return func(e *Engine) {
		e.ignore = patterns
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSitemapClient replaces the HTTP client used for the manifest probe.
// Intended for tests.
func WithSitemapClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

// NewEngine creates a discovery engine using the given page fetcher.
func NewEngine(f fetcher.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher:  f,
		client:   &http.Client{Timeout: sitemapTimeout},
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Discover expands the seed URL into an ordered set of candidate pages.
// A malformed seed returns urlutil.ErrInvalidURL; an unreachable seed
// returns ErrSeedUnreachable. Candidate URLs that fail normalization are
// silently discarded, never fatal.
func (e *Engine) Discover(ctx context.Context, seedURL string) ([]*model.DiscoveredPage, error) {
	canonical, err := urlutil.Normalize(seedURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", urlutil.ErrInvalidURL, err)
	}

	if pages := e.fromSitemap(ctx, base); len(pages) > 0 {
		e.logger.Info("discovery complete",
			"source", "sitemap",
			"seed", canonical,
			"pages", len(pages),
		)
		return pages, nil
	}

	pages, err := e.fromSeedLinks(ctx, canonical, base)
	if err != nil {
		return nil, err
	}
	e.logger.Info("discovery complete",
		"source", "links",
		"seed", canonical,
		"pages", len(pages),
	)
	return pages, nil
}

// fromSeedLinks fetches the seed page and admits its same-origin links.
// The seed itself is always the first page.
func (e *Engine) fromSeedLinks(ctx context.Context, canonical string, base *url.URL) ([]*model.DiscoveredPage, error) {
	outcome, err := e.fetcher.Fetch(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedUnreachable, err)
	}

	seen := urlutil.NewSeen()
	seen.Add(canonical)

	title := outcome.Title
	if title == "" {
		title = TitleFromURL(canonical)
	}
	pages := []*model.DiscoveredPage{{
		URL:    canonical,
		Title:  title,
		Status: model.StatusPending,
	}}

	for _, link := range outcome.Links {
		if len(pages) >= e.maxPages {
			break
		}
		if !e.admissible(link.Href, base) {
			continue
		}
		c, err := urlutil.Normalize(link.Href)
		if err != nil || !seen.Add(c) {
			continue
		}

		t := link.Text
		if t == "" {
			t = TitleFromURL(c)
		}
		pages = append(pages, &model.DiscoveredPage{
			URL:          c,
			Title:        t,
			Status:       model.StatusPending,
			DiscoveredAt: len(pages),
		})
	}
	return pages, nil
}

// admissible applies the discovery filters to a candidate URL.
func (e *Engine) admissible(rawURL string, base *url.URL) bool {
	if !urlutil.SameOrigin(rawURL, base) ||
		urlutil.IsStaticAsset(rawURL) ||
		urlutil.IsRestrictedPath(rawURL) {
		return false
	}
	for _, pattern := range e.ignore {
		if pattern != "" && strings.Contains(rawURL, pattern) {
			return false
		}
	}
	return true
}

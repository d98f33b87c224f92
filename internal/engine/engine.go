package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/tansode/sitemd/internal/aggregate"
	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/discover"
	"github.com/tansode/sitemd/internal/fetcher"
	"github.com/tansode/sitemd/internal/model"
	"github.com/tansode/sitemd/internal/scheduler"
	"github.com/tansode/sitemd/internal/urlutil"
)

// ErrDiscoverFirst is returned by Crawl when no session exists yet.
// The two-call API is ordered: Discover builds the session that Crawl
// consumes.
var ErrDiscoverFirst = errors.New("no crawl session: call Discover first")

// Engine is the facade over the crawl pipeline. One Engine serves one
// seed; its configuration is fixed at construction.
type Engine struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
	logger  *slog.Logger

	maxPages int
	ignore   []string

	mu      sync.Mutex
	session *model.CrawlSession
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFetcher replaces the HTTP fetcher. Intended for tests.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// New creates an Engine from a validated configuration. Per-site
// overrides from the config file are resolved here against the seed's
// host, so the rest of the pipeline never consults site configs.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	seedURL, err := url.Parse(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	site := config.SiteConfig{}
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(seedURL.Hostname())
	}

	selector := cfg.ContentSelector
	if site.ContentSelector != "" {
		selector = site.ContentSelector
	}
	maxPages := cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPages
	}

	e := &Engine{
		cfg:      cfg,
		maxPages: maxPages,
		ignore:   site.IgnorePatterns,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.fetcher == nil {
		fopts := []fetcher.Option{
			fetcher.WithUserAgent(cfg.UserAgent),
			fetcher.WithContentSelector(selector),
		}
		if cfg.MaxBodySize > 0 {
			fopts = append(fopts, fetcher.WithMaxBodySize(cfg.MaxBodySize))
		}
		if len(site.Headers) > 0 {
			fopts = append(fopts, fetcher.WithHeaders(site.Headers))
		}
		e.fetcher = fetcher.New(fopts...)
	}
	return e, nil
}

// Discover expands the configured seed into a crawl session and returns
// the candidate pages. Calling Discover again replaces any existing
// session, so a failed crawl can be restarted from scratch.
func (e *Engine) Discover(ctx context.Context) ([]model.DiscoveredPage, error) {
	d := discover.NewEngine(e.fetcher,
		discover.WithMaxPages(e.maxPages),
		discover.WithIgnorePatterns(e.ignore),
		discover.WithLogger(e.logger),
	)

	pages, err := d.Discover(ctx, e.cfg.Seed)
	if err != nil {
		return nil, err
	}

	// The session is keyed to the canonical seed, not the first candidate:
	// on the manifest path the first entry need not be the seed page.
	seed, err := urlutil.Normalize(e.cfg.Seed)
	if err != nil {
		return nil, err
	}
	sess := model.NewCrawlSession(seed, pages, e.cfg.Concurrency)

	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()

	return sess.Snapshot(), nil
}

// Crawl drains the session built by Discover and returns the final
// report. A systemic failure does not produce a Go error: the report's
// result carries the error message alongside whatever was crawled before
// the stop. onProgress may be nil.
func (e *Engine) Crawl(ctx context.Context, onProgress scheduler.ProgressFunc) (*model.CrawlReport, error) {
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()
	if sess == nil {
		return nil, ErrDiscoverFirst
	}

	s := scheduler.New(e.fetcher,
		scheduler.WithConcurrency(e.cfg.Concurrency),
		scheduler.WithPageTimeout(e.cfg.PageTimeout),
		scheduler.WithSessionTimeout(e.cfg.SessionTimeout),
		scheduler.WithSystemicThreshold(e.cfg.SystemicThreshold),
		scheduler.WithDelay(e.cfg.CrawlDelay),
		scheduler.WithLogger(e.logger),
	)

	runErr := s.Run(ctx, sess, onProgress)

	sessionErr := ""
	if runErr != nil {
		if !errors.Is(runErr, scheduler.ErrSystemic) {
			return nil, runErr
		}
		sessionErr = runErr.Error()
	}

	pages := sess.Snapshot()
	return &model.CrawlReport{
		Seed:       sess.Seed(),
		StartedAt:  sess.StartedAt(),
		FinishedAt: time.Now(),
		Pages:      pages,
		Result:     aggregate.Consolidate(pages, sessionErr),
	}, nil
}

// Run performs Discover then Crawl in one call.
func (e *Engine) Run(ctx context.Context, onProgress scheduler.ProgressFunc) (*model.CrawlReport, error) {
	if _, err := e.Discover(ctx); err != nil {
		return nil, err
	}
	return e.Crawl(ctx, onProgress)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tansode/sitemd/internal/fetcher"
	"github.com/tansode/sitemd/internal/model"
)

// ErrSystemic is returned by Run when the crawl was aborted because the
// origin as a whole became unreachable. Page-local failures never produce
// this error; they are recorded on the pages themselves.
var ErrSystemic = errors.New("systemic failure, crawl aborted")

const (
	// DefaultConcurrency is the worker limit when the session does not
	// carry its own.
	DefaultConcurrency = 5

	// DefaultPageTimeout bounds a single page fetch.
	DefaultPageTimeout = 30 * time.Second

	// DefaultSystemicThreshold is the number of consecutive network
	// failures treated as origin death even when no single error was
	// classified as systemic.
	DefaultSystemicThreshold = 5
)

// ProgressFunc receives copies of the pages whose status changed since
// the previous call, never the untouched remainder of the session.
// Calls are serialized; the slice is a copy the callback may retain.
type ProgressFunc func(changed []model.DiscoveredPage)

// Scheduler crawls the pages of a session with bounded concurrency.
// A Scheduler is stateless between runs and safe to reuse.
type Scheduler struct {
	fetcher           fetcher.Fetcher
	concurrency       int
	pageTimeout       time.Duration
	sessionTimeout    time.Duration
	systemicThreshold int
	delay             time.Duration
	logger            *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency sets the fallback worker limit used when the session
// does not specify one.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPageTimeout bounds each individual page fetch.
func WithPageTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.pageTimeout = d
	}
}

// WithSessionTimeout bounds the whole crawl phase. Zero means no limit.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.sessionTimeout = d
	}
}

// WithSystemicThreshold sets how many consecutive network failures are
// treated as origin death.
func WithSystemicThreshold(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.systemicThreshold = n
		}
	}
}

// WithDelay inserts a politeness delay between page admissions.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a Scheduler that crawls pages with the given fetcher.
func New(f fetcher.Fetcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:           f,
		concurrency:       DefaultConcurrency,
		pageTimeout:       DefaultPageTimeout,
		systemicThreshold: DefaultSystemicThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// run holds the mutable state of one Run call, so a Scheduler can be
// reused across sessions.
type run struct {
	sess       *model.CrawlSession
	onProgress ProgressFunc

	// notifyMu serializes progress callbacks.
	notifyMu sync.Mutex

	mu          sync.Mutex
	netFailures int
	systemic    error
}

// notify delivers the pages named by urls to the progress callback.
// Each transition reports exactly the page it touched, so callbacks see
// the changed set, not the whole session. Reading the page copies under
// notifyMu keeps deliveries monotonic: a later callback never carries an
// older view of a page.
func (r *run) notify(urls ...string) {
	if r.onProgress == nil {
		return
	}
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	changed := make([]model.DiscoveredPage, 0, len(urls))
	for _, u := range urls {
		if p, ok := r.sess.Get(u); ok {
			changed = append(changed, p)
		}
	}
	if len(changed) == 0 {
		return
	}
	r.onProgress(changed)
}

// setSystemic records the first systemic error. Later errors are dropped.
func (r *run) setSystemic(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.systemic == nil {
		r.systemic = err
	}
}

// systemicErr returns the recorded systemic error, if any.
func (r *run) systemicErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.systemic
}

// bumpNetFailures increments the consecutive network failure counter and
// reports the new count.
func (r *run) bumpNetFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.netFailures++
	return r.netFailures
}

// resetNetFailures clears the counter after any successful fetch.
func (r *run) resetNetFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.netFailures = 0
}

// Run crawls every pending page of the session and blocks until all
// admitted work has finished. It returns ErrSystemic (wrapped) when the
// crawl stopped early because the origin became unreachable; page-local
// failures are recorded on the pages and do not produce an error.
//
// Pages never admitted before a stop condition stay pending, so the
// session snapshot after Run always reflects exactly what happened.
func (s *Scheduler) Run(ctx context.Context, sess *model.CrawlSession, onProgress ProgressFunc) error {
	if s.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sessionTimeout)
		defer cancel()
	}

	limit := sess.Concurrency()
	if limit <= 0 {
		limit = s.concurrency
	}

	r := &run{sess: sess, onProgress: onProgress}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	urls := sess.URLs()
	s.logger.Info("crawl started",
		"seed", sess.Seed(),
		"pages", len(urls),
		"concurrency", limit,
	)

admission:
	for _, pageURL := range urls {
		if gctx.Err() != nil || r.systemicErr() != nil {
			break
		}
		g.Go(func() error {
			return s.crawlOne(gctx, r, pageURL)
		})
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-gctx.Done():
				break admission
			}
		}
	}

	err := g.Wait()

	s.logger.Info("crawl finished",
		"seed", sess.Seed(),
		"terminal", sess.TerminalCount(),
		"total", len(urls),
	)

	if sysErr := r.systemicErr(); sysErr != nil {
		return sysErr
	}
	if err != nil {
		return err
	}
	return nil
}

// crawlOne drives a single page through its lifecycle. It returns a
// non-nil error only for systemic failures, which cancels the group
// context and stops further admissions.
func (s *Scheduler) crawlOne(ctx context.Context, r *run, pageURL string) error {
	// A stop condition may have arisen while this worker waited for a
	// slot. Leave the page pending rather than charging it a fetch.
	if ctx.Err() != nil || r.systemicErr() != nil {
		return nil
	}
	if !r.sess.Claim(pageURL) {
		return nil
	}
	r.notify(pageURL)

	fctx := ctx
	if s.pageTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.pageTimeout)
		defer cancel()
	}

	outcome, err := s.fetcher.Fetch(fctx, pageURL)
	if err != nil {
		return s.failOne(r, pageURL, err)
	}

	r.resetNetFailures()
	r.sess.Complete(pageURL, outcome)
	s.logger.Debug("page crawled", "url", pageURL, "bytes", outcome.ContentBytes)
	r.notify(pageURL)
	return nil
}

// failOne records a fetch failure and decides whether it is systemic.
func (s *Scheduler) failOne(r *run, pageURL string, err error) error {
	kind := fetcher.Kind(err)

	if kind == model.KindSystemic {
		// The attempt never reached the page, so it keeps its single
		// fetch and returns to pending.
		r.sess.Release(pageURL)
		sysErr := fmt.Errorf("%w: %v", ErrSystemic, err)
		r.setSystemic(sysErr)
		s.logger.Error("systemic failure", "url", pageURL, "error", err)
		r.notify(pageURL)
		return sysErr
	}

	r.sess.Fail(pageURL, kind, err.Error())
	s.logger.Warn("page failed", "url", pageURL, "kind", string(kind), "error", err)

	if kind == model.KindNetwork {
		if n := r.bumpNetFailures(); n >= s.systemicThreshold {
			sysErr := fmt.Errorf("%w: %d consecutive network failures", ErrSystemic, n)
			r.setSystemic(sysErr)
			s.logger.Error("systemic failure", "url", pageURL, "error", sysErr)
			r.notify(pageURL)
			return sysErr
		}
	}

	r.notify(pageURL)
	return nil
}

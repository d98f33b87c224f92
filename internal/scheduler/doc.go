// Package scheduler runs the crawl phase of a session: it admits pending
// pages to a bounded worker pool, drives each page through its status
// transitions, and reports progress after every transition.
//
// Workers never mutate pages directly. All transitions go through the
// session's claim/complete/fail methods, so the scheduler's only jobs are
// admission order, the concurrency limit, per-page and per-session
// deadlines, and deciding when a failure is systemic enough to stop
// admitting new fetches.
//
// Progress callbacks are serialized. Each callback receives copies of
// the pages that changed since the previous call, and two callbacks
// never run at once even though workers finish concurrently.
package scheduler

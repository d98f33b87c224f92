// Package engine wires discovery, crawling, and aggregation into the
// two-call API the rest of the application consumes: Discover expands a
// seed into a session, Crawl drains that session and returns the final
// report.
//
// The engine owns construction of its collaborators from the validated
// configuration, including per-site overrides. Callers never assemble a
// fetcher or scheduler themselves.
package engine

// Package fetcher implements the page fetch collaborator.
//
// A Fetcher turns one URL into extracted markdown content: it performs the
// HTTP request, isolates the main content container, strips noise elements,
// and converts the remaining HTML fragment to markdown. The scheduler and
// discovery engine depend only on the Fetcher interface; the HTTP
// implementation here is the default collaborator.
//
// Failures carry a typed kind (timeout, network, extraction, systemic) so
// the scheduler can distinguish a page that failed from a collaborator
// that is down. The fetcher performs exactly one HTTP attempt per call;
// retry policy, if any, belongs to a wrapping Fetcher, not this layer.
package fetcher

// Package model defines the core data types shared across sitemd.
//
// The central type is CrawlSession: the unit of work spanning discovery and
// crawl for one seed URL. It owns the only shared mutable state in the
// system, an insertion-ordered collection of DiscoveredPage keyed by
// canonical URL, and funnels every mutation through claim-and-transition
// methods so per-page updates are effectively single-writer.
//
// Page status is a closed enumeration (pending, in-progress, succeeded,
// failed) and transitions are monotonic: once a page reaches a terminal
// state it never leaves it for the rest of the session.
package model

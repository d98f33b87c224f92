// Package urlutil provides URL canonicalization and deduplication for crawling.
//
// Every URL admitted into a crawl session passes through Normalize first, so
// the canonical form is the identity key used everywhere else: the session's
// page collection, the visited set, and progress updates are all keyed by it.
//
// Design decision: We canonicalize eagerly at the discovery boundary rather
// than comparing lazily because:
//  1. A single canonical string makes map keys and DB keys trivial
//  2. The same page is often reachable via fragment or trailing-slash variants
//  3. Later components can assume URLs are already well-formed
package urlutil

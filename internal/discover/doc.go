// Package discover expands a seed URL into a bounded, ordered set of
// candidate pages.
//
// Two sources are tried in order. A sitemap manifest at the well-known
// /sitemap.xml path under the seed's origin wins when it exists and lists
// at least one admissible URL; otherwise the seed page itself is fetched
// and its same-origin links form the candidate set. Discovery is
// first-order expansion only: at most the manifest and the seed page are
// contacted, never the candidates themselves.
//
// Every candidate passes through urlutil canonicalization and
// deduplication before admission, so the emitted pages carry unique
// canonical URLs in discovery order. That order is preserved as the crawl
// session's insertion order and decides the consolidated output order.
package discover

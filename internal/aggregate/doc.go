// Package aggregate folds the final page states of a crawl session into
// one consolidated markdown document with derived statistics.
//
// Consolidation is a pure function of the page snapshot: it reads page
// states and contents, mutates nothing, and produces byte-identical
// output when called twice on the same snapshot. Statistics are derived
// from the same snapshot in the same pass, so the document and its
// numbers can never disagree.
package aggregate

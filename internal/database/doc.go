// Package database provides SQLite-based storage for crawl history.
//
// This package implements the HistoryDB, which stores:
//   - Session records with seed, timings, and derived statistics
//   - Per-page outcome records for each session
//
// Extracted page content is deliberately not stored. Consolidated
// documents belong in the report files the user asked for; the database
// answers "what did I crawl, when, and how did it go" without growing
// unboundedly.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

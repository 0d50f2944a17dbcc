// Package database provides the SQLite page catalog for doccrawl.
//
// The catalog stores:
//   - the latest outcome for every page of every crawled site (saved file,
//     title, content hash, or failure kind and reason)
//   - one row per crawl run with its counters, so that `doccrawl status`
//     can show the history of a site
//
// The state file in the output directory remains the source of truth for
// resuming; the catalog is a queryable record that outlives output
// directories.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

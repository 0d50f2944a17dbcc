// Package output maps crawled URLs to Markdown files and writes them.
//
// The mapping is deterministic so that a rerun overwrites the files of the
// previous run instead of creating duplicates:
//
//	https://example.com/docs            -> index.md
//	https://example.com/docs/guide      -> guide/index.md
//	https://example.com/docs/a.html     -> a.html.md
//	https://example.com/docs/s?q=go     -> s/index_q=go.md
//
// Paths are relative to the scope root, so a crawl of /docs does not nest
// everything under a docs/ directory.
package output

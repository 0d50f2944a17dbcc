// Package state persists the resumable state of a crawl.
//
// The state file is a single JSON document in the output directory:
//
//	{
//	  "base_url": "https://example.com/docs",
//	  "timestamp": "2026-01-02T15:04:05Z",
//	  "visited": ["https://example.com/docs"],
//	  "queue": [{"url": "https://example.com/docs/a", "depth": 1}],
//	  "failed": [{"url": "...", "kind": "timeout", "reason": "...", "attempts": 3}]
//	}
//
// Checkpoints replace the file atomically, so an interrupted process leaves
// either the previous checkpoint or the new one on disk. Unknown fields are
// ignored when loading.
package state

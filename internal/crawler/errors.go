package crawler

import "errors"

var (
	// ErrBaseExcluded is returned by Run when the base URL itself is
	// filtered out by the exclude expression or an ignore pattern.
	ErrBaseExcluded = errors.New("base URL is excluded")

	// ErrBaseUnreachable is returned by Run when a crawl that resumed
	// nothing could not save the base page. The state file is removed so
	// the next run starts fresh.
	ErrBaseUnreachable = errors.New("base URL is unreachable")
)

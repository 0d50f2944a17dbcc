package model

import "time"

// PageRecord is the catalog entry describing the latest outcome for a URL.
type PageRecord struct {
	// URL is the canonical page URL.
	URL string

	// Path is the output file path relative to the output directory.
	// Empty for failed pages.
	Path string

	// Depth is the link distance from the base URL.
	Depth int

	// Title is the page title.
	Title string

	// ContentHash is the hex SHA-256 of the saved Markdown.
	ContentHash string

	// Failure is FailureNone for saved pages.
	Failure FailureKind

	// Reason describes the failure.
	Reason string

	// Attempts is the number of fetch attempts.
	Attempts int

	// CrawledAt is when the outcome was recorded.
	CrawledAt time.Time
}

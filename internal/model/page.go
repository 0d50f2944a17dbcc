package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// PageResult is the outcome of one fetch attempt for one URL.
// It is produced by a fetch engine, consumed by the crawler, and not retained.
type PageResult struct {
	// URL is the canonical URL that was requested.
	URL string

	// FinalURL is the URL after redirects. Empty when it equals URL.
	FinalURL string

	// Depth is the number of link hops from the base URL.
	Depth int

	// Title is the document title, if one was found.
	Title string

	// Content is the extracted page text in Markdown.
	Content string

	// HTML is the raw document the links were extracted from.
	// It is dropped once links have been collected.
	HTML string `json:"-"`

	// Links contains the absolute outbound link URLs found on the page,
	// fragments included, in document order.
	Links []string

	// Failure is FailureNone on success.
	Failure FailureKind

	// Reason is a human-readable description of the failure.
	Reason string

	// Attempts is the number of fetch attempts made for this result.
	Attempts int
}

// OK reports whether the fetch succeeded.
func (p *PageResult) OK() bool {
	return p.Failure == FailureNone
}

// ContentHash returns the hex SHA-256 of the extracted content.
// The catalog uses it to tell whether a page changed between runs.
func (p *PageResult) ContentHash() string {
	if p.Content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.Content))
	return hex.EncodeToString(sum[:])
}

// Package link canonicalizes URLs, decides whether a URL belongs to the
// crawl, and rewrites absolute links in saved Markdown to relative paths.
//
// # Canonical form
//
// Two spellings of the same page must map to one crawl target, so Normalize
// lowercases scheme and host, drops default ports, removes dot segments,
// collapses a trailing slash and strips the fragment. The fragment is
// returned separately: it never distinguishes crawl targets but it is
// appended verbatim to rewritten links so in-page anchors keep working.
//
// # Scope
//
// A Scope is either "prefix" (same host and under the base URL's path, the
// default) or "host" (anywhere on the same host).
//
// # Rewriting
//
// Rewriter parses Markdown with goldmark only to find code blocks and code
// spans; link destinations inside them are left untouched.
package link

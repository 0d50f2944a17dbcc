// Package progress shows a one-line crawl progress indicator on a terminal.
package progress

// Package main provides the entry point for the doccrawl CLI.
//
// doccrawl mirrors a documentation site into a directory of Markdown files.
// It crawls breadth-first from a base URL, stays inside the site, rewrites
// links between saved pages to relative paths, and checkpoints its progress
// so an interrupted crawl can be resumed.
//
// Usage:
//
//	doccrawl https://docs.example.com/guide/
//	doccrawl --workers 10 --output ./mirror https://docs.example.com/
//	doccrawl status https://docs.example.com/guide/
//
// See --help for all available options.
package main

// main is the entry point for doccrawl.
func main() {
	Execute()
}

// Package report renders the summary of a crawl run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: The _crawl_report.md file kept next to the pages
//
// Design decision: We separate report writing from the summary data
// structure (which is in the model package) so that new output formats can
// be added without touching the crawler.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report

// Package crawler runs a resumable breadth-first crawl of a documentation
// site.
//
// # Architecture
//
// The Crawler owns a frontier holding the crawl state: the pending queue,
// the visited and failed sets, and the URLs currently being fetched. A fixed
// pool of workers repeatedly takes the next URL, fetches it with a
// fetcher.Fetcher, queues the eligible links it found, rewrites links in the
// Markdown to relative paths and writes the page with an output.Writer.
//
// A URL is eligible when it has not been seen before, lies within the depth
// limit, is in scope of the base URL, and matches neither the exclude
// expression nor any ignore pattern.
//
// # Resume
//
// The frontier is checkpointed to a state.Store every few completed pages and
// when the run ends. URLs that were being fetched when the run was cancelled
// are saved back into the queue, so the next run picks them up without
// fetching any visited page again.
//
// # Politeness
//
//   - Optional delay between requests and a requests-per-second limit
//   - Optional robots.txt compliance
//   - Bounded concurrency
//
// # Usage
//
//	c := crawler.New(f, store, writer, scope, crawler.WithWorkers(5))
//	summary, err := c.Run(ctx)
package crawler

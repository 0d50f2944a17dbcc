package model

import (
	"sort"
	"time"
)

// QueueItem is a URL waiting to be crawled together with its depth.
type QueueItem struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// FailureRecord describes a URL that exhausted its retry budget.
type FailureRecord struct {
	URL      string      `json:"url"`
	Kind     FailureKind `json:"kind"`
	Reason   string      `json:"reason,omitempty"`
	Attempts int         `json:"attempts"`
	Depth    int         `json:"depth,omitempty"`
}

// CrawlState is the resumable state of one crawl.
//
// A URL present in Visited or Failed never appears in Queue, and no URL is in
// both Visited and Failed.
type CrawlState struct {
	// BaseURL is the canonical base URL the crawl started from.
	BaseURL string

	// Timestamp is the time of the last checkpoint.
	Timestamp time.Time

	// Visited holds URLs whose page was fetched and written.
	Visited map[string]struct{}

	// Queue holds URLs still to be fetched, in breadth-first order.
	Queue []QueueItem

	// Failed holds URLs that were given up on.
	Failed map[string]FailureRecord
}

// NewCrawlState returns an empty state for baseURL.
func NewCrawlState(baseURL string) *CrawlState {
	return &CrawlState{
		BaseURL: baseURL,
		Visited: make(map[string]struct{}),
		Queue:   make([]QueueItem, 0),
		Failed:  make(map[string]FailureRecord),
	}
}

// IsEmpty reports whether nothing has been visited, queued or failed yet.
func (s *CrawlState) IsEmpty() bool {
	return len(s.Visited) == 0 && len(s.Queue) == 0 && len(s.Failed) == 0
}

// VisitedList returns the visited URLs sorted for stable output.
func (s *CrawlState) VisitedList() []string {
	urls := make([]string, 0, len(s.Visited))
	for u := range s.Visited {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// FailedList returns the failure records sorted by URL.
func (s *CrawlState) FailedList() []FailureRecord {
	records := make([]FailureRecord, 0, len(s.Failed))
	for _, r := range s.Failed {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].URL < records[j].URL })
	return records
}

// Clone returns a deep copy of the state.
// Checkpoints serialize a clone so the frontier lock is not held during I/O.
func (s *CrawlState) Clone() *CrawlState {
	c := &CrawlState{
		BaseURL:   s.BaseURL,
		Timestamp: s.Timestamp,
		Visited:   make(map[string]struct{}, len(s.Visited)),
		Queue:     make([]QueueItem, len(s.Queue)),
		Failed:    make(map[string]FailureRecord, len(s.Failed)),
	}
	for u := range s.Visited {
		c.Visited[u] = struct{}{}
	}
	copy(c.Queue, s.Queue)
	for u, r := range s.Failed {
		c.Failed[u] = r
	}
	return c
}

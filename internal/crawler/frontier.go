package crawler

import (
	"context"
	"sort"
	"sync"

	"github.com/nao1215/doccrawl/internal/model"
)

// frontier is the crawl state shared by the workers. Every field is guarded
// by mu; the state store only ever sees snapshots.
type frontier struct {
	mu sync.Mutex

	state    *model.CrawlState
	queued   map[string]struct{}
	inFlight map[string]model.QueueItem

	// changed is closed and replaced whenever the queue or the in-flight set
	// changes, waking workers that wait for more work.
	changed chan struct{}

	// completions counts pages finished since the frontier was created.
	completions int
}

func newFrontier(st *model.CrawlState) *frontier {
	f := &frontier{
		state:    st,
		queued:   make(map[string]struct{}, len(st.Queue)),
		inFlight: make(map[string]model.QueueItem),
		changed:  make(chan struct{}),
	}
	for _, item := range st.Queue {
		f.queued[item.URL] = struct{}{}
	}
	return f
}

// broadcastLocked wakes all waiting workers.
func (f *frontier) broadcastLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

// next returns the next queued item. ok is false when the queue is empty and
// nothing is in flight, meaning the crawl is finished. An error is returned
// only when ctx is cancelled.
func (f *frontier) next(ctx context.Context) (model.QueueItem, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.QueueItem{}, false, err
		}

		f.mu.Lock()
		if len(f.state.Queue) > 0 {
			item := f.state.Queue[0]
			f.state.Queue = f.state.Queue[1:]
			delete(f.queued, item.URL)
			f.inFlight[item.URL] = item
			f.mu.Unlock()
			return item, true, nil
		}
		if len(f.inFlight) == 0 {
			f.mu.Unlock()
			return model.QueueItem{}, false, nil
		}
		wait := f.changed
		f.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return model.QueueItem{}, false, ctx.Err()
		}
	}
}

// knownLocked reports whether u is visited, failed, queued or in flight.
func (f *frontier) knownLocked(u string) bool {
	if _, ok := f.state.Visited[u]; ok {
		return true
	}
	if _, ok := f.state.Failed[u]; ok {
		return true
	}
	if _, ok := f.queued[u]; ok {
		return true
	}
	_, ok := f.inFlight[u]
	return ok
}

// add queues the items that are not yet known and returns how many were
// added.
func (f *frontier) add(items ...model.QueueItem) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, item := range items {
		if f.knownLocked(item.URL) {
			continue
		}
		f.state.Queue = append(f.state.Queue, item)
		f.queued[item.URL] = struct{}{}
		added++
	}
	if added > 0 {
		f.broadcastLocked()
	}
	return added
}

// local reports whether u has been or will be saved: it is visited, queued or
// in flight.
func (f *frontier) local(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.Failed[u]; ok {
		return false
	}
	return f.knownLocked(u)
}

// complete marks an in-flight URL visited and returns the number of
// completions so far.
func (f *frontier) complete(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inFlight, u)
	f.state.Visited[u] = struct{}{}
	f.completions++
	f.broadcastLocked()
	return f.completions
}

// fail records an in-flight URL as permanently failed.
func (f *frontier) fail(rec model.FailureRecord) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inFlight, rec.URL)
	f.state.Failed[rec.URL] = rec
	f.completions++
	f.broadcastLocked()
	return f.completions
}

// failure returns the failure record of u, if it failed permanently.
func (f *frontier) failure(u string) (model.FailureRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.state.Failed[u]
	return rec, ok
}

// release puts an in-flight URL back at the head of the queue, unvisited.
func (f *frontier) release(item model.QueueItem) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.inFlight[item.URL]; !ok {
		return
	}
	delete(f.inFlight, item.URL)
	f.state.Queue = append([]model.QueueItem{item}, f.state.Queue...)
	f.queued[item.URL] = struct{}{}
	f.broadcastLocked()
}

// retryFailed moves every failed URL back into the queue.
func (f *frontier) retryFailed() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.state.FailedList()
	for _, rec := range records {
		delete(f.state.Failed, rec.URL)
		if _, ok := f.queued[rec.URL]; ok {
			continue
		}
		f.state.Queue = append(f.state.Queue, model.QueueItem{URL: rec.URL, Depth: rec.Depth})
		f.queued[rec.URL] = struct{}{}
	}
	if len(records) > 0 {
		f.broadcastLocked()
	}
	return len(records)
}

// snapshot returns a copy of the crawl state in which in-flight URLs are
// listed at the head of the queue, so a resumed run fetches them again.
func (f *frontier) snapshot() *model.CrawlState {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.state.Clone()
	if len(f.inFlight) == 0 {
		return snap
	}

	pending := make([]model.QueueItem, 0, len(f.inFlight))
	for _, item := range f.inFlight {
		pending = append(pending, item)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Depth != pending[j].Depth {
			return pending[i].Depth < pending[j].Depth
		}
		return pending[i].URL < pending[j].URL
	})
	snap.Queue = append(pending, snap.Queue...)
	return snap
}

// Stats is a point-in-time view of crawl progress.
type Stats struct {
	Visited  int
	Queued   int
	InFlight int
	Failed   int
}

func (f *frontier) stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Visited:  len(f.state.Visited),
		Queued:   len(f.state.Queue),
		InFlight: len(f.inFlight),
		Failed:   len(f.state.Failed),
	}
}

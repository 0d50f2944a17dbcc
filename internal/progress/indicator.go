package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"

	"github.com/nao1215/doccrawl/internal/crawler"
)

// Indicator renders crawl statistics next to a spinner. A disabled
// Indicator accepts every call and draws nothing, so callers never need to
// check whether progress output is wanted.
type Indicator struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	started bool
	last    crawler.Stats
}

// New returns an Indicator writing to w. It is disabled when enabled is
// false or when w is not a terminal.
func New(w io.Writer, enabled bool) *Indicator {
	if !enabled || !IsTerminal(w) {
		return &Indicator{}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " starting"
	return &Indicator{spinner: s}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled reports whether the indicator draws anything.
func (i *Indicator) Enabled() bool {
	return i.spinner != nil
}

// Start begins drawing.
func (i *Indicator) Start() {
	if i.spinner == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.started {
		i.spinner.Start()
		i.started = true
	}
}

// Update implements crawler.ProgressReporter.
func (i *Indicator) Update(stats crawler.Stats) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = stats
	if i.spinner == nil {
		return
	}
	i.spinner.Lock()
	i.spinner.Suffix = " " + Format(stats)
	i.spinner.Unlock()
}

// Last returns the most recent statistics passed to Update.
func (i *Indicator) Last() crawler.Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.last
}

// Stop clears the indicator line.
func (i *Indicator) Stop() {
	if i.spinner == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started {
		i.spinner.Stop()
		i.started = false
	}
}

// Format renders stats as the indicator text.
func Format(stats crawler.Stats) string {
	s := fmt.Sprintf("%d saved, %d queued, %d in flight", stats.Visited, stats.Queued, stats.InFlight)
	if stats.Failed > 0 {
		s += fmt.Sprintf(", %d failed", stats.Failed)
	}
	return s
}

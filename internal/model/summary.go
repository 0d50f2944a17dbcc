package model

import "time"

// Summary is the end-of-run report for one crawl.
type Summary struct {
	// BaseURL is the canonical base URL of the crawl.
	BaseURL string `json:"base_url"`

	// OutputDir is where pages were written.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// PagesWritten counts pages written during this run.
	PagesWritten int `json:"pages_written"`

	// PagesResumed counts pages already visited in a previous run.
	PagesResumed int `json:"pages_resumed"`

	// Errors counts URLs that failed permanently during this run.
	Errors int `json:"errors"`

	// Failures lists the permanent failures of this run.
	Failures []FailureRecord `json:"failures,omitempty"`

	// Pending counts URLs left in the queue, non-zero after an interruption.
	Pending int `json:"pending"`

	// Interrupted is true when the run was cancelled before the queue drained.
	Interrupted bool `json:"interrupted"`
}

// Complete reports whether the crawl finished with nothing left to do.
func (s *Summary) Complete() bool {
	return !s.Interrupted && s.Pending == 0
}

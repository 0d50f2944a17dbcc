package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
)

// Run is one crawl invocation recorded in the catalog.
type Run struct {
	ID           int64
	BaseURL      string
	OutputDir    string
	StartedAt    time.Time
	FinishedAt   time.Time // zero while the run is in progress or if it crashed
	PagesWritten int
	PagesResumed int
	Errors       int
	Pending      int
	Interrupted  bool
}

// Finished reports whether the run recorded its end.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StartRun records the beginning of a crawl and returns the run ID.
func (c *Catalog) StartRun(ctx context.Context, baseURL, outputDir string, startedAt time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (base_url, output_dir, started_at) VALUES (?, ?, ?)`,
		baseURL, outputDir, formatTimestamp(startedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stores the summary of a run started with StartRun.
func (c *Catalog) FinishRun(ctx context.Context, id int64, s *model.Summary) error {
	query := `
	UPDATE runs SET
		finished_at = ?,
		pages_written = ?,
		pages_resumed = ?,
		errors = ?,
		pending = ?,
		interrupted = ?
	WHERE id = ?
	`

	finishedAt := s.StartedAt.Add(s.Duration)
	if s.StartedAt.IsZero() {
		finishedAt = time.Now()
	}

	result, err := c.db.ExecContext(ctx, query,
		formatTimestamp(finishedAt),
		s.PagesWritten,
		s.PagesResumed,
		s.Errors,
		s.Pending,
		s.Interrupted,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: no run with id %d", id)
	}
	return nil
}

// RecentRuns returns up to limit runs of a site, newest first.
func (c *Catalog) RecentRuns(ctx context.Context, baseURL string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
	SELECT id, base_url, COALESCE(output_dir, ''), started_at, finished_at,
		pages_written, pages_resumed, errors, pending, interrupted
	FROM runs
	WHERE base_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, baseURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(
			&run.ID,
			&run.BaseURL,
			&run.OutputDir,
			&startedAt,
			&finishedAt,
			&run.PagesWritten,
			&run.PagesResumed,
			&run.Errors,
			&run.Pending,
			&run.Interrupted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTimestamp(finishedAt.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/doccrawl/internal/model"
)

// Page status values stored in the pages table.
const (
	StatusSaved  = "saved"
	StatusFailed = "failed"
)

// ErrNotFound is returned when the database file does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("database not found")

// Catalog provides SQLite-based storage for page outcomes and crawl runs.
// It is safe for concurrent use by the crawler's workers.
type Catalog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Catalog behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Catalog at dbPath.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotFound is returned.
func Open(dbPath string, opts Options) (*Catalog, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; workers share a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.dbPath
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (c *Catalog) createTables() error {
	schema := `
	-- One row per (site, page): the latest outcome
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		url TEXT NOT NULL,
		path TEXT,
		depth INTEGER NOT NULL DEFAULT 0,
		title TEXT,
		content_hash TEXT,
		status TEXT NOT NULL,
		error_kind TEXT,
		error TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		crawled_at DATETIME NOT NULL,
		UNIQUE(base_url, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_base ON pages(base_url);
	CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(base_url, status);

	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		output_dir TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_written INTEGER NOT NULL DEFAULT 0,
		pages_resumed INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		pending INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base ON runs(base_url, started_at);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// RecordPage inserts or updates the outcome for a page.
// Uses UPSERT to keep one row per (base URL, page URL).
func (c *Catalog) RecordPage(ctx context.Context, baseURL string, rec model.PageRecord) error {
	status := StatusSaved
	errorKind := ""
	if rec.Failure != model.FailureNone {
		status = StatusFailed
		errorKind = rec.Failure.String()
	}
	crawledAt := rec.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}

	query := `
	INSERT INTO pages (base_url, url, path, depth, title, content_hash, status, error_kind, error, attempts, crawled_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(base_url, url) DO UPDATE SET
		path = excluded.path,
		depth = excluded.depth,
		title = excluded.title,
		content_hash = excluded.content_hash,
		status = excluded.status,
		error_kind = excluded.error_kind,
		error = excluded.error,
		attempts = excluded.attempts,
		crawled_at = excluded.crawled_at
	`

	_, err := c.db.ExecContext(ctx, query,
		baseURL,
		rec.URL,
		rec.Path,
		rec.Depth,
		rec.Title,
		rec.ContentHash,
		status,
		errorKind,
		rec.Reason,
		rec.Attempts,
		formatTimestamp(crawledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record page %s: %w", rec.URL, err)
	}
	return nil
}

// GetPage retrieves the recorded outcome for a page. It returns nil when
// the page has never been recorded.
func (c *Catalog) GetPage(ctx context.Context, baseURL, pageURL string) (*model.PageRecord, error) {
	query := `
	SELECT url, path, depth, title, content_hash, error_kind, error, attempts, crawled_at
	FROM pages
	WHERE base_url = ? AND url = ?
	`

	var (
		rec       model.PageRecord
		path      sql.NullString
		title     sql.NullString
		hash      sql.NullString
		errorKind sql.NullString
		reason    sql.NullString
		crawledAt string
	)
	err := c.db.QueryRowContext(ctx, query, baseURL, pageURL).Scan(
		&rec.URL,
		&path,
		&rec.Depth,
		&title,
		&hash,
		&errorKind,
		&reason,
		&rec.Attempts,
		&crawledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil record means not recorded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	rec.Path = path.String
	rec.Title = title.String
	rec.ContentHash = hash.String
	rec.Failure = model.ParseFailureKind(errorKind.String)
	rec.Reason = reason.String
	rec.CrawledAt = parseTimestamp(crawledAt)
	return &rec, nil
}

// PageCounts summarizes the recorded pages of a site.
type PageCounts struct {
	// Saved is the number of pages whose latest outcome is a saved file.
	Saved int

	// Failed is the number of pages whose latest outcome is a failure.
	Failed int

	// ByKind counts failed pages per failure kind.
	ByKind map[string]int
}

// CountPages returns the page counts for a site.
func (c *Catalog) CountPages(ctx context.Context, baseURL string) (PageCounts, error) {
	counts := PageCounts{ByKind: make(map[string]int)}

	query := `
	SELECT status, COALESCE(error_kind, ''), COUNT(*)
	FROM pages
	WHERE base_url = ?
	GROUP BY status, error_kind
	`

	rows, err := c.db.QueryContext(ctx, query, baseURL)
	if err != nil {
		return counts, fmt.Errorf("failed to count pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			kind   string
			n      int
		)
		if err := rows.Scan(&status, &kind, &n); err != nil {
			return counts, fmt.Errorf("failed to scan page count: %w", err)
		}
		switch status {
		case StatusSaved:
			counts.Saved += n
		case StatusFailed:
			counts.Failed += n
			counts.ByKind[kind] += n
		}
	}
	return counts, rows.Err()
}

// FailedPages lists the pages of a site whose latest outcome is a failure,
// ordered by URL.
func (c *Catalog) FailedPages(ctx context.Context, baseURL string) ([]model.PageRecord, error) {
	query := `
	SELECT url, depth, COALESCE(error_kind, ''), COALESCE(error, ''), attempts, crawled_at
	FROM pages
	WHERE base_url = ? AND status = ?
	ORDER BY url
	`

	rows, err := c.db.QueryContext(ctx, query, baseURL, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed pages: %w", err)
	}
	defer rows.Close()

	var results []model.PageRecord
	for rows.Next() {
		var (
			rec       model.PageRecord
			kind      string
			crawledAt string
		)
		if err := rows.Scan(&rec.URL, &rec.Depth, &kind, &rec.Reason, &rec.Attempts, &crawledAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		rec.Failure = model.ParseFailureKind(kind)
		rec.CrawledAt = parseTimestamp(crawledAt)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// ListSites returns the base URLs of every crawled site.
func (c *Catalog) ListSites(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT base_url FROM runs ORDER BY base_url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,           // Written by formatTimestamp
	time.RFC3339Nano,          // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// timestampLayout has a fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

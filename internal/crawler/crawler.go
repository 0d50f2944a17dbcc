package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/doccrawl/internal/fetcher"
	"github.com/nao1215/doccrawl/internal/link"
	"github.com/nao1215/doccrawl/internal/model"
	"github.com/nao1215/doccrawl/internal/output"
	"github.com/nao1215/doccrawl/internal/state"
)

// Catalog records page outcomes. database.Catalog implements it.
type Catalog interface {
	RecordPage(ctx context.Context, baseURL string, rec model.PageRecord) error
}

// ProgressReporter receives progress after every finished page.
type ProgressReporter interface {
	Update(stats Stats)
}

// Crawler runs one crawl of a documentation site.
type Crawler struct {
	fetcher  fetcher.Fetcher
	store    *state.Store
	writer   *output.Writer
	scope    *link.Scope
	rewriter *link.Rewriter
	filter   filter

	workers         int
	retries         int
	retryDelay      time.Duration
	checkpointEvery int
	resume          bool
	retryFailed     bool

	limiter  *Limiter
	robots   *RobotsAgent
	catalog  Catalog
	progress ProgressReporter
	logger   *slog.Logger
	now      func() time.Time

	// checkpointMu serializes checkpoints so an older snapshot never
	// replaces a newer one.
	checkpointMu sync.Mutex

	// run counters, guarded by statsMu
	statsMu  sync.Mutex
	written  int
	failures []model.FailureRecord
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithWorkers sets the number of concurrent fetches.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxDepth sets the maximum link depth. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.filter.maxDepth = depth
	}
}

// WithExclude skips URLs matching re anywhere in the URL.
func WithExclude(re *regexp.Regexp) Option {
	return func(c *Crawler) {
		c.filter.exclude = re
	}
}

// WithIgnorePatterns skips URLs whose path matches any glob pattern.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.ignorePatterns = patterns
	}
}

// WithRetries sets the number of fetch attempts per URL and the base delay
// of the linear backoff between them.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(c *Crawler) {
		if attempts > 0 {
			c.retries = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithCheckpointEvery sets how many finished pages trigger a checkpoint.
func WithCheckpointEvery(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.checkpointEvery = n
		}
	}
}

// WithResume controls whether an existing state file is loaded.
func WithResume(resume bool) Option {
	return func(c *Crawler) {
		c.resume = resume
	}
}

// WithRetryFailed re-queues URLs that failed permanently in a previous run.
func WithRetryFailed(retry bool) Option {
	return func(c *Crawler) {
		c.retryFailed = retry
	}
}

// WithLimiter sets the politeness limiter.
func WithLimiter(l *Limiter) Option {
	return func(c *Crawler) {
		c.limiter = l
	}
}

// WithRobots enables robots.txt checks.
func WithRobots(a *RobotsAgent) Option {
	return func(c *Crawler) {
		c.robots = a
	}
}

// WithCatalog records every page outcome in cat.
func WithCatalog(cat Catalog) Option {
	return func(c *Crawler) {
		c.catalog = cat
	}
}

// WithProgress reports progress to p.
func WithProgress(p ProgressReporter) Option {
	return func(c *Crawler) {
		c.progress = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler for the base URL of scope.
func New(f fetcher.Fetcher, store *state.Store, w *output.Writer, scope *link.Scope, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:         f,
		store:           store,
		writer:          w,
		scope:           scope,
		rewriter:        link.NewRewriter(),
		filter:          filter{scope: scope},
		workers:         5,
		retries:         3,
		retryDelay:      2 * time.Second,
		checkpointEvery: 10,
		resume:          true,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the canonical base URL.
func (c *Crawler) BaseURL() string {
	return c.scope.Base().String()
}

// Run crawls until the queue is drained or ctx is cancelled.
//
// Cancellation is not an error: in-flight pages are returned to the queue,
// a final checkpoint is written and the summary reports Interrupted. The
// returned error is non-nil only for failures that abort the crawl, such as
// an output write error or a failed final checkpoint. A base URL that is
// filtered out returns ErrBaseExcluded before anything is fetched, and a
// fresh crawl whose base page fails returns ErrBaseUnreachable along with
// the summary.
func (c *Crawler) Run(ctx context.Context) (*model.Summary, error) {
	start := c.now()
	base := c.BaseURL()

	if !c.filter.allows(base, 0) {
		return nil, fmt.Errorf("%w: %s", ErrBaseExcluded, base)
	}

	st := c.loadState(base)
	resumed := len(st.Visited)
	fr := newFrontier(st)

	if c.retryFailed {
		if n := fr.retryFailed(); n > 0 {
			c.logger.Info("re-queued failed pages", "count", n)
		}
	}
	if st.IsEmpty() {
		fr.add(model.QueueItem{URL: base, Depth: 0})
	}

	if c.robots != nil {
		if d := c.robots.CrawlDelay(ctx, c.scope.Base()); d > 0 {
			c.logger.Info("honouring robots.txt crawl delay", "delay", d)
			c.limiter = c.limiter.WithMinDelay(d)
		}
	}

	c.logger.Info("starting crawl",
		"base_url", base,
		"workers", c.workers,
		"visited", resumed,
		"queued", len(st.Queue))

	g, gctx := errgroup.WithContext(ctx)
	for range c.workers {
		g.Go(func() error {
			return c.worker(gctx, fr)
		})
	}
	runErr := g.Wait()

	ckErr := c.checkpoint(fr)
	if ckErr != nil {
		c.logger.Error("final checkpoint failed", "error", ckErr)
	}

	summary := c.summary(fr, start, resumed, ctx.Err() != nil)
	c.logger.Info("crawl finished",
		"written", summary.PagesWritten,
		"errors", summary.Errors,
		"pending", summary.Pending,
		"interrupted", summary.Interrupted)

	if runErr != nil {
		return summary, runErr
	}
	if rec, ok := c.baseFailure(fr, base, resumed); ok && !summary.Interrupted {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("could not remove state of the failed crawl", "error", err)
		}
		return summary, fmt.Errorf("%w: %s (%s): %s", ErrBaseUnreachable, base, rec.Kind, rec.Reason)
	}
	if ckErr != nil {
		return summary, ckErr
	}
	return summary, nil
}

// baseFailure returns the failure record of the base URL when this run
// resumed nothing and saved nothing.
func (c *Crawler) baseFailure(fr *frontier, base string, resumed int) (model.FailureRecord, bool) {
	if resumed > 0 {
		return model.FailureRecord{}, false
	}
	c.statsMu.Lock()
	written := c.written
	c.statsMu.Unlock()
	if written > 0 {
		return model.FailureRecord{}, false
	}
	return fr.failure(base)
}

// loadState returns the state to start from. Any problem with the saved
// state results in a fresh crawl.
func (c *Crawler) loadState(base string) *model.CrawlState {
	fresh := model.NewCrawlState(base)

	if !c.resume {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("could not remove previous state", "error", err)
		}
		return fresh
	}

	st, err := c.store.Load()
	switch {
	case errors.Is(err, state.ErrNoState):
		return fresh
	case errors.Is(err, state.ErrStateCorrupt):
		c.logger.Warn("state file is corrupt, starting a fresh crawl", "path", c.store.Path(), "error", err)
		return fresh
	case err != nil:
		c.logger.Warn("could not read state file, starting a fresh crawl", "path", c.store.Path(), "error", err)
		return fresh
	case st.BaseURL != base:
		c.logger.Warn("state file belongs to another crawl, starting a fresh crawl",
			"state_base_url", st.BaseURL,
			"base_url", base)
		return fresh
	}

	c.logger.Info("resuming crawl",
		"visited", len(st.Visited),
		"queued", len(st.Queue),
		"failed", len(st.Failed),
		"checkpoint", st.Timestamp)
	return st
}

// worker processes queue items until the frontier is drained, ctx is
// cancelled, or a fatal error occurs.
func (c *Crawler) worker(ctx context.Context, fr *frontier) error {
	for {
		item, ok, err := fr.next(ctx)
		if err != nil || !ok {
			return nil
		}
		if err := c.process(ctx, fr, item); err != nil {
			return err
		}
	}
}

// process fetches, links, rewrites and writes one page.
func (c *Crawler) process(ctx context.Context, fr *frontier, item model.QueueItem) error {
	logger := c.logger.With("url", item.URL, "depth", item.Depth)

	target, err := url.Parse(item.URL)
	if err != nil {
		c.recordFailure(ctx, fr, item, model.FailureParse, err, 0)
		return nil
	}

	if !c.robots.Allowed(ctx, target) {
		logger.Info("disallowed by robots.txt")
		c.recordFailure(ctx, fr, item, model.FailureDisallowed, errors.New("disallowed by robots.txt"), 0)
		return nil
	}

	result, attempts, err := c.fetchWithRetry(ctx, item, target.Host)
	if ctx.Err() != nil {
		fr.release(item)
		return nil
	}
	if err != nil {
		kind := fetcher.KindOf(err)
		logger.Warn("giving up on page", "kind", kind, "attempts", attempts, "error", err)
		c.recordFailure(ctx, fr, item, kind, err, attempts)
		return nil
	}

	c.enqueueLinks(fr, item, result.Links)

	relPath, err := c.writer.PathFor(item.URL)
	if err != nil {
		fr.release(item)
		return fmt.Errorf("%w: %v", output.ErrWrite, err)
	}
	content := c.rewriter.Rewrite(result.Content, item.URL, relPath, c.resolver(fr))

	if _, err := c.writer.Write(item.URL, content); err != nil {
		fr.release(item)
		return err
	}

	n := fr.complete(item.URL)
	c.statsMu.Lock()
	c.written++
	c.statsMu.Unlock()
	logger.Debug("saved page", "path", relPath, "links", len(result.Links))

	result.Content = content
	c.recordPage(ctx, model.PageRecord{
		URL:         item.URL,
		Path:        relPath,
		Depth:       item.Depth,
		Title:       result.Title,
		ContentHash: result.ContentHash(),
		Attempts:    attempts,
		CrawledAt:   c.now(),
	})
	c.afterPage(fr, n)
	return nil
}

// fetchWithRetry fetches item, retrying retryable failures with linear
// backoff. It returns the number of attempts made.
func (c *Crawler) fetchWithRetry(ctx context.Context, item model.QueueItem, host string) (*model.PageResult, int, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx, host); err != nil {
			return nil, attempt - 1, err
		}

		result, err := c.fetcher.Fetch(ctx, item.URL)
		if err == nil {
			result.Depth = item.Depth
			result.Attempts = attempt
			return result, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}

		kind := fetcher.KindOf(err)
		if !kind.Retryable() || attempt >= c.retries {
			return nil, attempt, err
		}

		backoff := c.retryDelay * time.Duration(attempt)
		c.logger.Debug("retrying page",
			"url", item.URL,
			"attempt", attempt,
			"kind", kind,
			"backoff", backoff,
			"error", err)

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, ctx.Err()
			}
		}
	}
}

// enqueueLinks queues the eligible links of a page at the next depth.
func (c *Crawler) enqueueLinks(fr *frontier, parent model.QueueItem, links []string) {
	depth := parent.Depth + 1
	items := make([]model.QueueItem, 0, len(links))
	for _, raw := range links {
		canonical, _, err := link.Normalize(raw, nil)
		if err != nil {
			continue
		}
		if !c.filter.allows(canonical, depth) {
			continue
		}
		items = append(items, model.QueueItem{URL: canonical, Depth: depth})
	}
	if added := fr.add(items...); added > 0 {
		c.logger.Debug("queued links", "url", parent.URL, "added", added)
	}
}

// resolver maps canonical URLs that are or will be saved to their output
// paths.
func (c *Crawler) resolver(fr *frontier) link.ResolverFunc {
	return func(canonical string) (string, bool) {
		if !c.scope.Contains(canonical) || !fr.local(canonical) {
			return "", false
		}
		p, err := c.writer.PathFor(canonical)
		if err != nil {
			return "", false
		}
		return p, true
	}
}

// recordFailure marks item permanently failed.
func (c *Crawler) recordFailure(ctx context.Context, fr *frontier, item model.QueueItem, kind model.FailureKind, cause error, attempts int) {
	rec := model.FailureRecord{
		URL:      item.URL,
		Kind:     kind,
		Reason:   cause.Error(),
		Attempts: attempts,
		Depth:    item.Depth,
	}
	n := fr.fail(rec)

	c.statsMu.Lock()
	c.failures = append(c.failures, rec)
	c.statsMu.Unlock()

	c.recordPage(ctx, model.PageRecord{
		URL:       item.URL,
		Depth:     item.Depth,
		Failure:   kind,
		Reason:    rec.Reason,
		Attempts:  attempts,
		CrawledAt: c.now(),
	})
	c.afterPage(fr, n)
}

func (c *Crawler) recordPage(ctx context.Context, rec model.PageRecord) {
	if c.catalog == nil {
		return
	}
	if err := c.catalog.RecordPage(context.WithoutCancel(ctx), c.BaseURL(), rec); err != nil {
		c.logger.Warn("failed to record page in catalog", "url", rec.URL, "error", err)
	}
}

// afterPage reports progress and takes a periodic checkpoint.
func (c *Crawler) afterPage(fr *frontier, completions int) {
	if c.progress != nil {
		c.progress.Update(fr.stats())
	}
	if completions%c.checkpointEvery == 0 {
		if err := c.checkpoint(fr); err != nil {
			c.logger.Warn("checkpoint failed", "error", err)
		}
	}
}

// checkpoint saves a snapshot of the frontier.
func (c *Crawler) checkpoint(fr *frontier) error {
	c.checkpointMu.Lock()
	defer c.checkpointMu.Unlock()

	snap := fr.snapshot()
	if err := c.store.Checkpoint(snap); err != nil {
		return err
	}
	c.logger.Debug("checkpoint saved",
		"visited", len(snap.Visited),
		"queued", len(snap.Queue),
		"failed", len(snap.Failed))
	return nil
}

func (c *Crawler) summary(fr *frontier, start time.Time, resumed int, interrupted bool) *model.Summary {
	stats := fr.stats()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	failures := make([]model.FailureRecord, len(c.failures))
	copy(failures, c.failures)

	return &model.Summary{
		BaseURL:      c.BaseURL(),
		OutputDir:    c.writer.Dir(),
		StartedAt:    start,
		Duration:     c.now().Sub(start),
		PagesWritten: c.written,
		PagesResumed: resumed,
		Errors:       len(failures),
		Failures:     failures,
		Pending:      stats.Queued + stats.InFlight,
		Interrupted:  interrupted && stats.Queued+stats.InFlight > 0,
	}
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/doccrawl/internal/model"
)

// BrowserFetcher renders pages in a shared Chromium instance. Each fetch
// opens its own tab, so concurrent fetches are safe.
type BrowserFetcher struct {
	opts      Options
	extractor *Extractor

	allocCancel   context.CancelFunc
	browserCtx    context.Context //nolint:containedctx // chromedp scopes the browser lifetime to a context
	browserCancel context.CancelFunc

	closeOnce sync.Once
}

// NewBrowserFetcher starts Chromium and returns a fetcher that drives it.
func NewBrowserFetcher(opts Options) (*BrowserFetcher, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			opts.logger().Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}))

	// An empty Run starts the browser so startup errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &BrowserFetcher{
		opts:          opts,
		extractor:     NewExtractor(),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// allocatorOptions translates Options into Chromium flags.
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.UserAgent(opts.userAgent()),
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.BrowserPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.BrowserPath))
	}
	if opts.ProxyAddress != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer("socks5://"+opts.ProxyAddress))
	}
	return allocOpts
}

// extraHeaders returns the headers injected into every browser request.
func extraHeaders(opts Options) network.Headers {
	if opts.Cookie == "" && len(opts.Headers) == 0 {
		return nil
	}
	h := make(network.Headers, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		h[k] = v
	}
	if opts.Cookie != "" {
		h["Cookie"] = opts.Cookie
	}
	return h
}

// Fetch implements Fetcher.
func (b *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*model.PageResult, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()

	// Closing the tab is the only way to abort a navigation in flight.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	timeout := b.opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var (
		location string
		rawHTML  string
		doc      documentStatus
	)
	chromedp.ListenTarget(tabCtx, doc.listen)

	tasks := chromedp.Tasks{network.Enable()}
	if headers := extraHeaders(b.opts); headers != nil {
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	tasks = append(tasks,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if b.opts.RenderWait > 0 {
		tasks = append(tasks, chromedp.Sleep(b.opts.RenderWait))
	}
	tasks = append(tasks,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &rawHTML, chromedp.ByQuery),
	)

	start := time.Now()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		kind := model.FailureNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			kind = model.FailureTimeout
		}
		return nil, newError(kind, pageURL, err)
	}

	status := doc.get()
	if status != 0 {
		if err := statusError(status); err != nil {
			return nil, newError(statusKind(err), pageURL, err)
		}
	}

	b.opts.logger().Debug("rendered page",
		"url", pageURL,
		"status", status,
		"bytes", len(rawHTML),
		"elapsed", time.Since(start))

	return buildResult(pageURL, location, rawHTML, b.opts, b.extractor)
}

// documentStatus records the HTTP status of the first document response
// seen in a tab, which is the page itself; frames load after it.
type documentStatus struct {
	mu     sync.Mutex
	status int
}

func (d *documentStatus) listen(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == 0 {
		d.status = int(e.Response.Status)
	}
}

// get returns the recorded status, or 0 when no document response was seen.
func (d *documentStatus) get() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	b.closeOnce.Do(func() {
		b.browserCancel()
		b.allocCancel()
	})
	return nil
}

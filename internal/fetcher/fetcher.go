package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
)

// Fetcher retrieves one page.
type Fetcher interface {
	// Fetch retrieves pageURL. On failure the returned error is an *Error.
	Fetch(ctx context.Context, pageURL string) (*model.PageResult, error)

	// Close releases resources such as a running browser.
	Close() error
}

// Engine names a fetch implementation.
type Engine string

const (
	// EngineHTTP fetches pages with net/http.
	EngineHTTP Engine = "http"

	// EngineBrowser renders pages in Chromium.
	EngineBrowser Engine = "browser"
)

// ParseEngine validates an engine name. The empty string selects EngineHTTP.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineHTTP:
		return EngineHTTP, nil
	case EngineBrowser:
		return EngineBrowser, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

var (
	// ErrUnknownEngine is returned by ParseEngine and New for unknown engines.
	ErrUnknownEngine = errors.New("unknown fetch engine")

	// ErrAuthRequired is wrapped by errors for pages that demand a login.
	ErrAuthRequired = errors.New("authentication required")

	// ErrUnsupportedContent is wrapped by errors for responses that are not
	// HTML or plain text.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrHTTPStatus is wrapped by errors for unexpected HTTP status codes.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Error is a classified fetch failure.
type Error struct {
	// Kind is the failure class.
	Kind model.FailureKind

	// URL is the page that failed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s fetching %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind model.FailureKind, pageURL string, err error) *Error {
	return &Error{Kind: kind, URL: pageURL, Err: err}
}

// KindOf returns the failure class of err. Errors that are not *Error are
// classified from their cause: deadlines and network timeouts are
// FailureTimeout, everything else FailureNetwork.
func KindOf(err error) model.FailureKind {
	if err == nil {
		return model.FailureNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classifyTransport(err)
}

// classifyTransport distinguishes timeouts from other transport errors.
func classifyTransport(err error) model.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureNetwork
}

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; doccrawl/1.0; +https://github.com/nao1215/doccrawl)"

// Options configures both fetch engines. Fields that do not apply to an
// engine are ignored by it.
type Options struct {
	// Timeout bounds a single fetch attempt.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize limits how many bytes of a response are read.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Cookie is a raw Cookie header value added to every request.
	Cookie string

	// Headers are extra request headers.
	Headers map[string]string

	// DetectLogin classifies pages that look like a login form as
	// FailureAuthRequired instead of saving them.
	DetectLogin bool

	// Headless runs the browser without a window.
	Headless bool

	// UserDataDir is a persistent browser profile directory.
	UserDataDir string

	// BrowserPath is the Chromium executable. Empty means search PATH.
	BrowserPath string

	// RenderWait is an extra delay after the page is ready, giving
	// client-side rendering time to finish.
	RenderWait time.Duration

	// Logger receives debug output. nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: 10 * 1024 * 1024,
		Headless:    true,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return DefaultUserAgent
}

// New returns the Fetcher for engine.
func New(engine Engine, opts Options) (Fetcher, error) {
	switch engine {
	case EngineHTTP, "":
		return NewHTTPFetcher(opts)
	case EngineBrowser:
		return NewBrowserFetcher(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// buildResult runs the shared parse and extract step for a fetched HTML
// document. finalURL is the document's own URL after redirects, used to
// resolve relative links.
func buildResult(pageURL, finalURL, rawHTML string, opts Options, extractor *Extractor) (*model.PageResult, error) {
	if finalURL == "" {
		finalURL = pageURL
	}

	parser, err := NewParser(finalURL)
	if err != nil {
		return nil, newError(model.FailureParse, pageURL, err)
	}
	parsed, err := parser.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, newError(model.FailureParse, pageURL, err)
	}

	if opts.DetectLogin && parsed.LooksLikeLogin() {
		return nil, newError(model.FailureAuthRequired, pageURL, fmt.Errorf("%w: login page served", ErrAuthRequired))
	}

	content, err := extractor.Extract(finalURL, rawHTML)
	if err != nil {
		return nil, newError(model.FailureParse, pageURL, err)
	}

	result := &model.PageResult{
		URL:     pageURL,
		Title:   parsed.Title,
		Content: content,
		HTML:    rawHTML,
		Links:   parsed.Links,
	}
	if finalURL != pageURL {
		result.FinalURL = finalURL
	}
	return result, nil
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/doccrawl/internal/model"
)

// maxRedirects bounds redirect chains.
const maxRedirects = 10

// HTTPFetcher fetches pages with net/http.
type HTTPFetcher struct {
	client    *http.Client
	opts      Options
	extractor *Extractor
}

// NewHTTPFetcher creates an HTTPFetcher. When opts.ProxyAddress is set all
// connections go through that SOCKS5 proxy.
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	client, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{
		client:    client,
		opts:      opts,
		extractor: NewExtractor(),
	}, nil
}

// newHTTPClient builds the client shared by the HTTP engine and the robots
// agent. The site cookie and headers are injected by a RoundTripper so
// redirects carry them too.
func newHTTPClient(opts Options) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 30 * time.Second

	if opts.ProxyAddress != "" {
		if !isValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      transport,
			userAgent: opts.userAgent(),
			cookie:    opts.Cookie,
			headers:   opts.Headers,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}, nil
}

// Client returns the underlying HTTP client.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.PageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, newError(model.FailureNetwork, pageURL, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(classifyTransport(err), pageURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, newError(statusKind(err), pageURL, err)
	}

	limit := f.opts.MaxBodySize
	if limit <= 0 {
		limit = DefaultOptions().MaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, newError(classifyTransport(err), pageURL, err)
	}

	finalURL := resp.Request.URL.String()
	f.opts.logger().Debug("fetched page",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")) //nolint:errcheck // empty media type handled below
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return buildResult(pageURL, finalURL, string(body), f.opts, f.extractor)
	case mediaType == "text/markdown" || mediaType == "text/plain":
		result := &model.PageResult{URL: pageURL, Content: string(body)}
		if finalURL != pageURL {
			result.FinalURL = finalURL
		}
		return result, nil
	default:
		return nil, newError(model.FailureParse, pageURL, fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType))
	}
}

// Close implements Fetcher.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// checkStatus maps non-success responses to errors.
func checkStatus(resp *http.Response) error {
	return statusError(resp.StatusCode)
}

// statusError maps a non-success HTTP status code to an error. It is shared
// by both engines.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized,
		code == http.StatusForbidden,
		code == http.StatusProxyAuthRequired:
		return fmt.Errorf("%w: HTTP %d", ErrAuthRequired, code)
	default:
		return fmt.Errorf("%w: %d %s", ErrHTTPStatus, code, http.StatusText(code))
	}
}

// statusKind classifies an error returned by statusError.
func statusKind(err error) model.FailureKind {
	if errors.Is(err, ErrAuthRequired) {
		return model.FailureAuthRequired
	}
	return model.FailureNetwork
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// headerInjectingTransport wraps an http.RoundTripper to inject the user
// agent, a site cookie and custom headers into every request.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

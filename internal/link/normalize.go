package link

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL is returned when a URL cannot be parsed or lacks a host.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnsupportedScheme is returned for mailto:, javascript: and other
	// non-HTTP schemes.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// defaultPorts maps schemes to the port that is implied when none is given.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize resolves raw against base (which may be nil for absolute URLs)
// and returns its canonical form together with the fragment that was removed.
// The fragment is returned in its escaped form, without the leading '#'.
func Normalize(raw string, base *url.URL) (string, string, error) {
	u, fragment, err := normalizeURL(raw, base)
	if err != nil {
		return "", "", err
	}
	return u.String(), fragment, nil
}

// MustNormalize is like Normalize but returns raw unchanged on error.
// It is meant for log fields and tests, never for crawl decisions.
func MustNormalize(raw string) string {
	canonical, _, err := Normalize(raw, nil)
	if err != nil {
		return raw
	}
	return canonical
}

// Parse normalizes raw and returns the canonical URL as a *url.URL.
func Parse(raw string) (*url.URL, error) {
	u, _, err := normalizeURL(raw, nil)
	return u, err
}

func normalizeURL(raw string, base *url.URL) (*url.URL, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	// ResolveReference also removes dot segments from absolute references.
	if base == nil {
		base = &url.URL{}
	}
	u := base.ResolveReference(ref)

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		return nil, "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, raw)
	}
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, "", fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	fragment := u.EscapedFragment()
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.ForceQuery = false

	escaped := u.EscapedPath()
	if escaped == "" {
		escaped = "/"
	}
	if len(escaped) > 1 {
		escaped = strings.TrimRight(escaped, "/")
		if escaped == "" {
			escaped = "/"
		}
	}
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Path = decoded
	u.RawPath = escaped

	return u, fragment, nil
}

// SplitFragment separates the fragment from a raw URL string without
// otherwise touching it.
func SplitFragment(raw string) (string, string) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

package link

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ScopeMode selects which discovered URLs are eligible for crawling.
type ScopeMode string

const (
	// ScopePrefix admits URLs on the base host whose path is at or below the
	// base URL's directory.
	ScopePrefix ScopeMode = "prefix"

	// ScopeHost admits any URL on the base host.
	ScopeHost ScopeMode = "host"
)

// ParseScopeMode validates a scope mode name. The empty string selects
// ScopePrefix.
func ParseScopeMode(s string) (ScopeMode, error) {
	switch ScopeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopePrefix:
		return ScopePrefix, nil
	case ScopeHost:
		return ScopeHost, nil
	default:
		return "", fmt.Errorf("unknown scope mode %q (expected %q or %q)", s, ScopePrefix, ScopeHost)
	}
}

// Scope decides whether a canonical URL belongs to a crawl.
type Scope struct {
	mode   ScopeMode
	base   *url.URL
	prefix string
}

// NewScope builds a Scope around baseURL, which is normalized first.
func NewScope(baseURL string, mode ScopeMode) (*Scope, error) {
	base, err := Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ScopePrefix
	}

	prefix := "/"
	if mode == ScopePrefix {
		prefix = directoryOf(base.Path)
	}

	return &Scope{mode: mode, base: base, prefix: prefix}, nil
}

// directoryOf returns the directory that a base path stands for.
// "/docs" and "/docs/" stand for "/docs"; "/docs/index.html" stands for "/docs".
func directoryOf(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if strings.Contains(path.Base(p), ".") {
		return path.Dir(p)
	}
	return p
}

// Mode returns the scope mode.
func (s *Scope) Mode() ScopeMode {
	return s.mode
}

// Base returns a copy of the canonical base URL.
func (s *Scope) Base() *url.URL {
	u := *s.base
	return &u
}

// Root returns the path prefix that output file paths are relative to.
func (s *Scope) Root() string {
	return s.prefix
}

// Contains reports whether the canonical URL is in scope.
func (s *Scope) Contains(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, s.base.Scheme) || !strings.EqualFold(u.Host, s.base.Host) {
		return false
	}
	return UnderPrefix(u.Path, s.prefix)
}

// UnderPrefix reports whether p equals prefix or lies below it on a
// segment boundary, so "/docs" covers "/docs/a" but not "/docsearch".
func UnderPrefix(p, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, strings.TrimRight(prefix, "/")+"/")
}

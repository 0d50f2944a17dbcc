package crawler

import (
	"net/url"
	"regexp"

	"github.com/nao1215/doccrawl/internal/link"
)

// filter decides whether a discovered URL may be queued.
type filter struct {
	scope          *link.Scope
	maxDepth       int
	exclude        *regexp.Regexp
	ignorePatterns []string
}

// allows reports whether canonical may be queued at depth.
//
// Logic:
//  1. Depth must be within maxDepth, unless maxDepth is 0 (unlimited)
//  2. The URL must be in scope
//  3. The URL must not match the exclude expression (searched anywhere in
//     the URL)
//  4. The URL path must not match any ignore pattern
func (f *filter) allows(canonical string, depth int) bool {
	if f.maxDepth > 0 && depth > f.maxDepth {
		return false
	}
	if f.scope != nil && !f.scope.Contains(canonical) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(canonical) {
		return false
	}
	if len(f.ignorePatterns) > 0 {
		u, err := url.Parse(canonical)
		if err != nil {
			return false
		}
		p := u.Path
		if p == "" {
			p = "/"
		}
		for _, pattern := range f.ignorePatterns {
			if link.MatchPattern(pattern, p) {
				return false
			}
		}
	}
	return true
}

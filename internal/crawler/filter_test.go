package crawler

import (
	"regexp"
	"testing"

	"github.com/nao1215/doccrawl/internal/link"
)

func TestFilterAllows(t *testing.T) {
	t.Parallel()

	scope, err := link.NewScope("https://example.com/docs", link.ScopePrefix)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	f := filter{
		scope:          scope,
		maxDepth:       2,
		exclude:        regexp.MustCompile(`/api/.*`),
		ignorePatterns: []string{"*.zip"},
	}

	tests := []struct {
		name  string
		url   string
		depth int
		want  bool
	}{
		{"in scope", "https://example.com/docs/guide", 1, true},
		{"at max depth", "https://example.com/docs/guide", 2, true},
		{"beyond max depth", "https://example.com/docs/guide", 3, false},
		{"out of scope", "https://example.com/blog", 1, false},
		{"excluded", "https://example.com/docs/api/users", 1, false},
		{"ignored", "https://example.com/docs/bundle.zip", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := f.allows(tt.url, tt.depth); got != tt.want {
				t.Errorf("allows(%q, %d) = %v, want %v", tt.url, tt.depth, got, tt.want)
			}
		})
	}

	unlimited := filter{scope: scope}
	if !unlimited.allows("https://example.com/docs/deep", 100) {
		t.Error("expected max depth 0 to be unlimited")
	}
}

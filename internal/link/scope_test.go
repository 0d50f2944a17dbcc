package link

import "testing"

func TestScopeContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		mode ScopeMode
		url  string
		want bool
	}{
		{"prefix base itself", "https://example.com/docs", ScopePrefix, "https://example.com/docs", true},
		{"prefix child", "https://example.com/docs", ScopePrefix, "https://example.com/docs/a/b", true},
		{"prefix sibling with same prefix", "https://example.com/docs", ScopePrefix, "https://example.com/docsearch", false},
		{"prefix outside", "https://example.com/docs", ScopePrefix, "https://example.com/blog", false},
		{"prefix trailing slash base", "https://example.com/docs/", ScopePrefix, "https://example.com/docs/a", true},
		{"prefix file base", "https://example.com/docs/index.html", ScopePrefix, "https://example.com/docs/other", true},
		{"prefix root base", "https://example.com/", ScopePrefix, "https://example.com/anything", true},
		{"other host", "https://example.com/docs", ScopePrefix, "https://other.com/docs/a", false},
		{"other scheme", "https://example.com/docs", ScopePrefix, "http://example.com/docs/a", false},
		{"host mode any path", "https://example.com/docs", ScopeHost, "https://example.com/blog", true},
		{"host mode other host", "https://example.com/docs", ScopeHost, "https://sub.example.com/docs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scope, err := NewScope(tt.base, tt.mode)
			if err != nil {
				t.Fatalf("failed to create scope: %v", err)
			}
			if got := scope.Contains(tt.url); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestScopeRoot(t *testing.T) {
	t.Parallel()

	scope, err := NewScope("https://example.com/docs/guide/", ScopePrefix)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	if scope.Root() != "/docs/guide" {
		t.Errorf("expected root /docs/guide, got %q", scope.Root())
	}

	host, err := NewScope("https://example.com/docs/guide", ScopeHost)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	if host.Root() != "/" {
		t.Errorf("expected root /, got %q", host.Root())
	}
}

func TestParseScopeMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ScopeMode{"": ScopePrefix, "prefix": ScopePrefix, "HOST": ScopeHost} {
		got, err := ParseScopeMode(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseScopeMode(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseScopeMode("domain"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

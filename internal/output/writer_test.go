package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/doccrawl/internal/link"
)

func newTestWriter(t *testing.T, base string, mode link.ScopeMode) *Writer {
	t.Helper()
	scope, err := link.NewScope(base, mode)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	return NewWriter(t.TempDir(), scope)
}

func TestPathFor(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, "https://example.com/docs", link.ScopePrefix)

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/docs", "index.md"},
		{"https://example.com/docs/guide", "guide/index.md"},
		{"https://example.com/docs/guide/setup", "guide/setup/index.md"},
		{"https://example.com/docs/a.html", "a.html.md"},
		{"https://example.com/docs/api/v1.2", "api/v1.2.md"},
		{"https://example.com/docs/search?q=go", "search/index_q=go.md"},
		{"https://example.com/docs/a%3Ab", "a_b/index.md"},
		{"https://example.com/docs/caf%C3%A9", "café/index.md"},
		{"https://example.com/docs/cafe%CC%81", "café/index.md"},
		{"https://example.com/docs/a%20b", "a b/index.md"},
	}

	for _, tt := range tests {
		got, err := w.PathFor(tt.url)
		if err != nil {
			t.Errorf("PathFor(%q) returned error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PathFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPathForHostScope(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, "https://example.com/docs", link.ScopeHost)

	got, err := w.PathFor("https://example.com/blog/post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "blog/post/index.md" {
		t.Errorf("expected blog/post/index.md, got %q", got)
	}

	root, err := w.PathFor("https://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != "index.md" {
		t.Errorf("expected index.md, got %q", root)
	}
}

func TestPathForIsDeterministic(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, "https://example.com/docs", link.ScopePrefix)

	first, err := w.PathFor("https://example.com/docs/x/y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 5 {
		again, err := w.PathFor("https://example.com/docs/x/y")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("expected stable path %q, got %q", first, again)
		}
	}
}

func TestPathForLongSegment(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, "https://example.com/", link.ScopePrefix)

	a, err := w.PathFor("https://example.com/" + strings.Repeat("a", 300))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := w.PathFor("https://example.com/" + strings.Repeat("a", 299) + "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Error("expected distinct paths for distinct long segments")
	}
	for _, p := range []string{a, b} {
		for _, seg := range strings.Split(p, "/") {
			if len(seg) > 255 {
				t.Errorf("segment too long: %d bytes", len(seg))
			}
		}
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("writes file under output dir", func(t *testing.T) {
		t.Parallel()

		w := newTestWriter(t, "https://example.com/docs", link.ScopePrefix)
		rel, err := w.Write("https://example.com/docs/guide", "# Guide\n")
		if err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if rel != "guide/index.md" {
			t.Errorf("expected guide/index.md, got %q", rel)
		}

		got, err := os.ReadFile(filepath.Join(w.Dir(), "guide", "index.md"))
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(got) != "# Guide\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("overwrites on rerun", func(t *testing.T) {
		t.Parallel()

		w := newTestWriter(t, "https://example.com/docs", link.ScopePrefix)
		for _, content := range []string{"old", "new"} {
			if _, err := w.Write("https://example.com/docs", content); err != nil {
				t.Fatalf("write failed: %v", err)
			}
		}
		got, err := os.ReadFile(filepath.Join(w.Dir(), "index.md"))
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(got) != "new" {
			t.Errorf("expected new content, got %q", got)
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "out")
		if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
			t.Fatalf("failed to create blocker: %v", err)
		}

		w := NewWriter(blocker, nil)
		_, err := w.Write("https://example.com/a", "content")
		if !errors.Is(err, ErrWrite) {
			t.Errorf("expected ErrWrite, got %v", err)
		}
	})
}

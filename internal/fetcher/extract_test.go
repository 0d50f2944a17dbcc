package fetcher

import (
	"strings"
	"testing"
)

func TestExtractor(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	t.Run("converts content and absolutizes links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<header><a href="/">Site header</a></header>
			<h1>Guide</h1>
			<p>Read the <a href="setup#install">setup</a> page.</p>
			<p>Jump to <a href="#usage">usage</a>.</p>
			<footer>Copyright</footer>
		</body></html>`

		got, err := e.Extract("https://example.com/docs/guide", html)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}

		if !strings.Contains(got, "# Guide") {
			t.Errorf("expected ATX heading, got %q", got)
		}
		if !strings.Contains(got, "[setup](https://example.com/docs/setup#install)") {
			t.Errorf("expected absolute link with fragment, got %q", got)
		}
		if !strings.Contains(got, "[usage](#usage)") {
			t.Errorf("expected fragment link untouched, got %q", got)
		}
		if strings.Contains(got, "Site header") || strings.Contains(got, "Copyright") {
			t.Errorf("expected header and footer removed, got %q", got)
		}
	})

	t.Run("prefers main element", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div>Sidebar</div><main><p>Body text</p></main></body></html>`
		got, err := e.Extract("https://example.com/", html)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if strings.Contains(got, "Sidebar") {
			t.Errorf("expected only main content, got %q", got)
		}
		if !strings.Contains(got, "Body text") {
			t.Errorf("expected main content, got %q", got)
		}
	})

	t.Run("extra selectors removed", func(t *testing.T) {
		t.Parallel()

		custom := NewExtractor(".cookie-banner")
		html := `<html><body><div class="cookie-banner">Accept cookies</div><p>Docs</p></body></html>`
		got, err := custom.Extract("https://example.com/", html)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if strings.Contains(got, "Accept cookies") {
			t.Errorf("expected banner removed, got %q", got)
		}
	})

	t.Run("fenced code blocks", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><pre><code>go run .</code></pre></body></html>`
		got, err := e.Extract("https://example.com/", html)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if !strings.Contains(got, "```") {
			t.Errorf("expected fenced code block, got %q", got)
		}
	})
}

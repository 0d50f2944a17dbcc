package link

import (
	"errors"
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://docs.example.com/guide/intro")
	if err != nil {
		t.Fatalf("failed to parse base: %v", err)
	}

	tests := []struct {
		name         string
		raw          string
		wantURL      string
		wantFragment string
	}{
		{"absolute unchanged", "https://docs.example.com/guide/setup", "https://docs.example.com/guide/setup", ""},
		{"relative sibling", "setup", "https://docs.example.com/guide/setup", ""},
		{"relative parent", "../api/ref", "https://docs.example.com/api/ref", ""},
		{"root relative", "/faq", "https://docs.example.com/faq", ""},
		{"fragment stripped", "setup#install", "https://docs.example.com/guide/setup", "install"},
		{"fragment only", "#top", "https://docs.example.com/guide/intro", "top"},
		{"uppercase host and scheme", "HTTPS://Docs.Example.COM/guide/setup", "https://docs.example.com/guide/setup", ""},
		{"default https port", "https://docs.example.com:443/guide", "https://docs.example.com/guide", ""},
		{"default http port", "http://docs.example.com:80/guide", "http://docs.example.com/guide", ""},
		{"non default port kept", "https://docs.example.com:8443/guide", "https://docs.example.com:8443/guide", ""},
		{"trailing slash collapsed", "https://docs.example.com/guide/", "https://docs.example.com/guide", ""},
		{"root keeps slash", "https://docs.example.com", "https://docs.example.com/", ""},
		{"dot segments removed", "https://docs.example.com/a/./b/../c", "https://docs.example.com/a/c", ""},
		{"empty query dropped", "https://docs.example.com/guide?", "https://docs.example.com/guide", ""},
		{"query kept", "https://docs.example.com/search?q=go", "https://docs.example.com/search?q=go", ""},
		{"escaped path kept", "https://docs.example.com/a%20b", "https://docs.example.com/a%20b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, frag, err := Normalize(tt.raw, base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("expected %q, got %q", tt.wantURL, got)
			}
			if frag != tt.wantFragment {
				t.Errorf("expected fragment %q, got %q", tt.wantFragment, frag)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"mailto", "mailto:admin@example.com", ErrUnsupportedScheme},
		{"javascript", "javascript:void(0)", ErrUnsupportedScheme},
		{"tel", "tel:+1234", ErrUnsupportedScheme},
		{"data", "data:text/plain,hi", ErrUnsupportedScheme},
		{"ftp", "ftp://example.com/file", ErrUnsupportedScheme},
		{"empty", "   ", ErrInvalidURL},
		{"relative without base", "/docs", ErrInvalidURL},
		{"missing host", "https:///path", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Normalize(tt.raw, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeFragmentVariantsAgree(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://example.com/docs/page",
		"https://example.com/docs/page#a",
		"https://example.com/docs/page#b",
		"https://example.com/docs/page/",
		"https://EXAMPLE.com:443/docs/page#c",
	}

	want, _, err := Normalize(variants[0], nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range variants[1:] {
		got, _, err := Normalize(v, nil)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", v, err)
		}
		if got != want {
			t.Errorf("expected %q to normalize to %q, got %q", v, want, got)
		}
	}
}

func TestSplitFragment(t *testing.T) {
	t.Parallel()

	u, frag := SplitFragment("https://example.com/a#b")
	if u != "https://example.com/a" || frag != "b" {
		t.Errorf("unexpected split: %q %q", u, frag)
	}

	u, frag = SplitFragment("https://example.com/a")
	if u != "https://example.com/a" || frag != "" {
		t.Errorf("unexpected split without fragment: %q %q", u, frag)
	}
}

func TestMustNormalize(t *testing.T) {
	t.Parallel()

	if got := MustNormalize("https://Example.com/a/"); got != "https://example.com/a" {
		t.Errorf("expected normalized URL, got %q", got)
	}
	if got := MustNormalize("not a url"); got != "not a url" {
		t.Errorf("expected raw input back, got %q", got)
	}
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Docs</title></head><body><h1>Docs</h1><a href="/docs/a">A</a></body></html>`)
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Sign In</title></head><body><form><input type="password"></form></body></html>`)
	})
	mux.HandleFunc("/file.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	})
	mux.HandleFunc("/notes.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "plain notes")
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><p>cookie=%s</p><p>token=%s</p><p>ua=%s</p></body></html>`,
			r.Header.Get("Cookie"), r.Header.Get("X-Token"), r.Header.Get("User-Agent"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	opts := DefaultOptions()
	opts.Timeout = 500 * time.Millisecond
	opts.DetectLogin = true
	f, err := NewHTTPFetcher(opts)
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	t.Run("html page", func(t *testing.T) {
		t.Parallel()

		result, err := f.Fetch(context.Background(), server.URL+"/docs")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if result.Title != "Docs" {
			t.Errorf("expected title Docs, got %q", result.Title)
		}
		if !strings.Contains(result.Content, "# Docs") {
			t.Errorf("expected markdown heading, got %q", result.Content)
		}
		if len(result.Links) != 1 || result.Links[0] != server.URL+"/docs/a" {
			t.Errorf("unexpected links %v", result.Links)
		}
		if result.FinalURL != "" {
			t.Errorf("expected no final URL without redirect, got %q", result.FinalURL)
		}
	})

	t.Run("redirect records final url", func(t *testing.T) {
		t.Parallel()

		result, err := f.Fetch(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if result.FinalURL != server.URL+"/docs" {
			t.Errorf("expected final URL %s/docs, got %q", server.URL, result.FinalURL)
		}
	})

	t.Run("plain text kept verbatim", func(t *testing.T) {
		t.Parallel()

		result, err := f.Fetch(context.Background(), server.URL+"/notes.txt")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if result.Content != "plain notes" {
			t.Errorf("expected plain content, got %q", result.Content)
		}
	})

	failures := []struct {
		name string
		path string
		kind model.FailureKind
		is   error
	}{
		{"unauthorized", "/private", model.FailureAuthRequired, ErrAuthRequired},
		{"server error", "/broken", model.FailureNetwork, ErrHTTPStatus},
		{"login page", "/login", model.FailureAuthRequired, ErrAuthRequired},
		{"unsupported content", "/file.pdf", model.FailureParse, ErrUnsupportedContent},
		{"not found", "/missing", model.FailureNetwork, ErrHTTPStatus},
		{"timeout", "/slow", model.FailureTimeout, nil},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.Fetch(context.Background(), server.URL+tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if fe.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, fe.Kind, err)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected error to wrap %v, got %v", tt.is, err)
			}
		})
	}
}

func TestHTTPFetcherInjectsHeaders(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	opts := DefaultOptions()
	opts.UserAgent = "doccrawl-test"
	opts.Cookie = "session=abc"
	opts.Headers = map[string]string{"X-Token": "secret"}
	f, err := NewHTTPFetcher(opts)
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	result, err := f.Fetch(context.Background(), server.URL+"/echo")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	for _, want := range []string{"cookie=session=abc", "token=secret", "ua=doccrawl-test"} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("expected %q in content, got %q", want, result.Content)
		}
	}
}

func TestHTTPFetcherLoginDetectionDisabled(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	f, err := NewHTTPFetcher(DefaultOptions())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	if _, err := f.Fetch(context.Background(), server.URL+"/login"); err != nil {
		t.Errorf("expected login page to be fetched when detection is off, got %v", err)
	}
}

func TestNewHTTPFetcherProxy(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ProxyAddress = "127.0.0.1:9050"
	if _, err := NewHTTPFetcher(opts); err != nil {
		t.Errorf("expected valid proxy to be accepted, got %v", err)
	}

	for _, addr := range []string{"localhost", ":9050", "127.0.0.1:0", "127.0.0.1:70000", "127.0.0.1:abc"} {
		opts.ProxyAddress = addr
		if _, err := NewHTTPFetcher(opts); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress for %q, got %v", addr, err)
		}
	}
}

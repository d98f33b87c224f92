package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tansode/sitemd/internal/model"
)

// TestFetch tests successful fetches and content extraction.
func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("extracts title, markdown, and links", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>Intro Page</title></head><body>
				<nav><a href="/docs">Docs</a><a href="mailto:x@y.z">Mail</a></nav>
				<main><h1>Welcome</h1><p>Hello world.</p></main>
				<footer>ignore me</footer>
			</body></html>`))
		}))
		defer srv.Close()

		f := New()
		out, err := f.Fetch(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.Title != "Intro Page" {
			t.Errorf("title = %q, want %q", out.Title, "Intro Page")
		}
		if !strings.Contains(out.Markdown, "Welcome") || !strings.Contains(out.Markdown, "Hello world.") {
			t.Errorf("markdown missing main content: %q", out.Markdown)
		}
		if strings.Contains(out.Markdown, "ignore me") {
			t.Errorf("markdown contains footer noise: %q", out.Markdown)
		}
		if out.ContentBytes != len(out.Markdown) {
			t.Errorf("ContentBytes = %d, want %d", out.ContentBytes, len(out.Markdown))
		}

		// The nav link must survive extraction even though nav is noise,
		// and the mailto link must be dropped.
		if len(out.Links) != 1 {
			t.Fatalf("expected 1 link, got %d: %v", len(out.Links), out.Links)
		}
		if out.Links[0].Href != srv.URL+"/docs" {
			t.Errorf("link = %q, want %q", out.Links[0].Href, srv.URL+"/docs")
		}
		if out.Links[0].Text != "Docs" {
			t.Errorf("link text = %q, want %q", out.Links[0].Text, "Docs")
		}
	})

	t.Run("site-specific content selector", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>
				<div class="content"><p>selected</p></div>
				<main><p>not this</p></main>
			</body></html>`))
		}))
		defer srv.Close()

		f := New(WithContentSelector(".content"))
		out, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.Markdown, "selected") {
			t.Errorf("markdown should use custom selector: %q", out.Markdown)
		}
		if strings.Contains(out.Markdown, "not this") {
			t.Errorf("markdown should not include main: %q", out.Markdown)
		}
	})

	t.Run("sends custom headers and user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`<html><body><p>ok</p></body></html>`))
		}))
		defer srv.Close()

		f := New(
			WithUserAgent("custom-agent/2.0"),
			WithHeaders(map[string]string{"Authorization": "Bearer abc"}),
		)
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "custom-agent/2.0" {
			t.Errorf("user agent = %q", gotUA)
		}
		if gotAuth != "Bearer abc" {
			t.Errorf("authorization = %q", gotAuth)
		}
	})
}

// TestFetchErrors tests failure classification.
func TestFetchErrors(t *testing.T) {
	t.Parallel()

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := New().Fetch(ctx, srv.URL)
		if err == nil {
			t.Fatal("expected error")
		}
		if Kind(err) != model.KindTimeout {
			t.Errorf("kind = %v, want timeout", Kind(err))
		}
	})

	t.Run("unexpected status is a network error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := New().Fetch(context.Background(), srv.URL)
		if err == nil {
			t.Fatal("expected error")
		}
		if Kind(err) != model.KindNetwork {
			t.Errorf("kind = %v, want network", Kind(err))
		}
	})

	t.Run("connection refused is systemic", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		addr := srv.URL
		srv.Close() // nothing is listening anymore

		_, err := New().Fetch(context.Background(), addr)
		if err == nil {
			t.Fatal("expected error")
		}
		if Kind(err) != model.KindSystemic {
			t.Errorf("kind = %v, want systemic", Kind(err))
		}
	})

	t.Run("empty page is an extraction error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body></body></html>`))
		}))
		defer srv.Close()

		_, err := New().Fetch(context.Background(), srv.URL)
		if err == nil {
			t.Fatal("expected error")
		}
		if Kind(err) != model.KindExtraction {
			t.Errorf("kind = %v, want extraction", Kind(err))
		}

		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatal("error should be *Error")
		}
		if fe.URL != srv.URL {
			t.Errorf("error URL = %q, want %q", fe.URL, srv.URL)
		}
	})
}

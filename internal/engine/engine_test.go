package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/model"
)

func testSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Test Docs</title></head><body>
<nav><a href="/guide">Guide</a><a href="/broken">Broken</a></nav>
<main><h1>Welcome</h1><p>Index page content.</p></main>
</body></html>`)
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Guide</title></head><body>
<main><h1>Guide</h1><p>How to use the thing.</p></main>
</body></html>`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(seed string) *config.Config {
	cfg := config.NewConfig()
	cfg.Seed = seed
	return cfg
}

// TestEngineFullRun tests discovery and crawl against a live test server.
func TestEngineFullRun(t *testing.T) {
	t.Parallel()

	srv := testSite(t)
	e, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	pages, err := e.Discover(context.Background())
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages (seed, guide, broken), got %d: %v", len(pages), pages)
	}
	for _, p := range pages {
		if p.Status != model.StatusPending {
			t.Errorf("page %s: status = %s, want pending", p.URL, p.Status)
		}
	}

	var mu sync.Mutex
	calls := 0
	report, err := e.Crawl(context.Background(), func([]model.DiscoveredPage) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	if calls == 0 {
		t.Error("progress callback never invoked")
	}

	stats := report.Result.Stats
	if stats.PagesDiscovered != 3 || stats.PagesCrawled != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ErrorsEncountered != 1 {
		t.Errorf("errors = %d, want 1 (the broken page)", stats.ErrorsEncountered)
	}
	if report.Result.Error != "" {
		t.Errorf("unexpected session error: %q", report.Result.Error)
	}

	doc := report.Result.Markdown
	if doc == "" {
		t.Fatal("consolidated document is empty")
	}
	for _, want := range []string{"Index page content.", "How to use the thing."} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "boom") {
		t.Errorf("failed page content leaked into document:\n%s", doc)
	}
}

// TestEngineCrawlRequiresDiscover tests the call ordering guard.
func TestEngineCrawlRequiresDiscover(t *testing.T) {
	t.Parallel()

	e, err := New(testConfig("https://example.com"))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if _, err := e.Crawl(context.Background(), nil); !errors.Is(err, ErrDiscoverFirst) {
		t.Errorf("expected ErrDiscoverFirst, got %v", err)
	}
}

// TestEngineSiteOverrides tests that per-site config narrows the crawl.
func TestEngineSiteOverrides(t *testing.T) {
	t.Parallel()

	srv := testSite(t)
	cfg := testConfig(srv.URL)
	cfg.SiteConfigs = &config.File{
		Sites: map[string]config.SiteConfig{
			// httptest serves on a 127.0.0.1 loopback port; the engine
			// resolves site config by hostname without the port.
			"127.0.0.1": {IgnorePatterns: []string{"/broken"}},
		},
	}

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	pages, err := e.Discover(context.Background())
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages with /broken ignored, got %d", len(pages))
	}
}

// TestEngineSeedFromManifest tests that the session records the
// configured seed even when the manifest lists another page first.
func TestEngineSeedFromManifest(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/guide</loc></url>
  <url><loc>%s/</loc></url>
</urlset>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Guide</title></head><body>
<main><p>Guide content.</p></main></body></html>`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
<main><p>Home content.</p></main></body></html>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	report, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.Pages[0].URL != srv.URL+"/guide" {
		t.Errorf("first page = %s, want the manifest's first entry", report.Pages[0].URL)
	}
	if want := srv.URL + "/"; report.Seed != want {
		t.Errorf("seed = %q, want %q", report.Seed, want)
	}
}

// TestEngineRun tests the one-shot helper.
func TestEngineRun(t *testing.T) {
	t.Parallel()

	srv := testSite(t)
	e, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	report, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Result.Stats.PagesDiscovered != 3 {
		t.Errorf("stats = %+v", report.Result.Stats)
	}
}

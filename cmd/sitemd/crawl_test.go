package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/database"
	"github.com/tansode/sitemd/internal/model"
	"github.com/tansode/sitemd/internal/report"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl <url>" {
			t.Errorf("expected use 'crawl <url>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has concurrency flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
		if flag.Shorthand != "k" {
			t.Errorf("expected shorthand 'k', got %q", flag.Shorthand)
		}
	})

	t.Run("has max-pages flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-pages")
		if flag == nil {
			t.Fatal("expected max-pages flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has page-timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("page-timeout")
		if flag == nil {
			t.Fatal("expected page-timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has session-timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("session-timeout")
		if flag == nil {
			t.Fatal("expected session-timeout flag")
		}
		if flag.Shorthand != "T" {
			t.Errorf("expected shorthand 'T', got %q", flag.Shorthand)
		}
	})

	t.Run("has delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("delay")
		if flag == nil {
			t.Fatal("expected delay flag")
		}
		if flag.Shorthand != "d" {
			t.Errorf("expected shorthand 'd', got %q", flag.Shorthand)
		}
	})

	t.Run("has selector flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("selector")
		if flag == nil {
			t.Fatal("expected selector flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has report flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("report")
		if flag == nil {
			t.Fatal("expected report flag")
		}
		if flag.Shorthand != "r" {
			t.Errorf("expected shorthand 'r', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("has save flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("save")
		if flag == nil {
			t.Fatal("expected save flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewCrawlCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}

		result := getVerboseFlag(crawlCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.Seed != "https://docs.example.com" {
			t.Errorf("expected seed 'https://docs.example.com', got %q", cfg.Seed)
		}
		if cfg.Concurrency != config.DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", config.DefaultConcurrency, cfg.Concurrency)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("expected max pages %d, got %d", config.DefaultMaxPages, cfg.MaxPages)
		}
		if cfg.SaveHistory {
			t.Error("expected SaveHistory to be false by default")
		}
	})

	t.Run("builds config with custom concurrency", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("concurrency", "10")
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Concurrency != 10 {
			t.Errorf("expected concurrency 10, got %d", cfg.Concurrency)
		}
	})

	t.Run("builds config with custom page timeout", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("page-timeout", "5s")
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PageTimeout != 5*time.Second {
			t.Errorf("expected page timeout 5s, got %s", cfg.PageTimeout)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("save flag enables history database", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("save", "true")
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to be set when saving history")
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".sitemd")

		content := []byte(`
defaults:
  contentSelector: main
sites:
  docs.example.com:
    maxPages: 25
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		if cfg.SiteConfigs.Defaults.ContentSelector != "main" {
			t.Errorf("expected default selector 'main', got %q", cfg.SiteConfigs.Defaults.ContentSelector)
		}
		if cfg.SiteConfigs.Sites["docs.example.com"].MaxPages != 25 {
			t.Errorf("expected site maxPages 25, got %d", cfg.SiteConfigs.Sites["docs.example.com"].MaxPages)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		if err := os.WriteFile(configPath, []byte(`{invalid yaml`), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("output", "/tmp/docs.md")
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.OutputFile != "/tmp/docs.md" {
			t.Errorf("expected OutputFile '/tmp/docs.md', got %q", cfg.OutputFile)
		}
	})
}

// testCrawlReport builds a small report fixture for output tests.
func testCrawlReport() *model.CrawlReport {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &model.CrawlReport{
		Seed:       "https://docs.example.com/",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Pages: []model.DiscoveredPage{
			{
				URL:          "https://docs.example.com/",
				Title:        "Home",
				Status:       model.StatusSucceeded,
				DiscoveredAt: 0,
				Markdown:     "# Home\n\nWelcome.",
				ContentBytes: 17,
			},
			{
				URL:          "https://docs.example.com/missing",
				Status:       model.StatusFailed,
				DiscoveredAt: 1,
				ErrKind:      model.KindNetwork,
				ErrMessage:   "unexpected status 404",
			},
		},
		Result: &model.ConsolidatedResult{
			Markdown: "# Home\nURL: https://docs.example.com/\n\nWelcome.\n",
			Stats: model.Stats{
				PagesDiscovered:   2,
				PagesCrawled:      2,
				BytesExtracted:    17,
				ErrorsEncountered: 1,
			},
		},
	}
}

// TestOutputReport tests the report output functionality.
func TestOutputReport(t *testing.T) {
	t.Run("outputs JSON report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.json")

		cfg := &config.Config{
			JSONReport: true,
			OutputFile: outputPath,
		}

		err := outputReport(cfg, testCrawlReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		var wrapped struct {
			Version string             `json:"version"`
			Report  *model.CrawlReport `json:"report"`
		}
		if err := json.Unmarshal(content, &wrapped); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if wrapped.Report == nil {
			t.Fatal("expected report in JSON output")
		}
		if wrapped.Report.Seed != "https://docs.example.com/" {
			t.Errorf("expected seed in JSON output, got %q", wrapped.Report.Seed)
		}
	})

	t.Run("outputs markdown report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.md")

		cfg := &config.Config{
			MarkdownReport: true,
			OutputFile:     outputPath,
		}

		err := outputReport(cfg, testCrawlReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !strings.Contains(string(content), "Crawl Report") {
			t.Error("expected markdown report header")
		}
	})

	t.Run("outputs raw document by default", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "docs.md")

		cfg := &config.Config{
			OutputFile: outputPath,
		}

		crawlReport := testCrawlReport()
		err := outputReport(cfg, crawlReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !strings.Contains(string(content), crawlReport.Result.Markdown) {
			t.Error("expected raw consolidated document in output")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "subdir", "nested", "docs.md")

		cfg := &config.Config{
			OutputFile: outputPath,
		}

		err := outputReport(cfg, testCrawlReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created in nested directory")
		}
	})
}

// TestReportWriter tests the stderr summary tee for file output.
func TestReportWriter(t *testing.T) {
	t.Parallel()

	t.Run("returns writer unchanged for stdout output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := report.NewMarkdownWriter(&buf)
		got := reportWriter(&config.Config{}, w)
		if got != report.Writer(w) {
			t.Error("expected the original writer when no output file is set")
		}
	})

	t.Run("tees summary for file output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := report.NewMarkdownWriter(&buf)
		got := reportWriter(&config.Config{OutputFile: "/tmp/report.md"}, w)
		if _, ok := got.(*report.MultiWriter); !ok {
			t.Errorf("expected a MultiWriter for file output, got %T", got)
		}
	})
}

// TestNewProgressPrinter tests the terminal-state progress printer.
func TestNewProgressPrinter(t *testing.T) {
	tmpDir := t.TempDir()
	f, err := os.Create(filepath.Join(tmpDir, "progress.log"))
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	printer := newProgressPrinter(f, 2)

	pages := []model.DiscoveredPage{
		{URL: "https://example.com/a", Status: model.StatusSucceeded},
		{URL: "https://example.com/b", Status: model.StatusInProgress},
	}
	printer(pages)
	// Repeated terminal states must not be reported twice.
	printer(pages)

	pages[1].Status = model.StatusFailed
	pages[1].ErrKind = model.KindNetwork
	pages[1].ErrMessage = "unexpected status 500"
	printer(pages)

	content, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("failed to read progress log: %v", err)
	}
	output := string(content)

	if strings.Count(output, "https://example.com/a") != 1 {
		t.Errorf("expected one line for succeeded page, got output %q", output)
	}
	if !strings.Contains(output, "[1/2] ok") {
		t.Errorf("expected '[1/2] ok' line, got %q", output)
	}
	if !strings.Contains(output, "[2/2] FAIL https://example.com/b") {
		t.Errorf("expected '[2/2] FAIL' line, got %q", output)
	}
}

// TestSaveHistory tests session recording.
func TestSaveHistory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := context.Background()

	t.Run("no-op when saving disabled", func(t *testing.T) {
		cfg := &config.Config{SaveHistory: false}
		if err := saveHistory(ctx, cfg, testCrawlReport(), logger); err != nil {
			t.Errorf("expected nil error when saving disabled, got %v", err)
		}
	})

	t.Run("records session in database", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfg := &config.Config{
			SaveHistory: true,
			DBDir:       tmpDir,
		}

		if err := saveHistory(ctx, cfg, testCrawlReport(), logger); err != nil {
			t.Fatalf("saveHistory() error = %v", err)
		}

		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		sessions, err := db.RecentSessions(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].Seed != "https://docs.example.com/" {
			t.Errorf("expected recorded seed, got %q", sessions[0].Seed)
		}
	})
}

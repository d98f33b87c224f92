package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/database"
	"github.com/tansode/sitemd/internal/engine"
	"github.com/tansode/sitemd/internal/log"
	"github.com/tansode/sitemd/internal/model"
	"github.com/tansode/sitemd/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website and emit one consolidated markdown document",
		Long: `Crawl discovers the pages of a website and fetches them concurrently.

Discovery prefers the site's sitemap.xml and falls back to the links on
the seed page. Each page's main content is converted to markdown, and
all pages are consolidated into a single document in discovery order.

By default the raw document is written to stdout and progress lines go
to stderr, so the output can be piped or redirected cleanly.

Examples:
  # Crawl a documentation site into one document
  sitemd crawl https://docs.example.com > docs.md

  # Crawl with 10 workers and a 100-page limit
  sitemd crawl -k 10 -p 100 https://docs.example.com

  # Emit the full report with statistics and a page table
  sitemd crawl --report -o report.md https://docs.example.com

  # Emit machine-readable JSON
  sitemd crawl --json https://docs.example.com

Configuration file (.sitemd) example:
  sites:
    docs.example.com:
      contentSelector: "div.docs-body"
      headers:
        Authorization: "Bearer token"
      ignorePatterns:
        - /changelog/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "k", config.DefaultConcurrency,
		"Number of pages fetched in parallel")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to discover")
	cmd.Flags().DurationP("page-timeout", "t", config.DefaultPageTimeout,
		"Timeout for each page fetch")
	cmd.Flags().DurationP("session-timeout", "T", config.DefaultSessionTimeout,
		"Timeout for the whole crawl (0 means no limit)")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Politeness delay between page admissions")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for HTTP requests")
	cmd.Flags().StringP("selector", "s", "",
		"CSS selector naming the content root of every page")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemd in current or home directory)")

	// Output flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --report)")
	cmd.Flags().BoolP("report", "r", false,
		"Output full markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("save", false,
		"Record this session in the crawl history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.PageTimeout, err = cmd.Flags().GetDuration("page-timeout")
	if err != nil {
		return nil, err
	}

	cfg.SessionTimeout, err = cmd.Flags().GetDuration("session-timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ContentSelector, err = cmd.Flags().GetString("selector")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("report")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SaveHistory, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}
	if cfg.SaveHistory {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	e, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Discovering pages for %s...\n", cfg.Seed)
	pages, err := e.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Discovered %d pages, crawling with %d workers...\n\n",
		len(pages), cfg.Concurrency)

	startTime := time.Now()
	crawlReport, err := e.Crawl(ctx, newProgressPrinter(os.Stderr, len(pages)))
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCrawl finished in %s: %d/%d pages, %s extracted\n",
		elapsed.Round(time.Millisecond),
		crawlReport.Result.Stats.PagesCrawled,
		crawlReport.Result.Stats.PagesDiscovered,
		crawlReport.Result.Stats.HumanBytes(),
	)
	if crawlReport.Result.Error != "" {
		fmt.Fprintf(os.Stderr, "Crawl aborted early: %s\n", crawlReport.Result.Error)
	}

	if err := outputReport(cfg, crawlReport); err != nil {
		return err
	}

	return saveHistory(ctx, cfg, crawlReport, logger)
}

// newProgressPrinter returns a progress callback that prints one line per
// page reaching a terminal state. Callbacks are already serialized by the
// scheduler.
func newProgressPrinter(w *os.File, total int) func([]model.DiscoveredPage) {
	reported := make(map[string]bool, total)
	done := 0
	return func(pages []model.DiscoveredPage) {
		for _, p := range pages {
			if !p.Status.Terminal() || reported[p.URL] {
				continue
			}
			reported[p.URL] = true
			done++
			if p.Status == model.StatusFailed {
				fmt.Fprintf(w, "[%d/%d] FAIL %s (%s: %s)\n", done, total, p.URL, p.ErrKind, p.ErrMessage)
				continue
			}
			fmt.Fprintf(w, "[%d/%d] ok   %s\n", done, total, p.URL)
		}
	}
}

// outputReport outputs the crawl result in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	var output *os.File
	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	switch {
	case cfg.JSONReport:
		writer := reportWriter(cfg, report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint()))
		_, err := writer.Write(crawlReport)
		return err
	case cfg.MarkdownReport:
		writer := reportWriter(cfg, report.NewMarkdownWriter(output))
		_, err := writer.Write(crawlReport)
		return err
	default:
		// The raw consolidated document is the product.
		writer := report.NewSimpleWriter(output)
		_, err := writer.WriteDocument(crawlReport.Result)
		return err
	}
}

// reportWriter tees the human-readable summary to stderr when the report
// itself goes to a file, so the terminal still shows what happened.
func reportWriter(cfg *config.Config, w report.Writer) report.Writer {
	if cfg.OutputFile == "" {
		return w
	}
	return report.NewMultiWriter(w, report.NewSimpleWriter(os.Stderr))
}

// saveHistory records the session in the history database if enabled.
func saveHistory(ctx context.Context, cfg *config.Config, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	if !cfg.SaveHistory {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveReport(ctx, crawlReport)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logger.Info("session saved", "id", id, "dir", cfg.DBDir)
	fmt.Fprintf(os.Stderr, "Session recorded as #%d\n", id)
	return nil
}

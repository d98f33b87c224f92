package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of pages fetched in parallel.
	// Five workers keep a crawl fast without looking like a flood to the
	// origin server. Can be overridden via the --concurrency CLI flag.
	DefaultConcurrency = 5

	// DefaultMaxPages is the maximum number of pages discovered per seed.
	// This prevents runaway discovery on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 100

	// DefaultPageTimeout bounds a single page fetch. 30 seconds covers
	// slow origins without letting one dead page stall a worker for long.
	DefaultPageTimeout = 30 * time.Second

	// DefaultSessionTimeout bounds the whole crawl. Zero means no limit;
	// the per-page timeout already prevents individual hangs.
	DefaultSessionTimeout = 0 * time.Second

	// DefaultSystemicThreshold is the number of consecutive network
	// failures treated as origin death, stopping further fetches.
	DefaultSystemicThreshold = 5

	// DefaultCrawlDelay is the delay between page admissions.
	// This is a politeness setting; zero is acceptable for small crawls
	// because concurrency is already bounded.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent is good practice and allows operators
	// to identify crawler traffic in their logs.
	DefaultUserAgent = "sitemd/1.0 (+https://github.com/tansode/sitemd)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "sitemd"
)

// Config holds all configuration options for a crawl run.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Seed is the URL whose site is crawled.
	Seed string

	// Concurrency is the number of pages fetched in parallel.
	Concurrency int

	// MaxPages is the maximum number of pages discovered per seed.
	// A value of 0 means use the default (DefaultMaxPages).
	MaxPages int

	// PageTimeout bounds each individual page fetch.
	PageTimeout time.Duration

	// SessionTimeout bounds the whole crawl. Zero means no limit.
	SessionTimeout time.Duration

	// SystemicThreshold is the number of consecutive network failures
	// treated as origin death. A value of 0 means use the default.
	SystemicThreshold int

	// CrawlDelay is the delay between page admissions during crawling.
	// This is a politeness setting to avoid overwhelming origins.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Set to 0 for the default.
	MaxBodySize int64

	// ContentSelector is a CSS selector naming the content root of every
	// page. When empty, the extractor picks main, article, or body.
	ContentSelector string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the raw
	// consolidated document. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables the full markdown report (statistics, page
	// table, and document) instead of the raw consolidated document.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// OutputFile is the output file path for the document or report.
	// When empty, output goes to stdout.
	OutputFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitemd in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the
	// config file. Populated by LoadConfigFile.
	SiteConfigs *File

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to the XDG data directory when SaveHistory is enabled.
	DBDir string

	// SaveHistory indicates whether to record the session in the history
	// database. Off by default; crawls are often one-shot.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts,
// concurrency). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:       DefaultConcurrency,
		MaxPages:          DefaultMaxPages,
		PageTimeout:       DefaultPageTimeout,
		SessionTimeout:    DefaultSessionTimeout,
		SystemicThreshold: DefaultSystemicThreshold,
		CrawlDelay:        DefaultCrawlDelay,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for sitemd.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/sitemd
// On macOS: ~/Library/Application Support/sitemd
// On Windows: %LOCALAPPDATA%\sitemd
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitemd.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/sitemd
// On macOS: ~/Library/Application Support/sitemd
// On Windows: %APPDATA%\sitemd
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}

	// Concurrency must be positive; zero workers would mean no crawling
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// PageTimeout must be positive; zero timeout would fail every fetch
	if c.PageTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// SessionTimeout of zero means unlimited, but negative is invalid
	if c.SessionTimeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative; zero means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

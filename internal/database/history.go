package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tansode/sitemd/internal/model"
)

// HistoryDB provides SQLite-based storage for crawl session history.
// It manages connection pooling and provides methods for CRUD operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "sitemd.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Session records store one row per crawl run
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_discovered INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL,
		bytes_extracted INTEGER NOT NULL,
		errors_encountered INTEGER NOT NULL,
		session_error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_seed ON sessions(seed);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- Page records store per-page outcomes, without extracted content
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		content_bytes INTEGER NOT NULL DEFAULT 0,
		err_kind TEXT NOT NULL DEFAULT '',
		err_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SessionRecord is a stored crawl session summary.
type SessionRecord struct {
	// ID is the unique identifier of the session in the database.
	ID int64

	// Seed is the canonical seed URL of the session.
	Seed string

	// StartedAt and FinishedAt bound the crawl run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Stats are the derived statistics recorded at save time.
	Stats model.Stats

	// SessionError is the session-level error message, empty on success.
	SessionError string
}

// PageRecord is a stored per-page outcome.
type PageRecord struct {
	// ID is the unique identifier of the page row.
	ID int64

	// SessionID links the page to its session.
	SessionID int64

	// Position is the page's discovery order within the session.
	Position int

	// URL and Title identify the page.
	URL   string
	Title string

	// Status is the page's final status name.
	Status string

	// ContentBytes is the extracted content length for succeeded pages.
	ContentBytes int

	// ErrKind and ErrMessage describe the failure for failed pages.
	ErrKind    string
	ErrMessage string
}

// SaveReport stores a finished crawl report and returns the new session ID.
// Page markdown is never stored; only outcome metadata is kept.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	if report.Result == nil {
		return 0, errors.New("report has no consolidated result")
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stats := report.Result.Stats
	res, err := tx.ExecContext(ctx, `
	INSERT INTO sessions (seed, started_at, finished_at, pages_discovered, pages_crawled, bytes_extracted, errors_encountered, session_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Seed,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		stats.PagesDiscovered,
		stats.PagesCrawled,
		stats.BytesExtracted,
		stats.ErrorsEncountered,
		report.Result.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session id: %w", err)
	}

	for i, p := range report.Pages {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO pages (session_id, position, url, title, status, content_bytes, err_kind, err_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			sessionID,
			i,
			p.URL,
			p.Title,
			p.Status.String(),
			p.ContentBytes,
			string(p.ErrKind),
			p.ErrMessage,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}
	return sessionID, nil
}

// RecentSessions returns the most recent sessions, newest first.
// A non-positive limit returns all sessions.
func (hdb *HistoryDB) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := `
	SELECT id, seed, started_at, finished_at, pages_discovered, pages_crawled, bytes_extracted, errors_encountered, session_error
	FROM sessions
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// SessionsForSeed returns all sessions for the given seed URL, newest first.
func (hdb *HistoryDB) SessionsForSeed(ctx context.Context, seed string) ([]SessionRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, seed, started_at, finished_at, pages_discovered, pages_crawled, bytes_extracted, errors_encountered, session_error
	FROM sessions
	WHERE seed = ?
	ORDER BY started_at DESC, id DESC
	`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// PagesForSession returns the page outcomes of a session in discovery order.
func (hdb *HistoryDB) PagesForSession(ctx context.Context, sessionID int64) ([]PageRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, session_id, position, url, title, status, content_bytes, err_kind, err_message
	FROM pages
	WHERE session_id = ?
	ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var p PageRecord
		err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.Position,
			&p.URL,
			&p.Title,
			&p.Status,
			&p.ContentBytes,
			&p.ErrKind,
			&p.ErrMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		results = append(results, p)
	}

	return results, rows.Err()
}

// scanSessions reads session rows into records.
func scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	var results []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, finished string

		err := rows.Scan(
			&rec.ID,
			&rec.Seed,
			&started,
			&finished,
			&rec.Stats.PagesDiscovered,
			&rec.Stats.PagesCrawled,
			&rec.Stats.BytesExtracted,
			&rec.Stats.ErrorsEncountered,
			&rec.SessionError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // our own insert format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tansode/sitemd/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-page listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the per-page listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report summary in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStats(&sb, report.Result)
	if w.verbose {
		w.writePages(&sb, report.Pages)
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteDocument outputs the consolidated document as-is.
func (w *SimpleWriter) WriteDocument(result *model.ConsolidatedResult) (int, error) {
	return w.output.Write([]byte(result.Markdown))
}

// writeHeader writes the summary header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:  %s\n", report.Seed))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", report.FinishedAt.Sub(report.StartedAt).Round(timeResolution)))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", statusText(report.Result)))
	sb.WriteString("\n")
}

// writeStats writes the derived statistics section.
func (w *SimpleWriter) writeStats(sb *strings.Builder, result *model.ConsolidatedResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	stats := result.Stats
	sb.WriteString(fmt.Sprintf("  Pages discovered:  %d\n", stats.PagesDiscovered))
	sb.WriteString(fmt.Sprintf("  Pages crawled:     %d\n", stats.PagesCrawled))
	sb.WriteString(fmt.Sprintf("  Content extracted: %s\n", stats.HumanBytes()))
	sb.WriteString(fmt.Sprintf("  Errors:            %d\n", stats.ErrorsEncountered))
	sb.WriteString("\n")
}

// writePages writes the per-page listing.
func (w *SimpleWriter) writePages(sb *strings.Builder, pages []model.DiscoveredPage) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range pages {
		marker := " "
		switch p.Status {
		case model.StatusSucceeded:
			marker = "+"
		case model.StatusFailed:
			marker = "!"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s (%s)\n", marker, p.URL, p.Status))
		if p.Status == model.StatusFailed {
			sb.WriteString(fmt.Sprintf("      %s: %s\n", p.ErrKind, p.ErrMessage))
		}
	}
	sb.WriteString("\n")
}

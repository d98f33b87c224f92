package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/tansode/sitemd/internal/model"
)

// timeResolution is the rounding applied to displayed durations.
const timeResolution = 100 * time.Millisecond

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// includePages controls whether the per-page status table is emitted.
	includePages bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithPageTable enables the per-page status table in the report.
func WithPageTable(include bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.includePages = include
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:   newBaseWriter(output),
		includePages: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStats(md, report.Result)
	if w.includePages {
		w.writePages(md, report.Pages)
	}
	w.writeDocumentSection(md, report.Result)

	return len(md.String()), md.Build()
}

// WriteDocument outputs only the consolidated markdown document, with no
// report framing around it.
func (w *MarkdownWriter) WriteDocument(result *model.ConsolidatedResult) (int, error) {
	return w.output.Write([]byte(result.Markdown))
}

// writeHeader writes the report header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.Seed + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.FinishedAt.Sub(report.StartedAt).Round(timeResolution).String()},
			{"Status", statusText(report.Result)},
		},
	})
	md.PlainText("")
}

// writeStats writes the derived statistics section.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, result *model.ConsolidatedResult) {
	md.H2("Statistics")
	md.PlainText("")

	stats := result.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages Discovered", strconv.Itoa(stats.PagesDiscovered)},
			{"Pages Crawled", strconv.Itoa(stats.PagesCrawled)},
			{"Content Extracted", stats.HumanBytes()},
			{"Errors", strconv.Itoa(stats.ErrorsEncountered)},
		},
	})
	md.PlainText("")

	switch {
	case result.Error != "":
		md.Cautionf("The crawl was aborted: %s. The document below covers only the pages crawled before the failure.", result.Error)
	case stats.ErrorsEncountered > 0:
		md.Warningf("%d page(s) failed. Their content is missing from the document below.", stats.ErrorsEncountered)
	}
	md.PlainText("")
}

// writePages writes the per-page status table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, pages []model.DiscoveredPage) {
	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(pages))
	for i, p := range pages {
		detail := "-"
		if p.Status == model.StatusFailed {
			detail = string(p.ErrKind) + ": " + truncateString(p.ErrMessage, 60)
		}
		rows[i] = []string{
			"`" + p.URL + "`",
			truncateString(p.Title, 40),
			p.Status.String(),
			detail,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Title", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDocumentSection embeds the consolidated document.
func (w *MarkdownWriter) writeDocumentSection(md *markdown.Markdown, result *model.ConsolidatedResult) {
	md.H2("Consolidated Document")
	md.PlainText("")

	if result.Markdown == "" {
		md.PlainText("No page content was extracted.")
		md.PlainText("")
		return
	}
	md.PlainText(result.Markdown)
}

// statusText returns the status text based on the result state.
func statusText(result *model.ConsolidatedResult) string {
	if result.Error != "" {
		return "Aborted - " + result.Error
	}
	if result.Stats.PagesCrawled < result.Stats.PagesDiscovered {
		return "Partial"
	}
	return "Complete"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

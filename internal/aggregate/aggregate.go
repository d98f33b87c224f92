package aggregate

import (
	"fmt"
	"strings"

	"github.com/tansode/sitemd/internal/model"
)

// pageSeparator divides consecutive page blocks in the consolidated
// document.
const pageSeparator = "\n\n---\n\n"

// Consolidate folds a page snapshot into the final result. Succeeded
// pages contribute their markdown in snapshot (discovery) order, each
// prefixed by a boundary header naming the page and its source URL.
// sessionErr carries a session-level error message, empty when the crawl
// ran to completion.
//
// Consolidate is pure: calling it twice on the same snapshot yields
// byte-identical output.
func Consolidate(pages []model.DiscoveredPage, sessionErr string) *model.ConsolidatedResult {
	stats := model.Stats{PagesDiscovered: len(pages)}

	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Status.Terminal() {
			stats.PagesCrawled++
		}
		switch p.Status {
		case model.StatusSucceeded:
			stats.BytesExtracted += p.ContentBytes
			blocks = append(blocks, pageBlock(p))
		case model.StatusFailed:
			stats.ErrorsEncountered++
		}
	}
	if sessionErr != "" {
		stats.ErrorsEncountered++
	}

	doc := strings.Join(blocks, pageSeparator)
	if doc != "" {
		doc += "\n"
	}

	return &model.ConsolidatedResult{
		Markdown: doc,
		Error:    sessionErr,
		Stats:    stats,
	}
}

// pageBlock renders one succeeded page with its boundary header.
func pageBlock(p model.DiscoveredPage) string {
	title := p.Title
	if title == "" {
		title = p.URL
	}
	body := strings.TrimRight(p.Markdown, "\n")
	return fmt.Sprintf("# %s\nURL: %s\n\n%s", title, p.URL, body)
}

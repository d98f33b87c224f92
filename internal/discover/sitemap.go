package discover

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tansode/sitemd/internal/model"
	"github.com/tansode/sitemd/internal/urlutil"
)

// sitemapURL holds one <url> entry of a sitemap.xml.
type sitemapURL struct {
	Loc string `xml:"loc"`
}

// sitemapIndex is the <urlset> root element of a sitemap.xml.
type sitemapIndex struct {
	URLs []sitemapURL `xml:"url"`
}

// maxSitemapSize limits the manifest size to read. Sitemaps larger than
// this are truncated, which at worst loses candidates beyond maxPages.
const maxSitemapSize = 10 * 1024 * 1024

// fromSitemap probes the well-known manifest path under the seed's origin
// and admits its URLs in manifest order. Any failure returns nil so the
// caller falls back to link discovery.
func (e *Engine) fromSitemap(ctx context.Context, base *url.URL) []*model.DiscoveredPage {
	manifestURL := fmt.Sprintf("%s://%s/sitemap.xml", base.Scheme, base.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("sitemap probe failed", "url", manifestURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug("sitemap not available", "url", manifestURL, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapSize))
	if err != nil {
		return nil
	}

	var sitemap sitemapIndex
	if err := xml.Unmarshal(body, &sitemap); err != nil {
		e.logger.Debug("sitemap parse failed", "url", manifestURL, "error", err)
		return nil
	}

	seen := urlutil.NewSeen()
	var pages []*model.DiscoveredPage
	for _, entry := range sitemap.URLs {
		if len(pages) >= e.maxPages {
			break
		}
		if !e.admissible(entry.Loc, base) {
			continue
		}
		c, err := urlutil.Normalize(entry.Loc)
		if err != nil || !seen.Add(c) {
			continue
		}
		pages = append(pages, &model.DiscoveredPage{
			URL:          c,
			Title:        TitleFromURL(c),
			Status:       model.StatusPending,
			DiscoveredAt: len(pages),
		})
	}
	return pages
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/tansode/sitemd/internal/model"
)

// Default fetcher settings.
const (
	// DefaultUserAgent identifies sitemd in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in their logs.
	DefaultUserAgent = "sitemd/1.0 (+https://github.com/tansode/sitemd)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB covers any realistic HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// defaultClientTimeout bounds a single HTTP exchange when the caller
	// supplies no tighter context deadline.
	defaultClientTimeout = 30 * time.Second
)

// noiseSelectors are HTML elements removed before content extraction.
// They contribute no meaningful text to the page.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// Fetcher retrieves a page and returns its extracted content.
// Implementations must honor context cancellation and classify failures
// via *Error so callers can inspect the kind.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.FetchOutcome, error)
}

// HTTP is the default Fetcher: plain HTTP GET, goquery-based content
// extraction, and HTML-to-markdown conversion.
type HTTP struct {
	// client performs the HTTP requests.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the response body size to read.
	maxBodySize int64

	// headers are extra headers added to every request, typically from
	// per-site configuration.
	headers map[string]string

	// contentSelector, when set, overrides the default content container
	// search (main, article, body) with a site-specific CSS selector.
	contentSelector string
}

// Option configures an HTTP fetcher.
type Option func(*HTTP)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTP) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTP) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders sets extra HTTP headers added to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTP) {
		f.headers = headers
	}
}

// WithContentSelector sets a site-specific CSS selector for the main
// content container, tried before the default main/article/body search.
func WithContentSelector(selector string) Option {
	return func(f *HTTP) {
		f.contentSelector = selector
	}
}

// WithClient replaces the HTTP client. Intended for tests and for callers
// that need custom transport settings.
func WithClient(client *http.Client) Option {
	return func(f *HTTP) {
		if client != nil {
			f.client = client
		}
	}
}

// New creates an HTTP fetcher with sensible defaults.
func New(opts ...Option) *HTTP {
	f := &HTTP{
		client:      &http.Client{Timeout: defaultClientTimeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the page, extracts its main content, and converts it
// to markdown. All failures are returned as *Error with a classified kind.
func (f *HTTP) Fetch(ctx context.Context, pageURL string) (*model.FetchOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: model.KindNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			URL:  pageURL,
			Kind: model.KindNetwork,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: classify(err), Err: err}
	}

	return f.extract(pageURL, string(body))
}

// extract isolates the main content, converts it to markdown, and
// collects the page title and links.
func (f *HTTP) extract(pageURL, html string) (*model.FetchOutcome, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: model.KindExtraction, Err: err}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Links must be collected before noise removal: navigation elements
	// carry most of a site's internal links.
	links := f.extractLinks(doc, pageURL)

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	content := f.findContent(doc)
	if content == nil {
		return nil, &Error{
			URL:  pageURL,
			Kind: model.KindExtraction,
			Err:  fmt.Errorf("no content container found"),
		}
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: model.KindExtraction, Err: err}
	}

	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return nil, &Error{URL: pageURL, Kind: model.KindExtraction, Err: err}
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, &Error{
			URL:  pageURL,
			Kind: model.KindExtraction,
			Err:  fmt.Errorf("no content extracted"),
		}
	}

	return &model.FetchOutcome{
		URL:          pageURL,
		Title:        title,
		Markdown:     markdown,
		ContentBytes: len(markdown),
		Links:        links,
	}, nil
}

// findContent returns the best content container. A site-specific
// selector wins; otherwise <main> is the most semantically precise,
// then <article>, then <body>.
func (f *HTTP) findContent(doc *goquery.Document) *goquery.Selection {
	if f.contentSelector != "" {
		if sel := doc.Find(f.contentSelector); sel.Length() > 0 {
			return sel.First()
		}
	}
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// extractLinks collects all anchor hrefs, resolved against the page URL.
// Non-navigational schemes (mailto, javascript, tel) and bare fragments
// are skipped.
func (f *HTTP) extractLinks(doc *goquery.Document, pageURL string) []model.Link {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []model.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || href == "#" ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""

		links = append(links, model.Link{
			Href: resolved.String(),
			Text: strings.TrimSpace(s.Text()),
		})
	})
	return links
}

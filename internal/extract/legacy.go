package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// LegacyFetcher is the original scraper: a bare GET plus DOM text
// extraction, no readability pass. Kept last in the chain for pages
// where the smarter strategies come back empty.
type LegacyFetcher struct {
	userAgent  string
	httpClient *http.Client
}

// NewLegacyFetcher creates the last-resort fetcher.
func NewLegacyFetcher(userAgent string, timeout time.Duration) *LegacyFetcher {
	return &LegacyFetcher{
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Fetcher.
func (f *LegacyFetcher) Name() string { return StrategyLegacy }

// Fetch implements Fetcher.
func (f *LegacyFetcher) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("invalid final URL: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(sel) {
		case "h1":
			sb.WriteString("# " + text + "\n\n")
		case "h2":
			sb.WriteString("## " + text + "\n\n")
		case "h3":
			sb.WriteString("### " + text + "\n\n")
		case "li":
			sb.WriteString("- " + text + "\n")
		default:
			sb.WriteString(text + "\n\n")
		}
	})

	markdown := strings.TrimSpace(sb.String())
	if markdown == "" {
		return nil, ErrEmptyContent
	}

	return &PageContent{
		URL:      finalURL,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Markdown: markdown,
		Images:   harvestImages(doc, base),
	}, nil
}

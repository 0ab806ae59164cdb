package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/dropfy/dropfy-api/internal/protection"
)

// DirectFetcher fetches the page itself with a desktop user agent,
// isolates the main content with readability and converts it to
// markdown. Used when the rendering API is down or not configured.
type DirectFetcher struct {
	userAgent string
	timeout   time.Duration
	detector  *protection.Detector
}

// NewDirectFetcher creates a fetcher that scrapes pages directly.
func NewDirectFetcher(userAgent string, timeout time.Duration) *DirectFetcher {
	return &DirectFetcher{
		userAgent: userAgent,
		timeout:   timeout,
		detector:  protection.NewDetector(),
	}
}

// Name implements Fetcher.
func (f *DirectFetcher) Name() string { return StrategyDirect }

// Fetch implements Fetcher.
func (f *DirectFetcher) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	body, statusCode, finalURL, err := f.download(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// Bot protection and SPA shells come back as HTTP 200 with a body
	// that has no product in it. Fail the strategy so the chain can
	// fall back to a rendered capture.
	if det := f.detector.Detect(statusCode, body); det.Detected {
		return nil, fmt.Errorf("%w: %s", ErrPageProtected, det.Description)
	}

	parsedURL, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("invalid final URL %q: %w", finalURL, err)
	}

	// Harvest images from the full document before readability strips
	// galleries and sidebars.
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	images := harvestImages(doc, parsedURL)

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability failed: %w", err)
	}

	contentHTML := article.Content
	if strings.TrimSpace(contentHTML) == "" {
		// Thin product pages often defeat readability; fall back to the
		// body so the LLM still gets something to work with.
		if bodyHTML, err := doc.Find("body").Html(); err == nil {
			contentHTML = bodyHTML
		}
	}

	markdown, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		return nil, fmt.Errorf("markdown conversion failed: %w", err)
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, ErrEmptyContent
	}

	title := article.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return &PageContent{
		URL:      finalURL,
		Title:    title,
		Markdown: markdown,
		Images:   images,
	}, nil
}

// download fetches the raw page bytes via colly, honoring the context
// deadline when it is tighter than the configured timeout.
func (f *DirectFetcher) download(ctx context.Context, pageURL string) ([]byte, int, string, error) {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, 0, "", ctx.Err()
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.MaxBodySize(10<<20),
	)
	c.SetRequestTimeout(timeout)

	var body []byte
	statusCode := 0
	finalURL := pageURL
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
		if u := r.Request.URL; u != nil {
			finalURL = u.String()
		}
	})
	// Colly surfaces non-2xx responses as errors; keep the status so a
	// 403 or 503 block is reported as protection, not a plain failure.
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			body = r.Body
			statusCode = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil {
		if det := f.detector.Detect(statusCode, body); det.Detected && statusCode != 0 {
			return nil, 0, "", fmt.Errorf("%w: %s", ErrPageProtected, det.Description)
		}
		return nil, 0, "", fmt.Errorf("fetch failed: %w", err)
	}
	if len(body) == 0 {
		return nil, 0, "", ErrEmptyContent
	}
	return body, statusCode, finalURL, nil
}

// harvestImages collects candidate product images in document order.
// Lazy-loaded images keep the real URL in data-src or data-original.
func harvestImages(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var images []string

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || isDataURI(src) {
			for _, attr := range []string{"data-src", "data-original", "data-lazy-src"} {
				if v, found := sel.Attr(attr); found && v != "" {
					src = v
					break
				}
			}
		}
		if src == "" || isDataURI(src) {
			return
		}

		resolved := resolveAgainst(base, src)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		images = append(images, resolved)
	})

	return images
}

func isDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// resolveAgainst turns a possibly relative or protocol-relative image
// reference into an absolute URL. Returns "" for unusable references.
func resolveAgainst(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

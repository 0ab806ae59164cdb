// Package protection detects bot protection and anti-scraping measures
// on fetched storefront pages.
package protection

import (
	"net/http"
	"regexp"
	"strings"
)

// SignalType identifies the kind of protection detected.
type SignalType string

const (
	SignalNone               SignalType = ""
	SignalCloudflare         SignalType = "cloudflare"
	SignalCaptcha            SignalType = "captcha"
	SignalAccessDenied       SignalType = "access_denied"
	SignalRateLimited        SignalType = "rate_limited"
	SignalEmptyContent       SignalType = "empty_content"
	SignalJavaScriptRequired SignalType = "javascript_required"
)

// DetectionResult describes a protection signal found on a page.
type DetectionResult struct {
	Detected    bool
	Signal      SignalType
	Description string

	// SuggestBrowser is true when rendering the page in a real browser
	// would likely get past the block.
	SuggestBrowser bool
}

// Detector analyzes fetched pages for bot protection signals.
type Detector struct {
	// MinContentLength is the smallest body a real product page would
	// plausibly have. Shorter responses are treated as challenge pages.
	MinContentLength int
}

// NewDetector creates a detector with default settings.
func NewDetector() *Detector {
	return &Detector{MinContentLength: 500}
}

// Detect analyzes a fetched page for protection signals.
func (d *Detector) Detect(statusCode int, body []byte) DetectionResult {
	if result := d.checkStatusCode(statusCode); result.Detected {
		return result
	}
	return d.checkBody(body)
}

func (d *Detector) checkStatusCode(statusCode int) DetectionResult {
	switch statusCode {
	case http.StatusForbidden:
		return DetectionResult{
			Detected:       true,
			Signal:         SignalAccessDenied,
			Description:    "access denied (HTTP 403), the store is blocking automated requests",
			SuggestBrowser: true,
		}
	case http.StatusServiceUnavailable:
		return DetectionResult{
			Detected:       true,
			Signal:         SignalCloudflare,
			Description:    "service unavailable (HTTP 503), likely a Cloudflare challenge",
			SuggestBrowser: true,
		}
	case http.StatusTooManyRequests:
		return DetectionResult{
			Detected:    true,
			Signal:      SignalRateLimited,
			Description: "rate limited (HTTP 429)",
			// A browser hits the same rate limit.
			SuggestBrowser: false,
		}
	}
	return DetectionResult{}
}

var (
	cloudflarePatterns = []string{
		"cf-browser-verification",
		"challenge-platform",
		"cf_chl_opt",
		"_cf_chl",
		"checking your browser",
		"just a moment...",
		"attention required! | cloudflare",
	}

	captchaPatterns = []string{
		"g-recaptcha",
		"h-captcha",
		"data-sitekey",
		"captcha-container",
		"cf-turnstile",
	}

	accessDeniedPatterns = []string{
		"access denied",
		"request blocked",
		"bot detected",
		"please verify you are human",
		"are you a robot",
	}

	jsRequiredPatterns = []string{
		"enable javascript",
		"javascript is required",
		"requires javascript",
	}

	// Empty SPA root elements mean the product content is rendered
	// client-side and the static HTML is just a shell.
	spaRootPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<div\s+id=["'](?:root|app|__next|__nuxt)["'][^>]*>\s*</div>`),
		regexp.MustCompile(`<app-root[^>]*>\s*</app-root>`),
	}

	contentIndicatorRegex = regexp.MustCompile(`<(article|main|section|div[^>]*class[^>]*(?:content|product))[^>]*>`)

	scriptRegex     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTagRegex    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

func (d *Detector) checkBody(body []byte) DetectionResult {
	if len(body) == 0 {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalEmptyContent,
			Description:    "empty response body",
			SuggestBrowser: true,
		}
	}

	content := string(body)
	lower := strings.ToLower(content)

	if match(lower, cloudflarePatterns) {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalCloudflare,
			Description:    "Cloudflare challenge page",
			SuggestBrowser: true,
		}
	}
	if match(lower, captchaPatterns) {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalCaptcha,
			Description:    "captcha challenge",
			SuggestBrowser: true,
		}
	}
	if match(lower, accessDeniedPatterns) {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalAccessDenied,
			Description:    "access denied message",
			SuggestBrowser: true,
		}
	}
	if match(lower, jsRequiredPatterns) {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalJavaScriptRequired,
			Description:    "page requires JavaScript to render",
			SuggestBrowser: true,
		}
	}

	for _, pattern := range spaRootPatterns {
		if pattern.MatchString(content) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalJavaScriptRequired,
				Description:    "SPA shell with empty root, product content is rendered client-side",
				SuggestBrowser: true,
			}
		}
	}

	if result := d.checkTextRatio(content); result.Detected {
		return result
	}

	if len(body) < d.MinContentLength && !contentIndicatorRegex.MatchString(content) {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalEmptyContent,
			Description:    "response too small to be a product page",
			SuggestBrowser: true,
		}
	}

	return DetectionResult{}
}

// checkTextRatio flags pages whose visible text is a sliver of the HTML.
// Storefronts built on client-side frameworks ship nav and footer in the
// static HTML and render the product itself with JavaScript.
func (d *Detector) checkTextRatio(content string) DetectionResult {
	cleaned := scriptRegex.ReplaceAllString(content, "")
	cleaned = styleRegex.ReplaceAllString(cleaned, "")
	visible := htmlTagRegex.ReplaceAllString(cleaned, " ")
	visible = strings.TrimSpace(whitespaceRegex.ReplaceAllString(visible, " "))

	textLen := len(visible)
	htmlLen := len(content)

	if textLen < 300 && strings.Count(strings.ToLower(content), "<a ") > 5 {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalJavaScriptRequired,
			Description:    "only navigation content in static HTML",
			SuggestBrowser: true,
		}
	}

	if htmlLen > 1000 && float64(textLen)/float64(htmlLen) < 0.02 {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalJavaScriptRequired,
			Description:    "very low text-to-HTML ratio, content is JavaScript-rendered",
			SuggestBrowser: true,
		}
	}

	return DetectionResult{}
}

func match(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

package extract

import (
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImagePicker selects which candidate images end up in the description.
// Swappable so storefront-specific heuristics can replace the default
// without touching the reconciler.
type ImagePicker interface {
	Pick(candidates []string) []string
}

// HalfSplitPicker is the default heuristic. Listing pages front-load
// logos, banners and trust badges; real product photos cluster in the
// second half of the document. With more than 10 candidates it takes up
// to 5 from the second half, otherwise just the first 2.
type HalfSplitPicker struct{}

// Pick implements ImagePicker.
func (HalfSplitPicker) Pick(candidates []string) []string {
	if len(candidates) > 10 {
		half := candidates[len(candidates)/2:]
		if len(half) > 5 {
			half = half[:5]
		}
		return half
	}
	if len(candidates) > 2 {
		return candidates[:2]
	}
	return candidates
}

// Reconciler turns an LLM-written description and the page's raw
// markdown into clean description HTML with a curated set of images.
type Reconciler struct {
	picker ImagePicker
	logger *slog.Logger
}

// NewReconciler creates a reconciler. A nil picker gets the default
// half-split heuristic.
func NewReconciler(picker ImagePicker, logger *slog.Logger) *Reconciler {
	if picker == nil {
		picker = HalfSplitPicker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{picker: picker, logger: logger}
}

// markdownImagePattern matches ![alt](url) with an optional title.
var markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// Reconcile produces description HTML. explicitImages, when provided by
// the extractor, bypass the selection heuristic; otherwise candidates
// are harvested from rawMarkdown. Reconcile never fails: on any parse
// problem it degrades to the plain description wrapped in a paragraph.
func (r *Reconciler) Reconcile(description, rawMarkdown, baseURL string, explicitImages []string) string {
	base := parseOrigin(baseURL)

	var selected []string
	if len(explicitImages) > 0 {
		selected = r.normalizeAll(explicitImages, base)
	} else {
		candidates := r.normalizeAll(imagesFromMarkdown(rawMarkdown), base)
		selected = r.picker.Pick(candidates)
	}

	bodyHTML := descriptionToHTML(description)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div id=\"root\">" + bodyHTML + "</div>"))
	if err != nil {
		r.logger.Warn("description parse failed, using plain text", "error", err)
		return "<p>" + html.EscapeString(strings.TrimSpace(description)) + "</p>"
	}

	root := doc.Find("#root")
	inDoc := make(map[string]bool)
	root.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		normalized := NormalizeImageURL(src, base)
		if normalized == "" || IsPlaceholderURL(normalized) {
			sel.Remove()
			return
		}
		sel.SetAttr("src", normalized)
		sel.RemoveAttr("width")
		sel.RemoveAttr("height")
		sel.RemoveAttr("style")
		if alt, ok := sel.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			sel.SetAttr("alt", "Product image")
		}
		inDoc[normalized] = true
	})

	var sb strings.Builder
	inner, err := root.Html()
	if err != nil {
		return "<p>" + html.EscapeString(strings.TrimSpace(description)) + "</p>"
	}
	sb.WriteString(inner)

	for _, img := range selected {
		if inDoc[img] {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<p><img src=%q alt="Product image"></p>`, img))
	}

	return sb.String()
}

// normalizeAll resolves, dedupes and filters a list of image URLs.
func (r *Reconciler) normalizeAll(raw []string, base *url.URL) []string {
	seen := make(map[string]bool)
	var out []string
	for _, img := range raw {
		normalized := NormalizeImageURL(img, base)
		if normalized == "" || IsPlaceholderURL(normalized) || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// imagesFromMarkdown extracts image URLs from markdown in page order.
func imagesFromMarkdown(markdown string) []string {
	matches := markdownImagePattern.FindAllStringSubmatch(markdown, -1)
	images := make([]string, 0, len(matches))
	for _, m := range matches {
		images = append(images, m[2])
	}
	return images
}

// NormalizeImageURL makes an image reference absolute against the base
// origin. Absolute URLs pass through untouched, so normalization is
// idempotent. Returns "" for references that cannot become a usable
// http(s) URL.
func NormalizeImageURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Protocol-relative: //cdn.example.com/img.jpg
	if strings.HasPrefix(raw, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		raw = scheme + ":" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return ""
		}
		return parsed.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// IsPlaceholderURL reports whether the URL is a stand-in image left
// behind by a lazy loader. These never belong in product output.
func IsPlaceholderURL(imageURL string) bool {
	return strings.Contains(strings.ToLower(imageURL), "placeholder")
}

// parseOrigin reduces a page URL to its origin so relative image paths
// resolve against the site root rather than the listing path.
func parseOrigin(baseURL string) *url.URL {
	if baseURL == "" {
		return nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	return &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/"}
}

// descriptionToHTML converts a markdown-ish description to HTML. The
// LLM is asked for plain prose but regularly sneaks in markdown images,
// emphasis and headings.
func descriptionToHTML(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	// Already markup? Trust it; the goquery pass cleans it up.
	if strings.HasPrefix(description, "<") && strings.Contains(description, ">") {
		return description
	}

	converted := markdownImagePattern.ReplaceAllString(description, `<img src="$2" alt="$1">`)

	var sb strings.Builder
	for _, block := range strings.Split(converted, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case strings.HasPrefix(block, "### "):
			sb.WriteString("<h3>" + strings.TrimPrefix(block, "### ") + "</h3>")
		case strings.HasPrefix(block, "## "):
			sb.WriteString("<h2>" + strings.TrimPrefix(block, "## ") + "</h2>")
		case strings.HasPrefix(block, "# "):
			sb.WriteString("<h2>" + strings.TrimPrefix(block, "# ") + "</h2>")
		case strings.HasPrefix(block, "<img"):
			sb.WriteString(block)
		default:
			sb.WriteString("<p>" + strings.ReplaceAll(block, "\n", "<br>") + "</p>")
		}
	}
	return sb.String()
}

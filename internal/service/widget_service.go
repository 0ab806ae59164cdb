package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"text/template"

	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// reviewsPerPage is fixed: the widget iframe is sized for 4 cards.
const reviewsPerPage = 4

// WidgetService renders the public review widget from the published
// snapshot. It never touches the live reviews table, so dashboard
// edits don't leak until the owner publishes again.
type WidgetService struct {
	repos   *repository.Repositories
	baseURL string
	logger  *slog.Logger
}

// NewWidgetService creates a new widget service.
func NewWidgetService(repos *repository.Repositories, baseURL string, logger *slog.Logger) *WidgetService {
	return &WidgetService{
		repos:   repos,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "widget"),
	}
}

// WidgetPage is one page of the rendered widget.
type WidgetPage struct {
	HTML        string
	Page        int
	TotalPages  int
	ReviewCount int
}

// Render builds the widget HTML for one page of published reviews.
func (s *WidgetService) Render(ctx context.Context, productID string, page int) (*WidgetPage, error) {
	snapshot, err := s.repos.PublishedReviews.GetByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var reviews []*models.Review
	if err := json.Unmarshal([]byte(snapshot.ReviewsJSON), &reviews); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	totalPages := (len(reviews) + reviewsPerPage - 1) / reviewsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * reviewsPerPage
	end := start + reviewsPerPage
	if end > len(reviews) {
		end = len(reviews)
	}
	visible := reviews[start:end]

	title := defaultWidgetTitle
	showSummary := true
	if cfg, err := s.repos.ReviewConfigs.GetByProductID(ctx, productID); err == nil {
		if cfg.WidgetTitle != "" {
			title = cfg.WidgetTitle
		}
		showSummary = cfg.ShowRatingsSummary
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	sb.WriteString("<style>" + widgetStyle + "</style>\n</head>\n<body>\n")
	sb.WriteString(`<div class="dropfy-reviews">`)
	sb.WriteString(`<h3 class="dropfy-reviews-title">` + html.EscapeString(title) + `</h3>`)
	if showSummary {
		sb.WriteString(fmt.Sprintf(
			`<div class="dropfy-reviews-summary">%s <span class="dropfy-reviews-avg">%.1f</span> · %d reviews</div>`,
			stars(int(snapshot.AverageRating+0.5)), snapshot.AverageRating, snapshot.ReviewCount,
		))
	}
	for _, r := range visible {
		sb.WriteString(`<div class="dropfy-review">`)
		sb.WriteString(`<div class="dropfy-review-stars">` + stars(r.Rating) + `</div>`)
		sb.WriteString(`<div class="dropfy-review-author">` + html.EscapeString(r.Author))
		if r.Country != "" {
			sb.WriteString(` <span class="dropfy-review-country">(` + html.EscapeString(r.Country) + `)</span>`)
		}
		sb.WriteString(`</div>`)
		sb.WriteString(`<p class="dropfy-review-content">` + html.EscapeString(r.Content) + `</p>`)
		if r.ImageURL != "" {
			sb.WriteString(fmt.Sprintf(`<img class="dropfy-review-image" src=%q alt="Review photo" loading="lazy">`, r.ImageURL))
		}
		sb.WriteString(`</div>`)
	}
	if totalPages > 1 {
		sb.WriteString(`<div class="dropfy-reviews-pager">`)
		for p := 1; p <= totalPages; p++ {
			cls := "dropfy-reviews-page"
			if p == page {
				cls += " active"
			}
			sb.WriteString(fmt.Sprintf(`<a class=%q href="?page=%d">%d</a>`, cls, p, p))
		}
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n<script>" + strings.ReplaceAll(heightScript, "{{TOKEN}}", jsString(productID)) + "</script>\n")
	sb.WriteString("</body>\n</html>\n")

	return &WidgetPage{
		HTML:        sb.String(),
		Page:        page,
		TotalPages:  totalPages,
		ReviewCount: snapshot.ReviewCount,
	}, nil
}

// widgetStyle is inlined into the widget document so the iframe is
// self-contained and never depends on the storefront's stylesheet.
const widgetStyle = `
.dropfy-reviews{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;color:#1a1a1a;max-width:680px;margin:0 auto;padding:8px}
.dropfy-reviews-title{font-size:20px;font-weight:600;margin:0 0 8px}
.dropfy-reviews-summary{font-size:14px;color:#555;margin-bottom:16px}
.dropfy-reviews-avg{font-weight:600;color:#1a1a1a}
.dropfy-review{border-top:1px solid #e5e5e5;padding:14px 0}
.dropfy-review-stars{color:#f5a623;font-size:14px;letter-spacing:2px}
.dropfy-review-author{font-size:13px;font-weight:600;margin-top:4px}
.dropfy-review-country{font-weight:400;color:#777}
.dropfy-review-content{font-size:14px;line-height:1.5;margin:6px 0 0}
.dropfy-review-image{max-width:120px;border-radius:6px;margin-top:8px;display:block}
.dropfy-reviews-pager{display:flex;gap:8px;margin-top:16px}
.dropfy-reviews-page{font-size:13px;color:#555;text-decoration:none;padding:4px 10px;border:1px solid #ddd;border-radius:4px}
.dropfy-reviews-page.active{background:#1a1a1a;color:#fff;border-color:#1a1a1a}
`

// heightScript runs inside the widget document and reports its height
// to the embedding page, paired with the listener in injectTemplate.
const heightScript = `(function () {
  var TOKEN = "{{TOKEN}}";
  function report() {
    parent.postMessage({ type: "dropfy:height", token: TOKEN, height: document.body.scrollHeight }, "*");
  }
  window.addEventListener("load", report);
  window.addEventListener("resize", report);
  report();
})();`

// injectTemplate is the embed script storefronts paste into their
// theme. {{TOKEN}} is the product token, {{BASE_URL}} this API's
// public URL. The script runs only on product pages, mounts the
// widget iframe after the product description (or an explicit
// #dropfy-reviews element), and resizes it from postMessage height
// events.
const injectTemplate = `(function () {
  var TOKEN = "{{TOKEN}}";
  var BASE = "{{BASE_URL}}";
  var SELECTORS = [
    ".product__description",
    ".product-single__description",
    ".product-description",
    "[data-product-description]",
    ".product__info-wrapper .rte",
    ".rte"
  ];
  function onProductPage() {
    if (window.location.pathname.indexOf("/products/") !== -1) return true;
    var meta = window.ShopifyAnalytics && window.ShopifyAnalytics.meta;
    return !!(meta && meta.product);
  }
  function findAnchor() {
    for (var i = 0; i < SELECTORS.length; i++) {
      var node = document.querySelector(SELECTORS[i]);
      if (node) return node;
    }
    return null;
  }
  var mount = document.getElementById("dropfy-reviews");
  if (!mount && !onProductPage()) return;
  var frame = document.createElement("iframe");
  frame.src = BASE + "/api/v1/widget/" + TOKEN;
  frame.style.width = "100%";
  frame.style.border = "0";
  frame.style.minHeight = "320px";
  frame.setAttribute("loading", "lazy");
  frame.setAttribute("title", "Customer reviews");
  if (mount) {
    mount.appendChild(frame);
  } else {
    var anchor = findAnchor() || (document.currentScript && document.currentScript.parentElement);
    if (!anchor) return;
    if (anchor.parentNode) {
      anchor.parentNode.insertBefore(frame, anchor.nextSibling);
    } else {
      anchor.appendChild(frame);
    }
  }
  window.addEventListener("message", function (event) {
    if (event.origin !== BASE) return;
    var data = event.data || {};
    if (data.type === "dropfy:height" && data.token === TOKEN) {
      frame.style.height = data.height + "px";
    }
  });
})();`

// InjectScript returns the embed script with the token and base URL
// substituted.
func (s *WidgetService) InjectScript(token string) string {
	script := strings.ReplaceAll(injectTemplate, "{{TOKEN}}", token)
	return strings.ReplaceAll(script, "{{BASE_URL}}", s.baseURL)
}

// jsString escapes a value for embedding inside a double-quoted JS
// string literal. Product IDs come straight from the URL path.
func jsString(s string) string {
	return template.JSEscapeString(s)
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

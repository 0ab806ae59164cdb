package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

func publishSnapshot(t *testing.T, repos *repository.Repositories, productID string, count int) {
	t.Helper()
	reviews := make([]*models.Review, 0, count)
	for i := 0; i < count; i++ {
		reviews = append(reviews, &models.Review{
			ID:      ulid.Make().String(),
			Author:  fmt.Sprintf("Reviewer %d", i+1),
			Rating:  5,
			Content: fmt.Sprintf("Review number %d", i+1),
			Country: "US",
		})
	}
	raw, err := json.Marshal(reviews)
	if err != nil {
		t.Fatalf("marshal reviews: %v", err)
	}
	err = repos.PublishedReviews.Upsert(context.Background(), &models.PublishedReviews{
		ProductID:     productID,
		ReviewsJSON:   string(raw),
		ReviewCount:   count,
		AverageRating: 5.0,
		PublishedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestWidgetRenderPaginates(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io/", testLogger())
	publishSnapshot(t, repos, "prod-1", 6)

	first, err := svc.Render(context.Background(), "prod-1", 1)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first.TotalPages != 2 || first.ReviewCount != 6 {
		t.Errorf("page meta = %d pages / %d reviews, want 2 / 6", first.TotalPages, first.ReviewCount)
	}
	if got := strings.Count(first.HTML, `class="dropfy-review"`); got != 4 {
		t.Errorf("page 1 cards = %d, want 4", got)
	}
	if !strings.Contains(first.HTML, "Reviewer 1") || strings.Contains(first.HTML, "Reviewer 5") {
		t.Error("page 1 shows the wrong review slice")
	}
	if !strings.Contains(first.HTML, `href="?page=2"`) {
		t.Error("page 1 missing pager link to page 2")
	}

	second, err := svc.Render(context.Background(), "prod-1", 2)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := strings.Count(second.HTML, `class="dropfy-review"`); got != 2 {
		t.Errorf("page 2 cards = %d, want 2", got)
	}
	if !strings.Contains(second.HTML, "Reviewer 6") {
		t.Error("page 2 missing last review")
	}
}

func TestWidgetRenderClampsPage(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io", testLogger())
	publishSnapshot(t, repos, "prod-1", 3)

	page, err := svc.Render(context.Background(), "prod-1", 99)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 {
		t.Errorf("page = %d/%d, want clamped to 1/1", page.Page, page.TotalPages)
	}

	page, err = svc.Render(context.Background(), "prod-1", -5)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if page.Page != 1 {
		t.Errorf("negative page rendered as %d, want 1", page.Page)
	}
}

func TestWidgetRenderUsesConfig(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io", testLogger())
	publishSnapshot(t, repos, "prod-1", 2)

	err := repos.ReviewConfigs.Upsert(context.Background(), &models.ReviewConfig{
		UserID:             "user-1",
		ProductID:          "prod-1",
		WidgetTitle:        "Loved by <customers>",
		ShowRatingsSummary: false,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	page, err := svc.Render(context.Background(), "prod-1", 1)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(page.HTML, "Loved by &lt;customers&gt;") {
		t.Error("custom title missing or not escaped")
	}
	if strings.Contains(page.HTML, `<div class="dropfy-reviews-summary"`) {
		t.Error("summary rendered despite being disabled")
	}
}

func TestWidgetRenderDefaultTitle(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io", testLogger())
	publishSnapshot(t, repos, "prod-1", 1)

	page, err := svc.Render(context.Background(), "prod-1", 1)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(page.HTML, defaultWidgetTitle) {
		t.Error("default title missing")
	}
	if !strings.Contains(page.HTML, `<div class="dropfy-reviews-summary"`) {
		t.Error("summary hidden by default")
	}
}

func TestWidgetRenderUnpublished(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io", testLogger())

	if _, err := svc.Render(context.Background(), "prod-none", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Render() error = %v, want ErrNotFound", err)
	}
}

func TestWidgetInjectScript(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io/", testLogger())

	script := svc.InjectScript("prod-1")
	if strings.Contains(script, "{{TOKEN}}") || strings.Contains(script, "{{BASE_URL}}") {
		t.Error("placeholders left in script")
	}
	if !strings.Contains(script, `var TOKEN = "prod-1";`) {
		t.Error("token not substituted")
	}
	if !strings.Contains(script, `var BASE = "https://api.dropfy.io";`) {
		t.Error("base URL not substituted or trailing slash kept")
	}
	if !strings.Contains(script, "dropfy:height") {
		t.Error("resize handler missing")
	}
	// The script only runs on product pages unless an explicit mount
	// element exists, and falls back through the selector list.
	if !strings.Contains(script, "/products/") || !strings.Contains(script, "ShopifyAnalytics") {
		t.Error("product page detection missing")
	}
	for _, sel := range []string{".product__description", ".product-single__description", ".rte"} {
		if !strings.Contains(script, sel) {
			t.Errorf("selector %q missing from fallback list", sel)
		}
	}
	if !strings.Contains(script, "insertBefore(frame, anchor.nextSibling)") {
		t.Error("iframe not inserted after the description node")
	}
}

func TestWidgetRenderFullDocument(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewWidgetService(repos, "https://api.dropfy.io", testLogger())
	publishSnapshot(t, repos, "prod-1", 2)

	page, err := svc.Render(context.Background(), "prod-1", 1)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// The iframe document must stand alone: full HTML shell, inline
	// styles, and the height report the embed script listens for.
	if !strings.HasPrefix(page.HTML, "<!DOCTYPE html>") || !strings.Contains(page.HTML, "</html>") {
		t.Error("widget is not a complete HTML document")
	}
	if !strings.Contains(page.HTML, "<style>") || !strings.Contains(page.HTML, ".dropfy-review{") {
		t.Error("inline styles missing")
	}
	if !strings.Contains(page.HTML, `type: "dropfy:height"`) {
		t.Error("height postMessage script missing")
	}
	if !strings.Contains(page.HTML, `var TOKEN = "prod-1";`) {
		t.Error("height script token not substituted")
	}
}

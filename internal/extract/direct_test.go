package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const productPage = `<!DOCTYPE html>
<html>
<head><title>Ceramic Pour-Over Coffee Set</title></head>
<body>
<article class="product">
<h1>Ceramic Pour-Over Coffee Set</h1>
<img src="/images/main.jpg" alt="set">
<img src="/images/detail.jpg" alt="detail">
<p>A hand-glazed ceramic pour-over set with a matching carafe. The dripper
uses a slow-flow spiral that extracts evenly, and the carafe holds enough
for two large cups. Dishwasher safe, 600ml capacity, available in matte
black and cream.</p>
<p>Every set ships with a starter pack of forty filters and a measuring
spoon. Designed in Lisbon, fired in small batches.</p>
</article>
</body>
</html>`

func TestDirectFetcherExtractsProductPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage)
	}))
	defer srv.Close()

	f := NewDirectFetcher("test-agent", 5*time.Second)
	content, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if content.Title != "Ceramic Pour-Over Coffee Set" {
		t.Errorf("Title = %q", content.Title)
	}
	if !strings.Contains(content.Markdown, "pour-over") {
		t.Errorf("markdown missing product copy: %q", content.Markdown)
	}
	if len(content.Images) != 2 {
		t.Fatalf("Images = %v, want 2", content.Images)
	}
	if !strings.HasPrefix(content.Images[0], srv.URL) {
		t.Errorf("image not resolved to absolute URL: %q", content.Images[0])
	}
}

func TestDirectFetcherDetectsChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Just a moment...</title></head><body><div id="cf-browser-verification">Checking your browser</div></body></html>`)
	}))
	defer srv.Close()

	f := NewDirectFetcher("test-agent", 5*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrPageProtected) {
		t.Fatalf("Fetch() error = %v, want ErrPageProtected", err)
	}
}

func TestDirectFetcherDetectsBlockedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "Forbidden")
	}))
	defer srv.Close()

	f := NewDirectFetcher("test-agent", 5*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrPageProtected) {
		t.Fatalf("Fetch() error = %v, want ErrPageProtected", err)
	}
}

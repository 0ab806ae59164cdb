package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestShopifyClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-store.myshopify.com", "shpat_test", nil)
	c.baseURL = server.URL
	return c
}

func TestVerifyToken(t *testing.T) {
	var gotToken, gotPath string
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"shop": map[string]any{"id": 42, "name": "Test Store", "domain": "test-store.com", "currency": "USD"},
		})
	})

	shop, err := c.VerifyToken(context.Background())
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if shop.ID != 42 || shop.Name != "Test Store" {
		t.Errorf("shop = %+v", shop)
	}
	if gotToken != "shpat_test" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotPath != "/shop.json" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestVerifyTokenRejected(t *testing.T) {
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := c.VerifyToken(context.Background()); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestCreateProduct(t *testing.T) {
	var gotBody map[string]any
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products.json" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"product": map[string]any{"id": 123456789},
		})
	})

	id, err := c.CreateProduct(context.Background(), &Product{
		Title:    "Wireless Earbuds",
		BodyHTML: "<p>Great sound</p>",
		Images:   []Image{{Src: "https://cdn.example.com/1.jpg"}},
		Variants: []Variant{{Price: "29.99", CompareAtPrice: "59.99"}},
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if id != 123456789 {
		t.Errorf("id = %d", id)
	}

	product := gotBody["product"].(map[string]any)
	if product["title"] != "Wireless Earbuds" {
		t.Errorf("title = %v", product["title"])
	}
}

func TestUpdateProduct(t *testing.T) {
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/products/55.json" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"product": map[string]any{"id": 55}})
	})

	if err := c.UpdateProduct(context.Background(), 55, &Product{Title: "Updated"}); err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
}

func TestRequestRetriesOn429(t *testing.T) {
	attempts := 0
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"shop": map[string]any{"id": 1, "name": "s"},
		})
	})

	if _, err := c.VerifyToken(context.Background()); err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRequestRateLimitExhausted(t *testing.T) {
	c := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0.01")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.VerifyToken(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("VerifyToken() error = %v, want ErrRateLimited", err)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"2.0", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"", 2 * time.Second},
		{"garbage", 2 * time.Second},
		{"-1", 2 * time.Second},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestNewClientNormalizesDomain(t *testing.T) {
	c := NewClient("https://my-store.myshopify.com/", "tok", nil)
	if c.domain != "my-store.myshopify.com" {
		t.Errorf("domain = %q", c.domain)
	}
	if c.BaseURL() != "https://my-store.myshopify.com/admin/api/"+APIVersion {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

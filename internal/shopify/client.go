// Package shopify is a minimal Admin REST API client used to verify
// store credentials and publish products.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIVersion is the pinned Admin REST API version.
const APIVersion = "2025-01"

const maxRetries = 3

var (
	// ErrInvalidToken is returned when the access token is rejected.
	ErrInvalidToken = errors.New("shopify rejected the access token")
	// ErrRateLimited is returned when retries were exhausted on 429s.
	ErrRateLimited = errors.New("shopify rate limit exceeded")
)

// Client talks to one store's Admin API.
type Client struct {
	domain     string // e.g. my-store.myshopify.com
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given store domain and access
// token.
func NewClient(domain, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimSuffix(domain, "/")
	return &Client{
		domain:     domain,
		token:      token,
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", domain, APIVersion),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Shop is the subset of the shop resource we surface.
type Shop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Currency string `json:"currency"`
}

// VerifyToken checks that the token can read the shop resource and
// returns the shop details.
func (c *Client) VerifyToken(ctx context.Context) (*Shop, error) {
	body, status, err := c.request(ctx, http.MethodGet, "shop.json", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("shopify returned status %d verifying token", status)
	}

	var resp struct {
		Shop Shop `json:"shop"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding shop response: %w", err)
	}
	return &resp.Shop, nil
}

// Product is the Admin API product payload.
type Product struct {
	ID       int64     `json:"id,omitempty"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html"`
	Status   string    `json:"status,omitempty"`
	Images   []Image   `json:"images,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
	Options  []Option  `json:"options,omitempty"`
}

// Image is a product image by source URL.
type Image struct {
	Src string `json:"src"`
}

// Variant is a purchasable product variant.
type Variant struct {
	Price          string `json:"price,omitempty"`
	CompareAtPrice string `json:"compare_at_price,omitempty"`
	Option1        string `json:"option1,omitempty"`
	Option2        string `json:"option2,omitempty"`
	Option3        string `json:"option3,omitempty"`
}

// Option is a variant dimension such as Color or Size.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// CreateProduct creates the product and returns its Shopify ID.
func (c *Client) CreateProduct(ctx context.Context, product *Product) (int64, error) {
	body, status, err := c.request(ctx, http.MethodPost, "products.json", map[string]any{"product": product})
	if err != nil {
		return 0, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return 0, ErrInvalidToken
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return 0, fmt.Errorf("shopify returned status %d creating product: %s", status, truncate(string(body), 300))
	}

	var resp struct {
		Product struct {
			ID int64 `json:"id"`
		} `json:"product"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding product response: %w", err)
	}
	return resp.Product.ID, nil
}

// UpdateProduct updates an existing product in place.
func (c *Client) UpdateProduct(ctx context.Context, shopifyID int64, product *Product) error {
	path := fmt.Sprintf("products/%d.json", shopifyID)
	body, status, err := c.request(ctx, http.MethodPut, path, map[string]any{"product": product})
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrInvalidToken
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("shopify product %d not found", shopifyID)
	}
	if status != http.StatusOK {
		return fmt.Errorf("shopify returned status %d updating product: %s", status, truncate(string(body), 300))
	}
	return nil
}

// request performs one Admin API call, retrying on 429 responses using
// the Retry-After header.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request: %w", err)
		}
	}

	url := c.baseURL + "/" + path

	for attempt := 0; attempt <= maxRetries; attempt++ {
		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("calling shopify: %w", err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		_ = resp.Body.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("reading shopify response: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return body, resp.StatusCode, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("shopify rate limited, retrying",
			"domain", c.domain,
			"attempt", attempt+1,
			"wait", wait,
		)
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, http.StatusTooManyRequests, ErrRateLimited
}

// retryAfter parses the Retry-After header, defaulting to 2s when
// absent or unreadable. Shopify sends fractional seconds.
func retryAfter(header string) time.Duration {
	if header == "" {
		return 2 * time.Second
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// BaseURL returns the Admin API root for this store.
func (c *Client) BaseURL() string {
	return c.baseURL
}

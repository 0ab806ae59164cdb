package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LinkfyFetcher fetches pages through the Linkfy rendering API, which
// handles JavaScript-heavy storefronts and returns ready-made markdown.
type LinkfyFetcher struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewLinkfyFetcher creates a Linkfy-backed fetcher.
func NewLinkfyFetcher(apiURL, apiKey string, timeout time.Duration) *LinkfyFetcher {
	return &LinkfyFetcher{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Fetcher.
func (f *LinkfyFetcher) Name() string { return StrategyPrimary }

type linkfyRequest struct {
	URL           string `json:"url"`
	IncludeImages bool   `json:"includeImages"`
}

type linkfyResponse struct {
	Markdown string   `json:"markdown"`
	Title    string   `json:"title"`
	Images   []string `json:"images"`
	Error    string   `json:"error"`
}

// Fetch implements Fetcher.
func (f *LinkfyFetcher) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	payload, err := json.Marshal(linkfyRequest{URL: pageURL, IncludeImages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkfy request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read linkfy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkfy returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed linkfyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse linkfy response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("linkfy error: %s", parsed.Error)
	}
	if parsed.Markdown == "" {
		return nil, ErrEmptyContent
	}

	return &PageContent{
		URL:      pageURL,
		Title:    parsed.Title,
		Markdown: parsed.Markdown,
		Images:   parsed.Images,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dropfy/dropfy-api/internal/config"
)

const anthropicVersion = "2023-06-01"

// CompletionRequest describes a single chat-completion call.
type CompletionRequest struct {
	System      string
	User        string
	ImageBase64 string // base64 JPEG, triggers the vision model
	Mode        Mode   // pro_copy upgrades to the pro model
}

// Client talks to a chat-completion provider. OpenAI and OpenRouter
// share the same wire format; Anthropic has its own.
type Client struct {
	provider    string
	apiKey      string
	baseURL     string
	model       string
	proModel    string
	visionModel string
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a client from the application config.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.LLMBaseURL
	if baseURL == "" {
		switch cfg.LLMProvider {
		case "anthropic":
			baseURL = "https://api.anthropic.com/v1"
		case "openrouter":
			baseURL = "https://openrouter.ai/api/v1"
		default:
			baseURL = "https://api.openai.com/v1"
		}
	}
	return &Client{
		provider:    cfg.LLMProvider,
		apiKey:      cfg.LLMAPIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       cfg.LLMModel,
		proModel:    cfg.LLMProModel,
		visionModel: cfg.LLMVisionModel,
		maxTokens:   cfg.LLMMaxTokens,
		httpClient:  &http.Client{Timeout: cfg.LLMTimeout},
		logger:      logger,
	}
}

// Complete sends the request and returns the raw model output.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := c.modelFor(req)

	start := time.Now()
	var (
		content string
		err     error
	)
	if c.provider == "anthropic" {
		content, err = c.completeAnthropic(ctx, model, req)
	} else {
		content, err = c.completeOpenAI(ctx, model, req)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug("llm completion",
		"provider", c.provider,
		"model", model,
		"duration", time.Since(start),
		"response_chars", len(content),
	)

	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (c *Client) modelFor(req CompletionRequest) string {
	if req.ImageBase64 != "" && c.visionModel != "" {
		return c.visionModel
	}
	if req.Mode == ModeProCopy && c.proModel != "" {
		return c.proModel
	}
	return c.model
}

func (c *Client) completeOpenAI(ctx context.Context, model string, req CompletionRequest) (string, error) {
	var userContent any = req.User
	if req.ImageBase64 != "" {
		userContent = []map[string]any{
			{"type": "text", "text": req.User},
			{"type": "image_url", "image_url": map[string]string{
				"url": "data:image/jpeg;base64," + req.ImageBase64,
			}},
		}
	}

	messages := []map[string]any{}
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": userContent})

	payload := map[string]any{
		"model":      model,
		"messages":   messages,
		"max_tokens": c.maxTokens,
	}

	body, err := c.post(ctx, c.baseURL+"/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

func (c *Client) completeAnthropic(ctx context.Context, model string, req CompletionRequest) (string, error) {
	content := []map[string]any{}
	if req.ImageBase64 != "" {
		content = append(content, map[string]any{
			"type": "image",
			"source": map[string]string{
				"type":       "base64",
				"media_type": "image/jpeg",
				"data":       req.ImageBase64,
			},
		})
	}
	content = append(content, map[string]any{"type": "text", "text": req.User})

	payload := map[string]any{
		"model":      model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}
	if req.System != "" {
		payload["system"] = req.System
	}

	body, err := c.post(ctx, c.baseURL+"/messages", payload, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "content.0.text").String(), nil
}

func (c *Client) post(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling llm: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading llm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm returned status %d: %s", resp.StatusCode, truncate(string(body), 500))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

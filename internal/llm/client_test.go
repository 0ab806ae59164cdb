package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dropfy/dropfy-api/internal/config"
)

func newTestClient(t *testing.T, provider string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.Config{
		LLMProvider:    provider,
		LLMAPIKey:      "test-key",
		LLMBaseURL:     server.URL,
		LLMModel:       "gpt-4o-mini",
		LLMProModel:    "gpt-4o",
		LLMVisionModel: "gpt-4o",
		LLMMaxTokens:   4096,
		LLMTimeout:     5 * time.Second,
	}, nil)
}

func TestCompleteOpenAI(t *testing.T) {
	var gotPath, gotAuth, gotModel string
	client := newTestClient(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel, _ = req["model"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"title":"X"}`}},
			},
		})
	})

	got, err := client.Complete(context.Background(), CompletionRequest{
		System: "extract",
		User:   "page content",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"title":"X"}` {
		t.Errorf("Complete() = %q", got)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want default model", gotModel)
	}
}

func TestCompleteProCopyUsesProModel(t *testing.T) {
	var gotModel string
	client := newTestClient(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel, _ = req["model"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	})

	if _, err := client.Complete(context.Background(), CompletionRequest{User: "u", Mode: ModeProCopy}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if gotModel != "gpt-4o" {
		t.Errorf("model = %q, want pro model", gotModel)
	}
}

func TestCompleteVisionMessage(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	})

	_, err := client.Complete(context.Background(), CompletionRequest{
		User:        "extract from screenshot",
		ImageBase64: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	messages := body["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	parts, ok := last["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("vision user content = %v, want two-part array", last["content"])
	}
	image := parts[1].(map[string]any)
	url := image["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("image url = %q", url)
	}
}

func TestCompleteAnthropic(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	client := newTestClient(t, "anthropic", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "anthropic says hi"}},
		})
	})

	got, err := client.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "anthropic says hi" {
		t.Errorf("Complete() = %q", got)
	}
	if gotPath != "/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	client := newTestClient(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), CompletionRequest{User: "u"})
	if err == nil {
		t.Fatal("Complete() expected error for 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	client := newTestClient(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "  "}}},
		})
	})

	if _, err := client.Complete(context.Background(), CompletionRequest{User: "u"}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Complete() error = %v, want ErrEmptyResponse", err)
	}
}

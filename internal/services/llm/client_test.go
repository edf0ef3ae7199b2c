package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"civicrisk/internal/services"
)

func contentResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewEncoder(w).Encode(contentResponse(`{"ok":true}`)); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(contentResponse("```json\n{\"ok\":true}\n```"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestClientCompleteSendsSingleUserMessage(t *testing.T) {
	var received chatCompletionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(contentResponse(`{"intensity":"low"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "llama-test", Temperature: 0})
	content, err := client.Complete(context.Background(), "", "classify this")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `{"intensity":"low"}` {
		t.Fatalf("unexpected content %q", content)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if received.Model != "llama-test" {
		t.Fatalf("model=%q, want llama-test", received.Model)
	}
	if received.Temperature != 0 {
		t.Fatalf("temperature=%v, want 0", received.Temperature)
	}
	if len(received.Messages) != 1 || received.Messages[0].Role != "user" || received.Messages[0].Content != "classify this" {
		t.Fatalf("unexpected messages %#v", received.Messages)
	}
	if received.ResponseFormat != nil {
		t.Fatalf("expected no response_format without JSON mode, got %v", received.ResponseFormat)
	}
}

func TestClientCompleteJSONModeAndSystemPrompt(t *testing.T) {
	var received chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(contentResponse(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m", Temperature: 0.4, JSONMode: true})
	if _, err := client.Complete(context.Background(), "be terse", "hello"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" {
		t.Fatalf("expected system + user messages, got %#v", received.Messages)
	}
	if received.ResponseFormat["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", received.ResponseFormat)
	}
	if received.Temperature != 0.4 {
		t.Fatalf("temperature=%v, want 0.4", received.Temperature)
	}
}

func TestClientCompleteRequiresAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "", "hello")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request without api key, got %d", calls.Load())
	}
}

func TestClientCompleteDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "",
					"delta": map[string]any{
						"content": `{"intensity":"high","confidence":0.74,"reason":"fire"}`,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !strings.Contains(content, `"high"`) {
		t.Fatalf("expected delta content, got %q", content)
	}
}

func TestClientCompleteLegacyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"text":          `{"intensity":"low"}`,
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `{"intensity":"low"}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestClientCompleteEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(contentResponse(""))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected complete to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider marker, got %v", err)
	}
}

func TestClientAPIErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "model decommissioned"}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "old-model"})
	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil || !strings.Contains(err.Error(), "model decommissioned") {
		t.Fatalf("expected api error message, got %v", err)
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider marker, got %v", err)
	}
}

func TestClientDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
	if !strings.Contains(err.Error(), "http 502") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		_ = json.NewEncoder(w).Encode(contentResponse(`{"intensity":"medium"}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	content, err := client.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `{"intensity":"medium"}` {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := ""
		if calls.Add(1) >= 3 {
			content = `{"intensity":"low"}`
		}
		_ = json.NewEncoder(w).Encode(contentResponse(content))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.Complete(context.Background(), "", "prompt"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClientTimeoutIsTagged(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if services.Kind(err) != services.KindTimeout {
		t.Fatalf("expected timeout kind, got %q (%v)", services.Kind(err), err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("parseRetryAfter(3) = %v, %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Fatal("expected negative seconds to be rejected")
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected empty value to be rejected")
	}
}

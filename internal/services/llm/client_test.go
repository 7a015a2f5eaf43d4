package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func respondContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		respondContent(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondContent(t, w, "```json\n{\"ok\":true}\n```")
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
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := client.Complete(context.Background(), Request{User: "hi"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestCompleteSendsImagePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			TopP        float64 `json:"top_p"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Model != "vl-model" || body.MaxTokens != 1024 || body.Temperature != 0.7 || body.TopP != 0.7 {
			t.Fatalf("unexpected request fields: %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Fatalf("expected single user message, got %+v", body.Messages)
		}
		var parts []map[string]any
		if err := json.Unmarshal(body.Messages[0].Content, &parts); err != nil {
			t.Fatalf("expected content parts: %v", err)
		}
		if len(parts) != 2 || parts[0]["type"] != "text" || parts[1]["type"] != "image_url" {
			t.Fatalf("unexpected parts: %v", parts)
		}
		image := parts[1]["image_url"].(map[string]any)
		if image["url"] != "data:image/png;base64,AAAA" {
			t.Fatalf("unexpected image url %v", image["url"])
		}
		respondContent(t, w, "looks good")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "vl-model"})
	content, err := client.Complete(context.Background(), Request{
		User:        "describe",
		ImageURL:    "data:image/png;base64,AAAA",
		Temperature: 0.7,
		TopP:        0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "looks good" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		respondContent(t, w, "third time lucky")
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	content, err := client.Complete(context.Background(), Request{User: "go"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "third time lucky" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff sequence %v", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.Complete(context.Background(), Request{User: "go"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single call, got %d", calls.Load())
	}
}

func TestRetryPolicy(t *testing.T) {
	policy := defaultRetryPolicy()
	ctx := context.Background()

	delay, again := policy.next(ctx, &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Minute}, 1)
	if !again || delay != 10*time.Second {
		t.Fatalf("expected Retry-After capped at 10s, got %s %v", delay, again)
	}
	if _, again := policy.next(ctx, &StatusError{StatusCode: http.StatusUnauthorized}, 1); again {
		t.Fatal("401 must not be retried")
	}
	if _, again := policy.next(ctx, &emptyReplyError{}, 3); again {
		t.Fatal("attempts exhausted")
	}
	if delay, _ := policy.next(ctx, &emptyReplyError{}, 2); delay != 2*time.Second {
		t.Fatalf("expected 2s backoff on second attempt, got %s", delay)
	}
	if got := policy.backoff(10); got != 10*time.Second {
		t.Fatalf("expected backoff capped at 10s, got %s", got)
	}
}

func TestCompleteRetriesEmptyReplies(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			respondContent(t, w, "   ")
			return
		}
		respondContent(t, w, "filled")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	content, err := client.Complete(context.Background(), Request{User: "go"})
	if err != nil || content != "filled" {
		t.Fatalf("expected retry past the empty reply, got %q %v", content, err)
	}
}

func TestDecodeJSONExtractsObjectFromProse(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}
	if err := DecodeJSON("Sure! Here you go:\n```json\n{\"title\":\"hello\"}\n```\nEnjoy.", &target); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if target.Title != "hello" {
		t.Fatalf("unexpected title %q", target.Title)
	}
	if err := DecodeJSON("no json here", &target); err == nil {
		t.Fatal("expected error for payload without json")
	}
	if err := DecodeJSON("{\"title\": ", &target); err == nil {
		t.Fatal("expected error for truncated json")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("5"); !ok || d != 5*time.Second {
		t.Fatalf("unexpected parse result %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected invalid value to be rejected")
	}
}

func TestCompleteOmitsZeroTopP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := body["top_p"]; ok {
			t.Errorf("top_p sent when unset: %v", body["top_p"])
		}
		respondContent(t, w, "ok")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	if _, err := client.Complete(context.Background(), Request{User: "hi"}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
}

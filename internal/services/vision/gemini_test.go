package vision_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/option"

	"listingsmith/internal/config"
	"listingsmith/internal/services"
	"listingsmith/internal/services/vision"
)

func newGemini(t *testing.T, settings config.LLMConfig, handler http.HandlerFunc, delays *[]time.Duration) *vision.Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return vision.NewGemini(settings, nil,
		vision.WithGeminiClientOptions(
			option.WithEndpoint(server.URL),
			option.WithHTTPClient(server.Client()),
		),
		vision.WithGeminiSleeper(func(d time.Duration) { *delays = append(*delays, d) }),
	)
}

func geminiReply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"finishReason":1}]}`, text)
}

func TestGeminiRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var delays []time.Duration
	gemini := newGemini(t, config.LLMConfig{APIKey: "k", Model: "gemini-1.5-flash", TimeoutSeconds: 5, RetryAttempts: 3},
		func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, ":generateContent") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if calls.Add(1) == 1 {
				http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
				return
			}
			geminiReply(w, "一双红色跑鞋")
		}, &delays)

	caption, err := gemini.Caption(context.Background(), testImage)
	if err != nil {
		t.Fatalf("Caption returned error: %v", err)
	}
	if caption != "一双红色跑鞋" {
		t.Fatalf("unexpected caption %q", caption)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(delays) != 1 || delays[0] != time.Second {
		t.Fatalf("expected one 1s backoff, got %v", delays)
	}
}

func TestGeminiDoesNotRetryRejectedKey(t *testing.T) {
	var calls atomic.Int32
	var delays []time.Duration
	gemini := newGemini(t, config.LLMConfig{APIKey: "k", Model: "gemini-1.5-flash", TimeoutSeconds: 5, RetryAttempts: 3},
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, `{"error":{"code":403,"message":"bad key"}}`, http.StatusForbidden)
		}, &delays)

	_, err := gemini.Analyze(context.Background(), testImage)
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
	if calls.Load() != 1 || len(delays) != 0 {
		t.Fatalf("expected a single attempt, got %d calls and delays %v", calls.Load(), delays)
	}
}

func TestGeminiBoundsHungRequest(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	var delays []time.Duration
	gemini := newGemini(t, config.LLMConfig{APIKey: "k", Model: "gemini-1.5-flash", TimeoutSeconds: 1, RetryAttempts: 2},
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}, &delays)
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := gemini.Caption(context.Background(), testImage)
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls.Load() != 2 || len(delays) != 1 {
		t.Fatalf("expected the timed out attempt to be retried once, got %d calls and delays %v", calls.Load(), delays)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("request not bounded, took %s", elapsed)
	}
}

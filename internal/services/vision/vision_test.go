package vision_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"listingsmith/internal/config"
	"listingsmith/internal/imagedata"
	"listingsmith/internal/services"
	"listingsmith/internal/services/llm"
	"listingsmith/internal/services/vision"
)

var testImage = imagedata.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

func newAnalyzer(t *testing.T, handler http.HandlerFunc) vision.Analyzer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	chat := llm.NewClient(
		llm.Config{APIKey: "k", BaseURL: server.URL, Model: "Qwen/Qwen3-VL-8B-Instruct"},
		llm.WithRetryMaxAttempts(1),
		llm.WithSleeper(func(time.Duration) {}),
	)
	return vision.NewOpenAI(chat, nil)
}

func reply(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
}

func TestAnalyzeParsesResponse(t *testing.T) {
	analyzer := newAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		raw, _ := json.Marshal(body["messages"])
		if !strings.Contains(string(raw), "data:image/jpeg;base64,") {
			t.Fatalf("expected image data uri in request, got %s", raw)
		}
		reply(w, `{"description":"红色跑鞋","sellingPoints":["轻","透气","缓震"],"keywords":["跑鞋"],"category":"鞋包","style":"运动","targetAudience":"跑者"}`)
	})

	got, err := analyzer.Analyze(context.Background(), testImage)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if got.Description != "红色跑鞋" || got.Category != "鞋包" || got.TargetAudience != "跑者" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if len(got.SellingPoints) != 3 {
		t.Fatalf("unexpected selling points %v", got.SellingPoints)
	}
}

func TestAnalyzeFillsDefaults(t *testing.T) {
	analyzer := newAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "分析如下：{\"category\":\"数码\"}")
	})

	got, err := analyzer.Analyze(context.Background(), testImage)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if got.Description != "暂无描述" || got.Style != "通用" || got.TargetAudience != "大众用户" {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got.Category != "数码" {
		t.Fatalf("expected category from model, got %q", got.Category)
	}
	if len(got.SellingPoints) != 3 || len(got.Keywords) != 2 {
		t.Fatalf("expected default lists, got %+v", got)
	}
}

func TestAnalyzePropagatesTransportFailure(t *testing.T) {
	analyzer := newAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := analyzer.Analyze(context.Background(), testImage)
	if err == nil {
		t.Fatal("expected error, got fallback value")
	}
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
}

func TestCaptionReturnsText(t *testing.T) {
	analyzer := newAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "一双红色跑鞋")
	})
	caption, err := analyzer.Caption(context.Background(), testImage)
	if err != nil {
		t.Fatalf("Caption returned error: %v", err)
	}
	if caption != "一双红色跑鞋" {
		t.Fatalf("unexpected caption %q", caption)
	}
}

func TestNewFromConfigRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Vision.APIKey = ""
	if _, err := vision.NewFromConfig(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.Vision.APIKey = "key"
	analyzer, err := vision.NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if _, ok := analyzer.(*vision.OpenAI); !ok {
		t.Fatalf("expected openai analyzer, got %T", analyzer)
	}

	cfg.Vision.Provider = "gemini"
	analyzer, err = vision.NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if _, ok := analyzer.(*vision.Gemini); !ok {
		t.Fatalf("expected gemini analyzer, got %T", analyzer)
	}
}

package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/services/llm"
)

var sampleProduct = deepseek.Product{
	Name:           "Trail Runner",
	Brand:          "Acme",
	Category:       "running shoes",
	Material:       "mesh",
	Color:          "red",
	Size:           "42",
	TargetAudience: "runners",
}

func newServer(t *testing.T, handler http.HandlerFunc) *deepseek.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	chat := llm.NewClient(
		llm.Config{APIKey: "test", BaseURL: server.URL, Model: "deepseek-chat"},
		llm.WithRetryMaxAttempts(1),
		llm.WithSleeper(func(time.Duration) {}),
	)
	return deepseek.NewClient(chat)
}

func TestGenerateParsesModelJSON(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Temperature != 0.8 || body.MaxTokens != 1500 {
			t.Fatalf("unexpected sampling params: %+v", body)
		}
		if len(body.Messages) != 2 || !strings.Contains(body.Messages[0].Content, "小红书") {
			t.Fatalf("expected xiaohongshu system prompt, got %+v", body.Messages)
		}
		if !strings.Contains(body.Messages[1].Content, "商品名称：Trail Runner") {
			t.Fatalf("expected product in user prompt, got %q", body.Messages[1].Content)
		}
		content := "```json\n{\"title\":\"Best shoe\",\"content\":\"Run fast\",\"hashtags\":[\"#run\"]}\n```"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	})

	got := client.Generate(context.Background(), sampleProduct, deepseek.StyleXiaohongshu)
	if got.Fallback {
		t.Fatal("expected model copy, got fallback")
	}
	if got.Title != "Best shoe" || got.Content != "Run fast" {
		t.Fatalf("unexpected copy: %+v", got)
	}
	if len(got.Hashtags) != 1 || got.Hashtags[0] != "#run" {
		t.Fatalf("unexpected hashtags: %v", got.Hashtags)
	}
	if got.Style != deepseek.StyleXiaohongshu {
		t.Fatalf("unexpected style %q", got.Style)
	}
}

func TestGenerateFillsMissingFields(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"title":"only a title"}`}}},
		})
	})

	got := client.Generate(context.Background(), sampleProduct, deepseek.StyleHype)
	if got.Title != "only a title" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if !strings.Contains(got.Content, "AcmeTrail Runner") {
		t.Fatalf("expected default content, got %q", got.Content)
	}
	if len(got.Hashtags) != 3 || got.Hashtags[2] != "#RunningShoes" {
		t.Fatalf("unexpected default hashtags %v", got.Hashtags)
	}
}

func TestGenerateFallsBackOnTransportFailure(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := client.Generate(context.Background(), sampleProduct, deepseek.StyleStory)
	if !got.Fallback {
		t.Fatal("expected fallback copy")
	}
	for _, field := range []string{got.Title, got.Content} {
		if !strings.Contains(field, "Acme") || !strings.Contains(field, "Trail Runner") {
			t.Fatalf("expected brand and name in %q", field)
		}
	}
	want := []string{"#好物推荐", "#抖音好物", "#RunningShoes", "#Acme"}
	if strings.Join(got.Hashtags, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected hashtags %v", got.Hashtags)
	}
}

func TestGenerateWithoutKeyUsesFallback(t *testing.T) {
	client := deepseek.NewClient(llm.NewClient(llm.Config{}))
	got := client.Generate(context.Background(), sampleProduct, "bogus")
	if !got.Fallback {
		t.Fatal("expected fallback copy without api key")
	}
	if got.Style != deepseek.StyleHype {
		t.Fatalf("expected unknown style to resolve to hype, got %q", got.Style)
	}
}

func TestParseStyle(t *testing.T) {
	if s, err := deepseek.ParseStyle(""); err != nil || s != deepseek.StyleHype {
		t.Fatalf("expected default style, got %q %v", s, err)
	}
	if s, err := deepseek.ParseStyle("Xiaohongshu"); err != nil || s != deepseek.StyleXiaohongshu {
		t.Fatalf("expected xiaohongshu, got %q %v", s, err)
	}
	if _, err := deepseek.ParseStyle("tiktok"); err == nil {
		t.Fatal("expected error for unknown style")
	}
	if len(deepseek.Styles()) != 6 {
		t.Fatalf("expected six styles, got %d", len(deepseek.Styles()))
	}
	if deepseek.StyleProfessional.DisplayName() != "专业测评" {
		t.Fatalf("unexpected display name %q", deepseek.StyleProfessional.DisplayName())
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"listingsmith/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("SILICONFLOW_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "listingsmith")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "listingsmith.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.GenerateLockPath() != filepath.Join(wantData, "generate.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.GenerateLockPath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7391" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Generation.MaxTitleLength != 60 {
		t.Fatalf("expected max title length 60, got %d", cfg.Generation.MaxTitleLength)
	}
	if cfg.Generation.HistoryLimit != 50 {
		t.Fatalf("expected history limit 50, got %d", cfg.Generation.HistoryLimit)
	}
	if !cfg.Generation.AutoSaveToLibrary {
		t.Fatal("expected auto save to library by default")
	}
	if cfg.Upload.MaxImageBytes != 10*1024*1024 {
		t.Fatalf("unexpected max image bytes: %d", cfg.Upload.MaxImageBytes)
	}
	if cfg.Copywriting.Model != "deepseek-chat" {
		t.Fatalf("unexpected copywriting model: %q", cfg.Copywriting.Model)
	}
	if cfg.Vision.Model != "Qwen/Qwen3-VL-8B-Instruct" {
		t.Fatalf("unexpected vision model: %q", cfg.Vision.Model)
	}
	analyze, render, copyStep := cfg.StepDelays()
	if analyze != time.Second || render != 1500*time.Millisecond || copyStep != time.Second {
		t.Fatalf("unexpected step delays: %v %v %v", analyze, render, copyStep)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "listingsmith.toml")

	type payload struct {
		Generation struct {
			MaxTitleLength int    `toml:"max_title_length"`
			Locale         string `toml:"locale"`
			RenderDelayMS  int    `toml:"render_delay_ms"`
			FontPath       string `toml:"font_path"`
		} `toml:"generation"`
		Copywriting struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"copywriting"`
	}
	custom := payload{}
	custom.Generation.MaxTitleLength = 40
	custom.Generation.Locale = "ZH"
	custom.Generation.RenderDelayMS = 10
	custom.Generation.FontPath = "~/fonts/NotoSansSC-Regular.otf"
	custom.Copywriting.APIKey = "abc123"
	custom.Copywriting.BaseURL = "https://example.com/chat"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Generation.MaxTitleLength != 40 {
		t.Fatalf("expected max title length 40, got %d", cfg.Generation.MaxTitleLength)
	}
	if cfg.Generation.Locale != "zh" {
		t.Fatalf("expected normalized locale zh, got %q", cfg.Generation.Locale)
	}
	if cfg.LocaleTag().String() != "zh" {
		t.Fatalf("unexpected locale tag %q", cfg.LocaleTag())
	}
	if cfg.Copywriting.APIKey != "abc123" {
		t.Fatalf("expected copywriting key from file, got %q", cfg.Copywriting.APIKey)
	}
	if cfg.CopywritingLLM().BaseURL != "https://example.com/chat" {
		t.Fatalf("expected base url override, got %q", cfg.CopywritingLLM().BaseURL)
	}
	if cfg.Generation.AnalyzeDelayMS != 1000 {
		t.Fatalf("expected untouched defaults to survive, got %d", cfg.Generation.AnalyzeDelayMS)
	}
	if want := filepath.Join(tempHome, "fonts", "NotoSansSC-Regular.otf"); cfg.Generation.FontPath != want {
		t.Fatalf("expected expanded font path %q, got %q", want, cfg.Generation.FontPath)
	}
	if cfg.Upload.MaxImagePixels != 40_000_000 {
		t.Fatalf("expected default pixel cap, got %d", cfg.Upload.MaxImagePixels)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "listingsmith.toml")

	contents := "[copywriting]\napi_key = \"file-deepseek\"\n\n[vision]\napi_key = \"file-vision\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("DEEPSEEK_API_KEY", "env-deepseek")
	t.Setenv("SILICONFLOW_API_KEY", "env-vision")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Copywriting.APIKey != "env-deepseek" {
		t.Errorf("expected copywriting key from env, got %q", cfg.Copywriting.APIKey)
	}
	if cfg.VisionLLM().APIKey != "env-vision" {
		t.Errorf("expected vision key from env, got %q", cfg.VisionLLM().APIKey)
	}
}

func TestGeminiProviderUsesGeminiDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "listingsmith.toml")
	if err := os.WriteFile(configPath, []byte("[vision]\nprovider = \"Gemini\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "env-gemini")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Vision.Provider != "gemini" {
		t.Fatalf("expected provider gemini, got %q", cfg.Vision.Provider)
	}
	if cfg.Vision.APIKey != "env-gemini" {
		t.Fatalf("expected gemini key from env, got %q", cfg.Vision.APIKey)
	}
	if strings.HasPrefix(cfg.Vision.Model, "Qwen") {
		t.Fatalf("expected gemini model default, got %q", cfg.Vision.Model)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "DEEPSEEK_API_KEY") {
		t.Fatalf("sample config missing key guidance: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "listingsmith") {
		t.Fatalf("expected data dir to contain listingsmith, got %q", cfg.Paths.DataDir)
	}
	if cfg.Generation.MaxTitleLength != 60 {
		t.Fatalf("expected sample max title length 60, got %d", cfg.Generation.MaxTitleLength)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"title length": func(c *config.Config) { c.Generation.MaxTitleLength = 0 },
		"locale":       func(c *config.Config) { c.Generation.Locale = "fr" },
		"history":      func(c *config.Config) { c.Generation.HistoryLimit = 0 },
		"delay":        func(c *config.Config) { c.Generation.RenderDelayMS = -1 },
		"upload":       func(c *config.Config) { c.Upload.MaxImageBytes = 0 },
		"pixels":       func(c *config.Config) { c.Upload.MaxImagePixels = 0 },
		"temperature":  func(c *config.Config) { c.Copywriting.Temperature = 3 },
		"retries":      func(c *config.Config) { c.Vision.RetryAttempts = 0 },
		"provider":     func(c *config.Config) { c.Vision.Provider = "azure" },
		"log format":   func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

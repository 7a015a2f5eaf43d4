package testsupport

import (
	"path/filepath"
	"testing"

	"listingsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Step delays are zeroed so pipeline runs finish immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Generation.AnalyzeDelayMS = 0
	cfgVal.Generation.RenderDelayMS = 0
	cfgVal.Generation.CopyDelayMS = 0
	cfgVal.Copywriting.APIKey = ""
	cfgVal.Vision.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLocale sets the catalog locale on the test config.
func WithLocale(locale string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.Locale = locale
	}
}

// WithCopywriting points the copywriting adapter at a test endpoint.
func WithCopywriting(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Copywriting.BaseURL = baseURL
		b.cfg.Copywriting.APIKey = apiKey
		b.cfg.Copywriting.RetryAttempts = 1
	}
}

// WithVision points the openai-compatible vision adapter at a test endpoint.
func WithVision(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vision.Provider = "openai"
		b.cfg.Vision.BaseURL = baseURL
		b.cfg.Vision.APIKey = apiKey
		b.cfg.Vision.RetryAttempts = 1
	}
}

// WithHistoryLimit overrides the history ring size.
func WithHistoryLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.HistoryLimit = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
	APIBind   string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on every daemon request.
	APIToken string `toml:"api_token"`
}

// Generation contains knobs for the listing generation pipeline.
type Generation struct {
	MaxTitleLength    int    `toml:"max_title_length"`
	Locale            string `toml:"locale"`
	HistoryLimit      int    `toml:"history_limit"`
	AutoSaveToLibrary bool   `toml:"auto_save_to_library"`
	AnalyzeDelayMS    int    `toml:"analyze_delay_ms"`
	RenderDelayMS     int    `toml:"render_delay_ms"`
	CopyDelayMS       int    `toml:"copy_delay_ms"`
	FooterHeight      int    `toml:"footer_height"`
	// FontPath is a TTF, OTF or TTC used for footer text. Empty uses the bundled Go fonts.
	FontPath string `toml:"font_path"`
}

// Upload contains limits applied to operator-supplied files.
type Upload struct {
	MaxImageBytes  int64 `toml:"max_image_bytes"`
	MaxImagePixels int64 `toml:"max_image_pixels"`
}

// Copywriting contains connection settings for the copywriting model.
type Copywriting struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RetryAttempts  int     `toml:"retry_attempts"`
}

// Vision contains connection settings for the image-analysis model.
type Vision struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Notifications configures ntfy delivery of task outcomes.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-listings. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for listingsmith.
//
// Configuration sections by subsystem:
//   - Paths: database, log and export directories plus the daemon bind address
//   - Generation: title length, locale, history cap, step timings and caption font
//   - Upload: image byte and pixel limits
//   - Copywriting: the chat model used for styled social copy
//   - Vision: the multimodal model used for image analysis
//   - Notifications: ntfy topic for task completion and failure
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Generation    Generation    `toml:"generation"`
	Upload        Upload        `toml:"upload"`
	Copywriting   Copywriting   `toml:"copywriting"`
	Vision        Vision        `toml:"vision"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/listingsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("listingsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories. The export directory
// is created lazily by the export command.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file backing every repository.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "listingsmith.db")
}

// GenerateLockPath returns the lock file that serializes generation runs across processes.
func (c *Config) GenerateLockPath() string {
	return filepath.Join(c.Paths.DataDir, "generate.lock")
}

// DaemonLockPath returns the lock file held by a running daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "listingsmithd.lock")
}

// DaemonPIDPath returns the file the daemon writes its process id to.
func (c *Config) DaemonPIDPath() string {
	return filepath.Join(c.Paths.DataDir, "listingsmithd.pid")
}

// LocaleTag returns the configured catalog language.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Generation.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// StepDelays returns the simulated duration of each unit-step in pipeline order.
func (c *Config) StepDelays() (analyze, render, copyStep time.Duration) {
	return time.Duration(c.Generation.AnalyzeDelayMS) * time.Millisecond,
		time.Duration(c.Generation.RenderDelayMS) * time.Millisecond,
		time.Duration(c.Generation.CopyDelayMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings shared by the model adapters.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	RetryAttempts  int
}

// CopywritingLLM returns the connection settings for the copywriting adapter.
func (c *Config) CopywritingLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Copywriting.APIKey),
		BaseURL:        strings.TrimSpace(c.Copywriting.BaseURL),
		Model:          strings.TrimSpace(c.Copywriting.Model),
		TimeoutSeconds: c.Copywriting.TimeoutSeconds,
		RetryAttempts:  c.Copywriting.RetryAttempts,
	}
}

// VisionLLM returns the connection settings for the image-analysis adapter.
func (c *Config) VisionLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Vision.APIKey),
		BaseURL:        strings.TrimSpace(c.Vision.BaseURL),
		Model:          strings.TrimSpace(c.Vision.Model),
		TimeoutSeconds: c.Vision.TimeoutSeconds,
		RetryAttempts:  c.Vision.RetryAttempts,
	}
}

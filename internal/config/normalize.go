package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizeCopywriting()
	c.normalizeVision()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if font := strings.TrimSpace(c.Generation.FontPath); font != "" {
		if c.Generation.FontPath, err = expandPath(font); err != nil {
			return fmt.Errorf("generation.font_path: %w", err)
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if value, ok := os.LookupEnv("LISTINGSMITH_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	c.Generation.Locale = strings.ToLower(strings.TrimSpace(c.Generation.Locale))
	if c.Generation.Locale == "" {
		c.Generation.Locale = defaultLocale
	}
}

func (c *Config) normalizeCopywriting() {
	c.Copywriting.APIKey = strings.TrimSpace(c.Copywriting.APIKey)
	if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Copywriting.APIKey = strings.TrimSpace(value)
	}
	c.Copywriting.BaseURL = strings.TrimSpace(c.Copywriting.BaseURL)
	if c.Copywriting.BaseURL == "" {
		c.Copywriting.BaseURL = defaultCopywritingBaseURL
	}
	c.Copywriting.Model = strings.TrimSpace(c.Copywriting.Model)
	if c.Copywriting.Model == "" {
		c.Copywriting.Model = defaultCopywritingModel
	}
}

func (c *Config) normalizeVision() {
	c.Vision.Provider = strings.ToLower(strings.TrimSpace(c.Vision.Provider))
	if c.Vision.Provider == "" {
		c.Vision.Provider = defaultVisionProvider
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	envKey := "SILICONFLOW_API_KEY"
	if c.Vision.Provider == "gemini" {
		envKey = "GEMINI_API_KEY"
	}
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		c.Vision.APIKey = strings.TrimSpace(value)
	}
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" || (c.Vision.Provider == "gemini" && c.Vision.Model == defaultVisionModel) {
		if c.Vision.Provider == "gemini" {
			c.Vision.Model = defaultGeminiVisionModel
		} else {
			c.Vision.Model = defaultVisionModel
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

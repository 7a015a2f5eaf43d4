package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateCopywriting(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	if g.MaxTitleLength <= 0 {
		return errors.New("generation.max_title_length must be positive")
	}
	switch g.Locale {
	case "en", "zh":
	default:
		return fmt.Errorf("generation.locale must be en or zh, got %q", g.Locale)
	}
	if g.HistoryLimit <= 0 {
		return errors.New("generation.history_limit must be positive")
	}
	if g.AnalyzeDelayMS < 0 || g.RenderDelayMS < 0 || g.CopyDelayMS < 0 {
		return errors.New("generation step delays must be non-negative")
	}
	if g.FooterHeight <= 0 {
		return errors.New("generation.footer_height must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxImageBytes <= 0 {
		return errors.New("upload.max_image_bytes must be positive")
	}
	if c.Upload.MaxImagePixels <= 0 {
		return errors.New("upload.max_image_pixels must be positive")
	}
	return nil
}

func (c *Config) validateCopywriting() error {
	cw := c.Copywriting
	if cw.Temperature < 0 || cw.Temperature > 2 {
		return errors.New("copywriting.temperature must be between 0 and 2")
	}
	if cw.MaxTokens <= 0 {
		return errors.New("copywriting.max_tokens must be positive")
	}
	if cw.TimeoutSeconds <= 0 {
		return errors.New("copywriting.timeout_seconds must be positive")
	}
	if cw.RetryAttempts < 1 {
		return errors.New("copywriting.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateVision() error {
	v := c.Vision
	switch v.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("vision.provider must be openai or gemini, got %q", v.Provider)
	}
	if v.TimeoutSeconds <= 0 {
		return errors.New("vision.timeout_seconds must be positive")
	}
	if v.RetryAttempts < 1 {
		return errors.New("vision.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be an http(s) URL")
	}
	return nil
}

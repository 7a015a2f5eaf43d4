package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"listingsmith/internal/config"
	"listingsmith/internal/generation"
	"listingsmith/internal/logging"
	"listingsmith/internal/storage"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to the log file only so command output stays readable.
func (c *commandContext) logger(cfg *config.Config) *slog.Logger {
	path := logging.LogFilePath(cfg)
	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  "json",
		Outputs: []string{path},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger.With(logging.String(logging.FieldComponent, "cli"))
}

// withManager opens the database, seeds the template catalog on first use and
// hands fn a generation manager. The database closes when fn returns.
func (c *commandContext) withManager(cmd *cobra.Command, fn func(context.Context, *generation.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	logger := c.logger(cfg)
	manager, err := generation.NewManager(cfg, db, logger)
	if err != nil {
		return err
	}
	defer manager.Stop()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := manager.Templates().Seed(ctx, cfg.LocaleTag()); err != nil {
		logging.WarnWithContext(logger, "template catalog seed failed", "persistence_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "template library starts empty"),
		)
	}
	return fn(ctx, manager)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

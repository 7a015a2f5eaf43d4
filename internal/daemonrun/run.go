package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"listingsmith/internal/config"
	"listingsmith/internal/daemon"
	"listingsmith/internal/generation"
	"listingsmith/internal/logging"
	"listingsmith/internal/preflight"
	"listingsmith/internal/services"
	"listingsmith/internal/services/vision"
	"listingsmith/internal/storage"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Bind overrides paths.api_bind when non-empty.
	Bind string
}

// Run starts the daemon and blocks until ctx is cancelled or a signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Bind != "" {
		cfg.Paths.APIBind = opts.Bind
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logPreflight(signalCtx, logger, cfg)

	db, err := storage.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}

	manager, err := generation.NewManager(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create generation manager: %w", err)
	}

	d, err := daemon.New(cfg, db, manager, buildAnalyzer(cfg, logger), logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api_bind and that no other listingsmithd is running"),
		)
		return err
	}

	// Written after the lock is held; a rejected instance must not touch it.
	pidPath := cfg.DaemonPIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("listingsmith daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// buildAnalyzer returns nil when no vision model is configured; the API then
// answers analysis requests with a configuration error.
func buildAnalyzer(cfg *config.Config, logger *slog.Logger) vision.Analyzer {
	analyzer, err := vision.NewFromConfig(cfg, logger)
	if err != nil {
		if !errors.Is(err, services.ErrConfiguration) {
			logging.WarnWithContext(logger, "vision analyzer unavailable", "vision_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "image analysis requests will fail"),
			)
		}
		return nil
	}
	return analyzer
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_passed"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "dependent features degrade until fixed"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

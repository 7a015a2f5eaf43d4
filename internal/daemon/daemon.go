package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"listingsmith/internal/api"
	"listingsmith/internal/config"
	"listingsmith/internal/generation"
	"listingsmith/internal/logging"
	"listingsmith/internal/services/vision"
	"listingsmith/internal/storage"
)

// Daemon serves the API for one database and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.DB
	manager *generation.Manager
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	APIAddress   string `json:"apiAddress,omitempty"`
	ActiveTask   string `json:"activeTask,omitempty"`
}

// New constructs a daemon with initialized dependencies. analyzer may be nil
// when no vision model is configured.
func New(cfg *config.Config, db *storage.DB, manager *generation.Manager, analyzer vision.Analyzer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || db == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, and generation manager")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	server := api.NewServer(api.Options{
		Config:   cfg,
		Manager:  manager,
		Analyzer: analyzer,
		Logger:   logger,
	})

	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		manager:  manager,
		api:      newAPIServer(cfg.Paths.APIBind, server.Handler(), logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers stale tasks and starts serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another listingsmith daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.recoverStale(runCtx)
	d.seedTemplates(runCtx)

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("listingsmith daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// recoverStale fails tasks a crashed process left processing. It is skipped
// while another process holds the generation lock, since that run is live.
func (d *Daemon) recoverStale(ctx context.Context) {
	probe := flock.New(d.cfg.GenerateLockPath())
	locked, err := probe.TryLock()
	if err != nil || !locked {
		logging.WarnWithContext(d.logger, "stale task recovery skipped",
			"stale_recovery_skipped",
			logging.String(logging.FieldErrorHint, "another process is generating; its task is live"),
		)
		return
	}
	defer func() { _ = probe.Unlock() }()

	count, err := d.manager.Tasks().MarkInterrupted(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "stale task recovery failed",
			"persistence_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "tasks left processing stay stuck until cancelled"),
		)
		return
	}
	if count > 0 {
		d.logger.Info("interrupted tasks marked failed",
			logging.String(logging.FieldEventType, "stale_tasks_recovered"),
			logging.Int64("count", count),
		)
	}
}

func (d *Daemon) seedTemplates(ctx context.Context) {
	seeded, err := d.manager.Templates().Seed(ctx, d.cfg.LocaleTag())
	if err != nil {
		logging.WarnWithContext(d.logger, "template catalog seed failed",
			"persistence_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "template library starts empty"),
		)
		return
	}
	if seeded {
		d.logger.Info("template catalog seeded", logging.String(logging.FieldEventType, "templates_seeded"))
	}
}

// Stop cancels in-flight runs, stops the API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("listingsmith daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the database.
func (d *Daemon) Close() error {
	d.Stop()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Status reports the daemon's runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.db.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
	if id, ok := d.manager.Running(); ok {
		status.ActiveTask = id
	}
	return status
}

package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"listingsmith/internal/compositor"
	"listingsmith/internal/config"
	"listingsmith/internal/history"
	"listingsmith/internal/library"
	"listingsmith/internal/logging"
	"listingsmith/internal/notifications"
	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/stage"
	"listingsmith/internal/storage"
	"listingsmith/internal/tasks"
	"listingsmith/internal/templating"
)

// Manager coordinates generation runs against the shared database.
type Manager struct {
	cfg        *config.Config
	logger     *slog.Logger
	tasks      *tasks.Store
	materials  *library.Materials
	templates  *library.Templates
	history    *history.Log
	engine     *templating.Engine
	compositor *compositor.Compositor
	unit       stage.Unit
	copywriter Copywriter
	notifier   notifications.Service
	defaults   product.Defaults

	guard *runGuard

	mu   sync.Mutex
	runs map[string]context.CancelFunc
	wg   sync.WaitGroup
}

// Option configures optional Manager behavior.
type Option func(*managerOptions)

type managerOptions struct {
	unit       stage.Unit
	rng        templating.RandomSource
	copywriter Copywriter
	notifier   notifications.Service
}

// WithUnit replaces the default DelayUnit.
func WithUnit(unit stage.Unit) Option {
	return func(o *managerOptions) { o.unit = unit }
}

// WithRandomSource injects the template picker's randomness.
func WithRandomSource(rng templating.RandomSource) Option {
	return func(o *managerOptions) { o.rng = rng }
}

// WithCopywriter replaces the configured copywriting client.
func WithCopywriter(copywriter Copywriter) Option {
	return func(o *managerOptions) { o.copywriter = copywriter }
}

// WithNotifier replaces the configured ntfy notifier.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *managerOptions) { o.notifier = notifier }
}

// NewManager builds a manager over db using the catalogs and timings in cfg.
func NewManager(cfg *config.Config, db *storage.DB, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger = logging.NewComponentLogger(logger, "generation")

	catalog, err := templating.LoadCatalog(cfg.LocaleTag())
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	comp, err := compositor.New(compositor.Options{
		FooterHeight: cfg.Generation.FooterHeight,
		MaxPixels:    cfg.Upload.MaxImagePixels,
		FontPath:     cfg.Generation.FontPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init compositor: %w", err)
	}

	unit := options.unit
	if unit == nil {
		unit = stage.NewDelayUnit(cfg)
	}
	copywriter := options.copywriter
	if copywriter == nil {
		copywriter = deepseek.NewFromConfig(cfg, logger)
	}
	notifier := options.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	return &Manager{
		cfg:        cfg,
		logger:     logger,
		tasks:      tasks.NewStore(db),
		materials:  library.NewMaterials(db),
		templates:  library.NewTemplates(db),
		history:    history.NewLog(db, cfg.Generation.HistoryLimit),
		engine:     templating.NewEngine(catalog, cfg.Generation.MaxTitleLength, options.rng),
		compositor: comp,
		unit:       unit,
		copywriter: copywriter,
		notifier:   notifier,
		defaults:   product.BatchDefaults(catalog.Tag),
		guard:      newRunGuard(cfg.GenerateLockPath()),
		runs:       make(map[string]context.CancelFunc),
	}, nil
}

// Tasks exposes the task store.
func (m *Manager) Tasks() *tasks.Store { return m.tasks }

// Materials exposes the material library.
func (m *Manager) Materials() *library.Materials { return m.materials }

// Templates exposes the template library.
func (m *Manager) Templates() *library.Templates { return m.templates }

// History exposes the history log.
func (m *Manager) History() *history.Log { return m.history }

// Running reports the task id of the active run in this process.
func (m *Manager) Running() (string, bool) {
	return m.guard.running()
}

// Wait blocks until every background run started by Submit, Start or Retry returns.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Stop cancels every in-flight run and waits for them to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	for _, cancel := range m.runs {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) registerRun(taskID string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.runs[taskID] = cancel
	m.mu.Unlock()
}

func (m *Manager) unregisterRun(taskID string) {
	m.mu.Lock()
	delete(m.runs, taskID)
	m.mu.Unlock()
}

func (m *Manager) cancelRun(taskID string) bool {
	m.mu.Lock()
	cancel, ok := m.runs[taskID]
	m.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

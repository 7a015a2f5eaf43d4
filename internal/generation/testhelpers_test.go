package generation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"listingsmith/internal/config"
	"listingsmith/internal/generation"
	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/stage"
	"listingsmith/internal/storage"
	"listingsmith/internal/tasks"
	"listingsmith/internal/testsupport"
)

type harness struct {
	cfg     *config.Config
	db      *storage.DB
	manager *generation.Manager
}

func newHarness(t *testing.T, opts ...generation.Option) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return newHarnessWithConfig(t, cfg, opts...)
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config, opts ...generation.Option) *harness {
	t.Helper()
	db := testsupport.MustOpenStore(t, cfg)
	defaults := []generation.Option{
		generation.WithUnit(stage.NopUnit{}),
		generation.WithCopywriter(&fakeCopywriter{}),
	}
	manager, err := generation.NewManager(cfg, db, nil, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(manager.Stop)
	return &harness{cfg: cfg, db: db, manager: manager}
}

// sequence returns values in order, wrapping around, reduced modulo n.
type sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

func (s *sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

type fakeCopywriter struct {
	mu    sync.Mutex
	calls []deepseek.Product
}

func (f *fakeCopywriter) Generate(_ context.Context, p deepseek.Product, style deepseek.Style) deepseek.Copy {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	return deepseek.Copy{
		Title:    "Styled " + p.Name,
		Content:  "Body for " + p.Brand + " " + p.Name,
		Hashtags: []string{"#" + p.Name},
		Style:    style,
	}
}

// blockingUnit parks on the first step until its context is cancelled.
type blockingUnit struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingUnit() *blockingUnit {
	return &blockingUnit{started: make(chan struct{})}
}

func (u *blockingUnit) Execute(ctx context.Context, _ stage.Step, _ product.Input) error {
	u.once.Do(func() { close(u.started) })
	<-ctx.Done()
	return ctx.Err()
}

// flakyUnit fails the render step until failures is exhausted.
type flakyUnit struct {
	mu       sync.Mutex
	failures int
}

func (u *flakyUnit) Execute(ctx context.Context, step stage.Step, _ product.Input) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if step == stage.StepRender && u.failures > 0 {
		u.failures--
		return errors.New("renderer crashed")
	}
	return ctx.Err()
}

// recordingNotifier keeps the outcomes it was told about.
type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (r *recordingNotifier) NotifyTaskCompleted(_ context.Context, task *tasks.Task, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, task.ID)
	return nil
}

func (r *recordingNotifier) NotifyTaskFailed(_ context.Context, task *tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, task.ErrorMessage)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func singleInput(t *testing.T) *product.Input {
	t.Helper()
	return &product.Input{
		Name:  "Trail Runner",
		Brand: "Acme",
		Image: testsupport.PNGDataURI(t, 40, 30),
	}
}

package generation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"listingsmith/internal/services"
)

// runGuard admits one generation run at a time. The mutex covers callers in
// this process and the file lock covers other processes on the same data dir.
type runGuard struct {
	mu     sync.Mutex
	active string
	lock   *flock.Flock
}

func newRunGuard(lockPath string) *runGuard {
	return &runGuard{lock: flock.New(lockPath)}
}

func (g *runGuard) acquire(label string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != "" {
		return nil, busy(g.active)
	}
	if err := os.MkdirAll(filepath.Dir(g.lock.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := g.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire generate lock: %w", err)
	}
	if !ok {
		return nil, busy("another process")
	}
	g.active = label
	return g.release, nil
}

func (g *runGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == "" {
		return
	}
	g.active = ""
	_ = g.lock.Unlock()
}

// mark relabels the active run once its task exists.
func (g *runGuard) mark(label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != "" {
		g.active = label
	}
}

// running returns the label of the active run, if any.
func (g *runGuard) running() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.active != ""
}

func busy(holder string) error {
	return services.Wrap(services.ErrBusy, "generation", "acquire", "run in progress: "+holder, nil)
}

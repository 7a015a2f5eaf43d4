package stage

import (
	"context"
	"time"

	"listingsmith/internal/config"
	"listingsmith/internal/product"
)

// Unit performs one step of work for one product.
type Unit interface {
	Execute(ctx context.Context, step Step, in product.Input) error
}

// UnitFunc adapts a function to the Unit interface.
type UnitFunc func(ctx context.Context, step Step, in product.Input) error

// Execute calls f.
func (f UnitFunc) Execute(ctx context.Context, step Step, in product.Input) error {
	return f(ctx, step, in)
}

// NopUnit completes every step immediately.
type NopUnit struct{}

// Execute returns ctx.Err() so cancellation is still observed between steps.
func (NopUnit) Execute(ctx context.Context, _ Step, _ product.Input) error {
	return ctx.Err()
}

// DelayUnit simulates step latency with configurable per-step durations.
type DelayUnit struct {
	delays map[Step]time.Duration
}

// NewDelayUnit builds a DelayUnit from the generation timings in cfg.
func NewDelayUnit(cfg *config.Config) *DelayUnit {
	unit := &DelayUnit{delays: make(map[Step]time.Duration, 3)}
	if cfg == nil {
		return unit
	}
	analyze, render, copyStep := cfg.StepDelays()
	unit.delays[StepAnalyze] = analyze
	unit.delays[StepRender] = render
	unit.delays[StepCopy] = copyStep
	return unit
}

// Delay reports the configured duration for step.
func (u *DelayUnit) Delay(step Step) time.Duration {
	if u == nil {
		return 0
	}
	return u.delays[step]
}

// Execute waits for the step's delay or until ctx is done.
func (u *DelayUnit) Execute(ctx context.Context, step Step, _ product.Input) error {
	delay := u.Delay(step)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

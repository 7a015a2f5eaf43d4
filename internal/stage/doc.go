// Package stage defines the unit-step model used by the generation pipeline.
//
// Each product passes through analyze, render and copy in order. A Unit
// performs one step; DelayUnit simulates the step timings from configuration
// and returns early when its context is cancelled.
package stage

// Package generation runs listing generation tasks.
//
// The Manager owns the task lifecycle: it validates input, creates the task,
// drives every product through the analyze, render and copy unit-steps,
// synthesizes results (with A/B variants for single-item runs), and then
// saves materials, templates and a history entry. Only one run may be active
// at a time across every process sharing the data directory; a second call
// fails with services.ErrBusy.
//
// The task store is the only copy of task state. Progress is written after
// every unit-step and callers read the task back to observe it.
//
// Cancellation is a context cancel. A run that observes it stops before result
// synthesis and writes nothing to the libraries.
package generation

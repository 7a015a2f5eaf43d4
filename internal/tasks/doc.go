// Package tasks is the system of record for generation runs.
//
// A Task moves pending → processing → completed|failed. Start, Retry, Cancel,
// Complete and Fail are the only ways to change status; each runs inside a
// transaction and returns an error wrapping services.ErrConflict when the task
// is not in an allowed source state. UpdateProgress never lets values move
// backwards and holds progress below 100 until Complete.
//
// Each task owns an ordered result set. Selection is exclusive within a task:
// SelectResult clears the flag on every sibling. Deleting a task deletes its
// results.
package tasks

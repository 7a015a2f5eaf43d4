// Package notifications publishes task outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// generation manager can notify unconditionally.
package notifications

// Package history keeps an audit trail of generation runs: the input used,
// the results produced and any copywriting applied afterwards. The log is a
// ring, newest first, capped at generation.history_limit entries (50 by
// default).
package history

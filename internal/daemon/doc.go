// Package daemon coordinates the long-running listingsmithd process.
//
// It ties configuration, the SQLite store, the generation manager and the
// HTTP API server into a single lifecycle, with a flock on the daemon lock
// file preventing a second instance. On start it marks tasks a crashed
// process left processing as failed so they can be retried.
//
// Keep orchestration here: request handling lives in internal/api and the
// pipeline in internal/generation.
package daemon

// Package preflight provides readiness checks for the paths and model
// endpoints listingsmith depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check.
//   - The CLI "listingsmith status" command and the daemon's /api/status
//     endpoint show the same results next to the task counts.
//
// Model checks are skipped when no API key is configured: copywriting then
// uses fallback copy and image analysis is unavailable.
package preflight

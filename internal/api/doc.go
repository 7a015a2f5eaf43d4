// Package api is the daemon's HTTP surface. It owns the gin router, the
// wire-format DTOs and the translation from internal records to them.
//
// # Routes
//
// Everything lives under /api:
//
//	GET    /api/health                   liveness
//	GET    /api/status                   preflight checks plus task counts
//	GET    /api/tasks                    list (?status=pending&status=failed)
//	POST   /api/tasks                    generate; returns 202 with the task
//	POST   /api/tasks/import             multipart spreadsheet upload
//	GET    /api/tasks/:id                task with its results
//	DELETE /api/tasks/:id
//	POST   /api/tasks/:id/start|retry|cancel
//	POST   /api/results/:id/select
//	PATCH  /api/results/:id
//	GET    /api/export                   ?format=json|csv|parquet&task=<id>
//	GET    /api/materials, /api/templates, /api/history (+ favorite/delete)
//	POST   /api/copywriting              styled copy, optionally applied to a result
//	POST   /api/vision/analyze           multipart image analysis
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors are returned as {"error": "...", "kind": "..."} with the status
// derived from the services sentinel the error wraps. When a token is
// configured every route except /api/health requires it as a bearer token.
package api

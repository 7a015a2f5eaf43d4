package preflight

import (
	"context"
	"os"

	"listingsmith/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	// The export directory is created on first export.
	if _, err := os.Stat(cfg.Paths.ExportDir); err == nil {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir))
	}

	copywriting := cfg.CopywritingLLM()
	if copywriting.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Copywriting LLM", copywriting))
	} else {
		results = append(results, Result{Name: "Copywriting LLM", Passed: true, Detail: "not configured (fallback copy)"})
	}

	results = append(results, CheckVision(ctx, cfg))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

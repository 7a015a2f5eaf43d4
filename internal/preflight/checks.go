package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"listingsmith/internal/config"
	"listingsmith/internal/services/llm"
)

// CheckLLM makes one health-check call against an OpenAI-compatible endpoint,
// bounded by 30 seconds.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: describeLLMFailure(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckVision reports the image-analysis configuration. OpenAI-compatible
// endpoints are probed; Gemini is only checked for a key.
func CheckVision(ctx context.Context, cfg *config.Config) Result {
	const name = "Vision model"

	settings := cfg.VisionLLM()
	if settings.APIKey == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (image analysis unavailable)"}
	}
	switch cfg.Vision.Provider {
	case "gemini":
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("gemini %s (key set)", settings.Model)}
	case "openai":
		check := CheckLLM(ctx, name, settings)
		if check.Passed {
			check.Detail = fmt.Sprintf("%s reachable", settings.Model)
		}
		return check
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported provider %q", cfg.Vision.Provider)}
	}
}

// CheckDirectoryAccess requires path to be a directory the process can list
// and write into.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// describeLLMFailure turns a health-check error into an operator hint.
func describeLLMFailure(err error) string {
	var status *llm.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "no reply before the health-check deadline"
	case errors.As(err, &status) && (status.StatusCode == http.StatusUnauthorized || status.StatusCode == http.StatusForbidden):
		return fmt.Sprintf("API key rejected (http %d)", status.StatusCode)
	case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
		return "endpoint or model not found (http 404); check base_url and model"
	case errors.As(err, &status) && status.StatusCode == http.StatusTooManyRequests:
		return "rate limited (http 429); retry later"
	default:
		return err.Error()
	}
}

package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"listingsmith/internal/config"
	"listingsmith/internal/imagedata"
	"listingsmith/internal/logging"
	"listingsmith/internal/services"
	"listingsmith/internal/services/llm"
)

const defaultGeminiTimeout = 60 * time.Second

// Gemini analyzes images with Google Gemini.
type Gemini struct {
	apiKey     string
	model      string
	timeout    time.Duration
	attempts   int
	sleep      func(time.Duration)
	clientOpts []option.ClientOption
	logger     *slog.Logger
}

// GeminiOption customizes a Gemini analyzer.
type GeminiOption func(*Gemini)

// WithGeminiClientOptions appends options passed to the genai client, such as
// option.WithEndpoint.
func WithGeminiClientOptions(opts ...option.ClientOption) GeminiOption {
	return func(g *Gemini) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

// WithGeminiSleeper replaces the backoff sleep.
func WithGeminiSleeper(sleep func(time.Duration)) GeminiOption {
	return func(g *Gemini) {
		g.sleep = sleep
	}
}

// NewGemini constructs a Gemini analyzer. Each call is bounded by
// settings.TimeoutSeconds and tried up to settings.RetryAttempts times.
func NewGemini(settings config.LLMConfig, logger *slog.Logger, opts ...GeminiOption) *Gemini {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gemini{
		apiKey:   strings.TrimSpace(settings.APIKey),
		model:    settings.Model,
		timeout:  defaultGeminiTimeout,
		attempts: max(settings.RetryAttempts, 1),
		logger:   logger,
	}
	if settings.TimeoutSeconds > 0 {
		g.timeout = time.Duration(settings.TimeoutSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze implements Analyzer.
func (g *Gemini) Analyze(ctx context.Context, img imagedata.Image) (Analysis, error) {
	content, err := g.generate(ctx, analysisPrompt, img, 0.7, 1024, true)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, g.logger), "image analysis failed", "vision_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check GEMINI_API_KEY and vision.model, then retry"),
		)
		return Analysis{}, services.Wrap(services.ErrUpstream, "vision", "analyze", "gemini request failed", err)
	}
	return parseAnalysis(content)
}

// Caption implements Analyzer.
func (g *Gemini) Caption(ctx context.Context, img imagedata.Image) (string, error) {
	content, err := g.generate(ctx, captionPrompt, img, 0.5, 256, false)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "vision", "caption", "gemini request failed", err)
	}
	return content, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string, img imagedata.Image, temperature float32, maxTokens int32, jsonOut bool) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("gemini api key not set")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.clientOpts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxTokens)
	if jsonOut {
		model.ResponseMIMEType = "application/json"
	}

	for attempt := 1; ; attempt++ {
		text, err := g.attempt(ctx, model, prompt, img)
		if err == nil {
			return text, nil
		}
		if attempt >= g.attempts || ctx.Err() != nil || !transientGeminiError(err) {
			if attempt > 1 {
				return "", fmt.Errorf("gemini: failed after %d attempts: %w", attempt, err)
			}
			return "", err
		}
		delay := llm.Backoff(attempt)
		g.logger.Debug("retrying gemini request",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := g.wait(ctx, delay); err != nil {
			return "", err
		}
	}
}

func (g *Gemini) attempt(ctx context.Context, model *genai.GenerativeModel, prompt string, img imagedata.Image) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := model.GenerateContent(callCtx, genai.Text(prompt), genai.ImageData(img.Format(), img.Data))
	if err != nil {
		if callCtx.Err() != nil && ctx.Err() == nil {
			return "", fmt.Errorf("generate content (timeout %s): %w", g.timeout, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from gemini")
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("unexpected response format from gemini")
	}
	return text.String(), nil
}

func (g *Gemini) wait(ctx context.Context, delay time.Duration) error {
	if g.sleep != nil {
		g.sleep(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transientGeminiError covers per-attempt timeouts, rate limits and server
// faults.
func transientGeminiError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusRequestTimeout ||
			apiErr.Code == http.StatusTooManyRequests ||
			apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

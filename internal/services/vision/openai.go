package vision

import (
	"context"
	"log/slog"

	"listingsmith/internal/imagedata"
	"listingsmith/internal/logging"
	"listingsmith/internal/services"
	"listingsmith/internal/services/llm"
)

// OpenAI analyzes images through an OpenAI-compatible vision endpoint such as SiliconFlow.
type OpenAI struct {
	chat   *llm.Client
	logger *slog.Logger
}

// NewOpenAI wraps a chat transport.
func NewOpenAI(chat *llm.Client, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OpenAI{chat: chat, logger: logger}
}

// Analyze implements Analyzer.
func (o *OpenAI) Analyze(ctx context.Context, img imagedata.Image) (Analysis, error) {
	content, err := o.chat.Complete(ctx, llm.Request{
		User:        analysisPrompt,
		ImageURL:    img.DataURI(),
		Temperature: 0.7,
		TopP:        0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "image analysis failed", "vision_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check vision.api_key and endpoint, then retry"),
		)
		return Analysis{}, services.Wrap(services.ErrUpstream, "vision", "analyze", "request failed", err)
	}
	return parseAnalysis(content)
}

// Caption implements Analyzer.
func (o *OpenAI) Caption(ctx context.Context, img imagedata.Image) (string, error) {
	content, err := o.chat.Complete(ctx, llm.Request{
		User:        captionPrompt,
		ImageURL:    img.DataURI(),
		Temperature: 0.5,
		MaxTokens:   256,
	})
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "vision", "caption", "request failed", err)
	}
	return content, nil
}

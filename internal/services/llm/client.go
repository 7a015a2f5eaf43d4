package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the chat completions endpoint used when none is configured.
const DefaultBaseURL = "https://api.deepseek.com/v1/chat/completions"

const defaultTimeout = 30 * time.Second

// Config holds the endpoint settings shared by the copywriting and vision
// adapters.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client
	retry    retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets how many times a request is tried (default 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retry.attempts = attempts
	}
}

// WithSleeper replaces the backoff sleep. Tests use it to record delays.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.retry.sleep = sleep
	}
}

// NewClient builds a client. A blank BaseURL selects DefaultBaseURL.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: strings.TrimSpace(cfg.BaseURL),
		model:    strings.TrimSpace(cfg.Model),
		http:     &http.Client{Timeout: timeout},
		retry:    defaultRetryPolicy(),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Request is one chat completion. ImageURL, usually a data URI, is sent as an
// image_url part after the user text.
type Request struct {
	System      string
	User        string
	ImageURL    string
	Temperature float64
	// TopP is omitted from the payload when zero.
	TopP      float64
	MaxTokens int
	// JSON asks the endpoint for a json_object response.
	JSON bool
}

// Complete returns the trimmed text of the first non-empty choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", errors.New("llm complete: api key required")
	}
	body, err := c.buildBody(req)
	if err != nil {
		return "", err
	}

	for attempt := 1; ; attempt++ {
		content, err := c.send(ctx, body)
		if err == nil {
			return content, nil
		}
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			if attempt > 1 {
				return "", fmt.Errorf("llm complete: failed after %d attempts: %w", attempt, err)
			}
			return "", err
		}
		if err := c.retry.wait(ctx, delay); err != nil {
			return "", err
		}
	}
}

// HealthCheck sends a tiny JSON prompt to confirm the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Complete(ctx, Request{
		System: "Reply with JSON only.",
		User:   `Reply with {"ok":true}`,
		JSON:   true,
	})
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: model did not confirm")
	}
	return nil
}

func (c *Client) buildBody(req Request) ([]byte, error) {
	user := strings.TrimSpace(req.User)
	if user == "" {
		return nil, errors.New("llm complete: user prompt required")
	}
	payload := completionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		payload.Messages = append(payload.Messages, message{Role: "system", Content: system})
	}
	payload.Messages = append(payload.Messages, userMessage(user, req.ImageURL))
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm complete: encode request: %w", err)
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request (timeout %s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", newStatusError(resp, raw)
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if content := completion.text(); content != "" {
		return content, nil
	}
	return "", &emptyReplyError{finishReason: completion.finishReason(), snippet: snippet(string(raw))}
}

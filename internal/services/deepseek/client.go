package deepseek

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"listingsmith/internal/config"
	"listingsmith/internal/logging"
	"listingsmith/internal/services/llm"
)

const (
	defaultTemperature = 0.8
	defaultMaxTokens   = 1500
)

// Product is the attribute summary sent to the copywriting model.
type Product struct {
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Category       string `json:"category"`
	Material       string `json:"material"`
	Color          string `json:"color"`
	Size           string `json:"size"`
	TargetAudience string `json:"targetAudience"`
	SellingPoints  string `json:"sellingPoints,omitempty"`
}

// Copy is one piece of styled social copy.
type Copy struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
	Style    Style    `json:"style"`
	// Fallback is true when the model could not be reached and the copy was templated locally.
	Fallback bool `json:"fallback,omitempty"`
}

// Client generates social copy through a DeepSeek-compatible chat model.
type Client struct {
	chat        *llm.Client
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option customizes the copywriting client.
type Option func(*Client)

// WithTemperature overrides the sampling temperature.
func WithTemperature(value float64) Option {
	return func(c *Client) { c.temperature = value }
}

// WithMaxTokens overrides the completion token budget.
func WithMaxTokens(value int) Option {
	return func(c *Client) {
		if value > 0 {
			c.maxTokens = value
		}
	}
}

// WithLogger attaches a logger used to report fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient wraps a chat transport. A nil transport always yields fallback copy.
func NewClient(chat *llm.Client, opts ...Option) *Client {
	client := &Client{
		chat:        chat,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from the [copywriting] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) *Client {
	settings := cfg.CopywritingLLM()
	chatOpts := append([]llm.Option{llm.WithRetryMaxAttempts(settings.RetryAttempts)}, opts...)
	chat := llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		TimeoutSeconds: settings.TimeoutSeconds,
	}, chatOpts...)
	return NewClient(chat,
		WithTemperature(cfg.Copywriting.Temperature),
		WithMaxTokens(cfg.Copywriting.MaxTokens),
		WithLogger(logging.NewComponentLogger(logger, "copywriting")),
	)
}

// HealthCheck verifies the configured endpoint answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.chat.HealthCheck(ctx)
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.chat.Configured()
}

type modelCopy struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// Generate returns styled copy for the product. It never fails: any transport
// or parse error yields deterministic fallback copy built from the product.
func (c *Client) Generate(ctx context.Context, product Product, style Style) Copy {
	if _, ok := stylePrompts[style]; !ok {
		style = StyleHype
	}
	logger := logging.WithContext(ctx, c.logger)

	if !c.Configured() {
		logging.WarnWithContext(logger, "copywriting model not configured; using fallback copy", "copywriting_fallback",
			logging.String(logging.FieldErrorHint, "set copywriting.api_key or DEEPSEEK_API_KEY"),
			logging.String(logging.FieldImpact, "copy is templated locally"),
		)
		return Fallback(product, style)
	}

	content, err := c.chat.Complete(ctx, llm.Request{
		System:      stylePrompts[style],
		User:        buildUserPrompt(product),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		logging.WarnWithContext(logger, "copywriting request failed; using fallback copy", "copywriting_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "copy is templated locally"),
		)
		return Fallback(product, style)
	}

	var parsed modelCopy
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		logging.WarnWithContext(logger, "copywriting response unparseable; using fallback copy", "copywriting_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "copy is templated locally"),
		)
		return Fallback(product, style)
	}
	return fillDefaults(parsed, product, style)
}

func fillDefaults(parsed modelCopy, p Product, style Style) Copy {
	out := Copy{
		Title:    strings.TrimSpace(parsed.Title),
		Content:  strings.TrimSpace(parsed.Content),
		Hashtags: parsed.Hashtags,
		Style:    style,
	}
	if out.Title == "" {
		out.Title = p.Brand + p.Name
	}
	if out.Content == "" {
		out.Content = p.Brand + p.Name + "，" + p.Material + "材质，适合" + p.TargetAudience + "。"
	}
	if len(out.Hashtags) == 0 {
		out.Hashtags = []string{"#好物推荐", "#抖音好物", hashtag(p.Category)}
	}
	return out
}

// Fallback builds deterministic copy from the product summary alone.
func Fallback(p Product, style Style) Copy {
	var content strings.Builder
	content.WriteString(p.TargetAudience + "注意了！这款" + p.Brand + p.Name + "简直是为你们量身定制的！\n\n")
	content.WriteString("🔥" + p.Material + "材质，品质绝了！\n")
	content.WriteString("🔥" + p.Color + "配色，时尚百搭！\n")
	content.WriteString("🔥" + p.Size + "尺码齐全，总有一款适合你！\n\n")
	content.WriteString("点击下方小黄车，马上拥有你的专属好物！")

	return Copy{
		Title:    "🔥" + p.Brand + p.Name + "，" + p.TargetAudience + "都在抢！",
		Content:  content.String(),
		Hashtags: []string{"#好物推荐", "#抖音好物", hashtag(p.Category), hashtag(p.Brand)},
		Style:    style,
		Fallback: true,
	}
}

// hashtag joins the words of value into a single tag, title-casing Latin words
// so "running shoes" becomes "#RunningShoes".
func hashtag(value string) string {
	words := strings.FieldsFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || r == '#'
	})
	caser := cases.Title(language.Und, cases.NoLower)
	for i, word := range words {
		words[i] = caser.String(word)
	}
	return "#" + strings.Join(words, "")
}

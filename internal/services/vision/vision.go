package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"listingsmith/internal/config"
	"listingsmith/internal/imagedata"
	"listingsmith/internal/logging"
	"listingsmith/internal/services"
	"listingsmith/internal/services/llm"
)

// Analysis holds product attributes suggested from an image.
type Analysis struct {
	Description    string   `json:"description"`
	SellingPoints  []string `json:"sellingPoints"`
	Keywords       []string `json:"keywords"`
	Category       string   `json:"category"`
	Style          string   `json:"style"`
	TargetAudience string   `json:"targetAudience"`
}

// Analyzer turns a product image into suggested listing attributes.
// Unlike copywriting, failures are returned to the caller.
type Analyzer interface {
	Analyze(ctx context.Context, img imagedata.Image) (Analysis, error)
	Caption(ctx context.Context, img imagedata.Image) (string, error)
}

const analysisPrompt = `请详细分析这张商品图片，并提供以下信息：

1. **商品描述**：详细描述商品的外观、材质、颜色、设计特点等
2. **卖点提炼**：列出3-5个核心卖点，突出商品优势和特色
3. **关键词**：提取5-8个适合电商搜索的关键词
4. **商品类目**：判断商品所属类目（如服装、鞋包、数码、家居等）
5. **风格特点**：描述商品的风格（如简约、复古、时尚、商务等）
6. **适用人群**：分析适合的目标用户群体

请按以下JSON格式返回结果：
{
  "description": "商品详细描述",
  "sellingPoints": ["卖点1", "卖点2", "卖点3", "卖点4", "卖点5"],
  "keywords": ["关键词1", "关键词2", "关键词3", "关键词4", "关键词5", "关键词6"],
  "category": "商品类目",
  "style": "风格特点",
  "targetAudience": "适用人群"
}`

const captionPrompt = "请简要描述这张商品图片，包括商品类型、外观特点和风格。控制在100字以内。"

// parseAnalysis decodes a model answer and fills absent fields with defaults.
func parseAnalysis(content string) (Analysis, error) {
	var parsed Analysis
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return Analysis{}, services.Wrap(services.ErrUpstream, "vision", "parse", "unparseable analysis", err)
	}
	if strings.TrimSpace(parsed.Description) == "" {
		parsed.Description = "暂无描述"
	}
	if len(parsed.SellingPoints) == 0 {
		parsed.SellingPoints = []string{"品质优良", "设计精美", "实用性强"}
	}
	if len(parsed.Keywords) == 0 {
		parsed.Keywords = []string{"好物推荐", "品质生活"}
	}
	if strings.TrimSpace(parsed.Category) == "" {
		parsed.Category = "其他"
	}
	if strings.TrimSpace(parsed.Style) == "" {
		parsed.Style = "通用"
	}
	if strings.TrimSpace(parsed.TargetAudience) == "" {
		parsed.TargetAudience = "大众用户"
	}
	return parsed, nil
}

// NewFromConfig selects the provider named in the [vision] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) (Analyzer, error) {
	settings := cfg.VisionLLM()
	if settings.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "vision", "configure", "vision.api_key is not set (or SILICONFLOW_API_KEY / GEMINI_API_KEY)", nil)
	}
	logger = logging.NewComponentLogger(logger, "vision")
	switch cfg.Vision.Provider {
	case "gemini":
		return NewGemini(settings, logger), nil
	case "openai":
		chatOpts := append([]llm.Option{llm.WithRetryMaxAttempts(settings.RetryAttempts)}, opts...)
		chat := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			TimeoutSeconds: settings.TimeoutSeconds,
		}, chatOpts...)
		return NewOpenAI(chat, logger), nil
	default:
		return nil, fmt.Errorf("vision: unsupported provider %q", cfg.Vision.Provider)
	}
}

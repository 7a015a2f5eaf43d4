package config

const (
	defaultDataDir              = "~/.local/share/listingsmith"
	defaultLogDir               = "~/.local/share/listingsmith/logs"
	defaultExportDir            = "~/listingsmith-exports"
	defaultAPIBind              = "127.0.0.1:7391"
	defaultMaxTitleLength       = 60
	defaultLocale               = "en"
	defaultHistoryLimit         = 50
	defaultAnalyzeDelayMS       = 1000
	defaultRenderDelayMS        = 1500
	defaultCopyDelayMS          = 1000
	defaultFooterHeight         = 120
	defaultMaxImageBytes        = 10 * 1024 * 1024
	defaultMaxImagePixels       = 40_000_000
	defaultCopywritingBaseURL   = "https://api.deepseek.com/v1/chat/completions"
	defaultCopywritingModel     = "deepseek-chat"
	defaultCopywritingTemp      = 0.8
	defaultCopywritingMaxTokens = 1500
	defaultCopywritingTimeout   = 30
	defaultVisionProvider       = "openai"
	defaultVisionBaseURL        = "https://api.siliconflow.cn/v1/chat/completions"
	defaultVisionModel          = "Qwen/Qwen3-VL-8B-Instruct"
	defaultGeminiVisionModel    = "gemini-1.5-flash"
	defaultVisionTimeout        = 60
	defaultAdapterRetryAttempts = 3
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
			APIBind:   defaultAPIBind,
		},
		Generation: Generation{
			MaxTitleLength:    defaultMaxTitleLength,
			Locale:            defaultLocale,
			HistoryLimit:      defaultHistoryLimit,
			AutoSaveToLibrary: true,
			AnalyzeDelayMS:    defaultAnalyzeDelayMS,
			RenderDelayMS:     defaultRenderDelayMS,
			CopyDelayMS:       defaultCopyDelayMS,
			FooterHeight:      defaultFooterHeight,
		},
		Upload: Upload{
			MaxImageBytes:  defaultMaxImageBytes,
			MaxImagePixels: defaultMaxImagePixels,
		},
		Copywriting: Copywriting{
			BaseURL:        defaultCopywritingBaseURL,
			Model:          defaultCopywritingModel,
			Temperature:    defaultCopywritingTemp,
			MaxTokens:      defaultCopywritingMaxTokens,
			TimeoutSeconds: defaultCopywritingTimeout,
			RetryAttempts:  defaultAdapterRetryAttempts,
		},
		Vision: Vision{
			Provider:       defaultVisionProvider,
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			TimeoutSeconds: defaultVisionTimeout,
			RetryAttempts:  defaultAdapterRetryAttempts,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// Package deepseek generates styled social-commerce copy (Douyin and
// Xiaohongshu voices) through a DeepSeek-compatible chat model.
//
// Generate never returns an error. When the model is unconfigured,
// unreachable, or answers with something that is not JSON, the client logs a
// warning and returns Fallback copy built from the product summary, so callers
// always receive a usable title, body and hashtag list.
package deepseek

// Package vision suggests listing attributes from a product image.
//
// Two providers implement Analyzer: OpenAI talks to any OpenAI-compatible
// multimodal endpoint (SiliconFlow's Qwen VL models by default) through the
// shared llm client, and Gemini uses Google's generative-ai SDK. Missing
// fields in a model answer are filled with fixed defaults; transport and parse
// failures are returned wrapped in services.ErrUpstream so callers can offer a
// retry.
package vision

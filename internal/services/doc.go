// Package services defines shared utilities consumed by the generation
// pipeline and the external model integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, step names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so API and CLI layers can
//     classify failures (validation, not found, conflict, busy, upstream).
//
// Subpackages hold the model clients: llm (OpenAI-compatible chat transport),
// deepseek (social copywriting) and vision (product image analysis).
package services

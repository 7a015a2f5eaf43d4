// Package llm provides an OpenAI-compatible chat completion client.
//
// It backs both model integrations: the copywriting adapter sends system and
// user prompts, and the vision adapter adds an image_url content part carrying
// a data URI.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, 3 attempts by default).
// Retry-After headers are honoured up to the max delay. Context cancellation
// aborts retries immediately.
//
// # JSON Output
//
// DecodeJSON starts at the first '{' of a reply and decodes one object, so
// code fences and chatty preambles do not matter.
package llm

package llm

import (
	"fmt"
	"strings"
)

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	TopP           float64         `json:"top_p,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// message content is a string, or a list of parts when an image is attached.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

func userMessage(text, imageURL string) message {
	if imageURL == "" {
		return message{Role: "user", Content: text}
	}
	return message{Role: "user", Content: []part{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
	}}
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r completionResponse) text() string {
	for _, choice := range r.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
	}
	return ""
}

func (r completionResponse) finishReason() string {
	if len(r.Choices) == 0 {
		return "no_choices"
	}
	return r.Choices[0].FinishReason
}

// emptyReplyError is retried: providers under load sometimes return a choice
// with no content.
type emptyReplyError struct {
	finishReason string
	snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("llm request: empty reply (finish_reason=%q): %s", e.finishReason, e.snippet)
}

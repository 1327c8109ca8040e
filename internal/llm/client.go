// Package llm wraps the hosted chat-completion API used for prompt generation.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the completion endpoint or credential is missing.
var ErrNotConfigured = errors.New("completion service not configured")

// ErrEmptyCompletion is returned when the model answers with no usable text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// Request is a single chat completion with one system and one user message.
type Request struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature float64
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Response is the result of a completion call.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Completer issues chat completions. Implementations may fail; callers own fallback.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

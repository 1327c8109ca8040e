package llm

import (
	"context"
	"strings"
)

// Static is a Completer that returns fixed text without calling a model.
// The server uses it when OPENAI_STATIC_TEXT is set and no endpoint is.
type Static struct {
	Text  string
	Model string
	Err   error
}

// Complete returns the configured text or error.
func (s Static) Complete(_ context.Context, _ Request) (*Response, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	text := strings.TrimSpace(s.Text)
	if text == "" {
		return nil, ErrEmptyCompletion
	}
	model := s.Model
	if model == "" {
		model = "static"
	}
	return &Response{Text: text, Model: model}, nil
}

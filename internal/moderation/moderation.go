// Package moderation screens user-submitted text before it is stored.
package moderation

import (
	"context"
)

// Result is the outcome of screening one piece of text.
type Result struct {
	IsSafe bool     `json:"is_safe"`
	Issues []string `json:"issues"`
}

// Moderator screens text. Errors mean the check itself could not run.
type Moderator interface {
	Moderate(ctx context.Context, text string) (Result, error)
}

// PassThrough accepts all text.
type PassThrough struct{}

// Moderate always reports the text as safe.
func (PassThrough) Moderate(context.Context, string) (Result, error) {
	return Result{IsSafe: true, Issues: []string{}}, nil
}

// Func adapts a function to the Moderator interface.
type Func func(ctx context.Context, text string) (Result, error)

// Moderate calls f.
func (f Func) Moderate(ctx context.Context, text string) (Result, error) {
	return f(ctx, text)
}

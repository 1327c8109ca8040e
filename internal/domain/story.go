// Package domain contains core domain types for the StoryScribe application.
package domain

import (
	"time"
)

// Story is a persisted diary entry owned by a single user.
type Story struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	UserID           string    `json:"userId"`
	CompletionStatus float64   `json:"completionStatus"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// StoryMetadata summarizes one past story for prompt selection.
type StoryMetadata struct {
	StoryID          string    `json:"story_id"`
	Title            string    `json:"title,omitempty"`
	ContentPreview   string    `json:"content_preview"`
	CreatedAt        time.Time `json:"created_at"`
	WordCount        int       `json:"word_count"`
	CompletionStatus float64   `json:"completion_status"`
	Themes           []string  `json:"themes,omitempty"`
	Characters       []string  `json:"characters,omitempty"`
	Sentiment        string    `json:"sentiment,omitempty"`
}

// ClampCompletion bounds a completion ratio to [0, 1].
func ClampCompletion(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

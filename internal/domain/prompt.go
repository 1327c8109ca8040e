package domain

// Stage is the prompting mode offered to a user next.
type Stage string

const (
	StageContinuation        Stage = "continuation"
	StageNewTopic            Stage = "new_topic"
	StageGenreSuggestion     Stage = "genre_suggestion"
	StageTitleRecommendation Stage = "title_recommendation"
	StageRefinement          Stage = "refinement"
	StageReflection          Stage = "reflection"
	// StageFallback tags results produced by the last-resort catalog.
	StageFallback Stage = "fallback"
)

// Source tags where prompt text came from.
type Source string

const (
	SourceModel    Source = "azure_openai"
	SourceFallback Source = "static_fallback"
)

// PromptResult is the output of progressive prompt generation.
type PromptResult struct {
	PromptText        string         `json:"prompt_text"`
	Stage             Stage          `json:"prompt_type"`
	RelatedTopics     []string       `json:"related_topics"`
	AdditionalContext map[string]any `json:"additional_context"`
	Source            Source         `json:"source"`
}

// TokenUsage reports completion token accounting.
type TokenUsage struct {
	Prompt     int64 `json:"prompt"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
}

// GenrePrompt is the result of a genre and mood driven prompt request.
type GenrePrompt struct {
	Prompt string      `json:"prompt"`
	Genre  string      `json:"genre"`
	Mood   string      `json:"mood"`
	Source Source      `json:"source"`
	Model  string      `json:"model,omitempty"`
	Error  string      `json:"error,omitempty"`
	Tokens *TokenUsage `json:"tokens,omitempty"`
}

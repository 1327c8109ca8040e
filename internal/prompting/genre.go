package prompting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/llm"
)

// Completion parameters for model-generated prompts.
const (
	MaxOutputTokens = 80
	Temperature     = 0.7
)

// systemTemplates are interchangeable instructions; %[1]s is the mood label
// and %[2]s its description.
var systemTemplates = []string{
	"You are StoryScribe's creative writing assistant. Generate ONE vivid, reflective " +
		"autobiographical writing prompt that inspires personal storytelling. The tone is %[1]s: %[2]s. " +
		"Keep it under 40 words and make it emotionally engaging.",
	"You help people write the story of their own life. Offer exactly ONE autobiographical " +
		"writing prompt with a %[1]s feel (%[2]s). Reply with the prompt only, under 40 words.",
	"As StoryScribe's memoir coach, craft a single %[1]s writing prompt that invites the writer " +
		"to tell a true story from their life. Aim for something %[2]s. Use under 40 words and no preamble.",
}

// GenreRequest asks for one prompt in a genre and mood.
type GenreRequest struct {
	Genre       string
	Mood        string
	Preferences string
}

// BuildInstructions returns the system and user messages for a genre request.
func BuildInstructions(r Rand, genre string, mood Mood, preferences string) (system, user string) {
	system = fmt.Sprintf(pick(r, systemTemplates), mood.Label, mood.Description)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a writing prompt for the genre: %s\n", genre)
	fmt.Fprintf(&b, "Mood: %s (%s)", mood.Label, mood.Description)
	if p := strings.TrimSpace(preferences); p != "" {
		fmt.Fprintf(&b, "\nUser preferences: %s", p)
	}
	return system, b.String()
}

// GenerateForGenre returns a model-generated prompt when a completer is
// configured and succeeds, otherwise the static prompt for the genre.
func (g *Generator) GenerateForGenre(ctx context.Context, req GenreRequest) domain.GenrePrompt {
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		genre = DefaultGenre
	}
	mood := ResolveMood(req.Mood)

	if g.completer == nil {
		return staticGenrePrompt(genre, mood, nil)
	}

	system, user := BuildInstructions(g.rng, genre, mood, req.Preferences)
	resp, err := g.completer.Complete(ctx, llm.Request{
		System:      system,
		User:        user,
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
	})
	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			g.logger.Warn("Completion failed, using static prompt", "genre", genre, "mood", mood.Key, "error", err)
		}
		return staticGenrePrompt(genre, mood, err)
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}
	return domain.GenrePrompt{
		Prompt: strings.TrimSpace(resp.Text),
		Genre:  genre,
		Mood:   mood.Key,
		Source: domain.SourceModel,
		Model:  model,
		Tokens: &domain.TokenUsage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}
}

func staticGenrePrompt(genre string, mood Mood, err error) domain.GenrePrompt {
	gp := domain.GenrePrompt{
		Prompt: FallbackPrompt(genre),
		Genre:  genre,
		Mood:   mood.Key,
		Source: domain.SourceFallback,
	}
	if err != nil {
		gp.Error = err.Error()
	}
	return gp
}

package prompting

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateForGenre_UnknownGenreWithoutModelUsesMemoir(t *testing.T) {
	g := NewGenerator()
	gp := g.GenerateForGenre(context.Background(), GenreRequest{Genre: "unknown_genre"})

	assert.Equal(t, FallbackPrompt("memoir"), gp.Prompt)
	assert.Equal(t, domain.SourceFallback, gp.Source)
	assert.Equal(t, "unknown_genre", gp.Genre)
	assert.Equal(t, MoodDeepReflection, gp.Mood)
	assert.Empty(t, gp.Error)
	assert.Nil(t, gp.Tokens)
}

func TestGenerateForGenre_EmptyGenreDefaultsToMemoir(t *testing.T) {
	gp := NewGenerator().GenerateForGenre(context.Background(), GenreRequest{})
	assert.Equal(t, "memoir", gp.Genre)
	assert.Equal(t, FallbackPrompt("memoir"), gp.Prompt)
}

func TestFallbackPrompt_KnownGenresCaseInsensitive(t *testing.T) {
	for _, genre := range KnownGenres() {
		assert.NotEmpty(t, FallbackPrompt(genre))
		assert.Equal(t, FallbackPrompt(genre), FallbackPrompt("  "+genre+" "))
	}
	assert.Equal(t, FallbackPrompt("adventure"), FallbackPrompt("ADVENTURE"))
	assert.NotEqual(t, FallbackPrompt("adventure"), FallbackPrompt("memoir"))
}

func TestGenerateForGenre_ModelSuccess(t *testing.T) {
	fc := &fakeCompleter{text: "\n Describe the kitchen you grew up in. \n"}
	g := NewGenerator(WithRand(NewSeededRand(5)), WithCompleter(fc, "gpt-4o-mini"))

	gp := g.GenerateForGenre(context.Background(), GenreRequest{
		Genre:       "memoir",
		Mood:        "Connection & Relationships",
		Preferences: "my grandmother",
	})

	assert.Equal(t, "Describe the kitchen you grew up in.", gp.Prompt)
	assert.Equal(t, domain.SourceModel, gp.Source)
	assert.Equal(t, MoodConnectionRelationships, gp.Mood)
	assert.Equal(t, "gpt-4o-mini", gp.Model)
	require.NotNil(t, gp.Tokens)
	assert.Equal(t, int64(42), gp.Tokens.Total)

	require.Len(t, fc.requests, 1)
	req := fc.requests[0]
	assert.EqualValues(t, 80, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Contains(t, req.System, "Connection & Relationships")
	assert.Contains(t, req.User, "genre: memoir")
	assert.Contains(t, req.User, "User preferences: my grandmother")
}

func TestGenerateForGenre_ModelFailureFallsBackWithError(t *testing.T) {
	g := NewGenerator(WithCompleter(&fakeCompleter{err: errors.New("connection refused")}, "m"))
	gp := g.GenerateForGenre(context.Background(), GenreRequest{Genre: "adventure"})

	assert.Equal(t, FallbackPrompt("adventure"), gp.Prompt)
	assert.Equal(t, domain.SourceFallback, gp.Source)
	assert.Equal(t, "connection refused", gp.Error)
}

func TestGenerateForGenre_BlankModelTextFallsBack(t *testing.T) {
	g := NewGenerator(WithCompleter(&fakeCompleter{text: "   "}, "m"))
	gp := g.GenerateForGenre(context.Background(), GenreRequest{Genre: "creative"})

	assert.Equal(t, FallbackPrompt("creative"), gp.Prompt)
	assert.Equal(t, domain.SourceFallback, gp.Source)
	assert.Contains(t, gp.Error, llm.ErrEmptyCompletion.Error())
}

func TestBuildInstructions_TemplateFromKnownSet(t *testing.T) {
	mood := ResolveMood("creative storytelling")
	allowed := make([]string, len(systemTemplates))
	for i, tmpl := range systemTemplates {
		allowed[i] = fmt.Sprintf(tmpl, mood.Label, mood.Description)
	}

	r := NewSeededRand(99)
	for i := 0; i < 20; i++ {
		system, user := BuildInstructions(r, "creative", mood, "")
		assert.Contains(t, allowed, system)
		assert.NotContains(t, user, "User preferences")
		assert.Contains(t, user, mood.Description)
	}
}

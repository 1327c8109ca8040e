package prompting

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/llm"
)

// Generator produces writing prompts. It is safe for concurrent use.
type Generator struct {
	rng       Rand
	completer llm.Completer
	model     string
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the randomness source for catalog and template picks.
// A bare *rand.Rand is wrapped so shared use stays race free.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		switch v := r.(type) {
		case nil:
		case *rand.Rand:
			g.rng = &lockedRand{r: v}
		default:
			g.rng = r
		}
	}
}

// WithCompleter enables model-generated prompts. A nil completer leaves the
// generator in static mode.
func WithCompleter(c llm.Completer, model string) Option {
	return func(g *Generator) {
		g.completer = c
		g.model = model
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator. Without options it uses static text only.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:    globalRand{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModelEnabled reports whether a completion capability is configured.
func (g *Generator) ModelEnabled() bool {
	return g.completer != nil
}

// Input carries everything needed to generate the next prompt.
type Input struct {
	Stage       domain.Stage
	History     []domain.StoryMetadata // oldest first
	Profile     domain.UserProfile
	Mood        string
	Preferences string
}

// Generate produces a prompt for the given stage. It never fails and never
// returns empty prompt text.
func (g *Generator) Generate(ctx context.Context, in Input) domain.PromptResult {
	var res domain.PromptResult
	switch in.Stage {
	case domain.StageContinuation:
		res = g.continuation(ctx, in)
	case domain.StageNewTopic:
		res = g.newTopic(ctx, in)
	case domain.StageGenreSuggestion:
		res = g.genreSuggestion(in)
	case domain.StageTitleRecommendation:
		res = g.titleRecommendation()
	case domain.StageRefinement:
		res = g.refinement(ctx, in)
	default:
		res = g.reflection()
	}

	if strings.TrimSpace(res.PromptText) == "" {
		g.logger.Warn("Prompt branch produced empty text, using generic fallback", "stage", in.Stage)
		res = domain.PromptResult{
			PromptText:    pick(g.rng, GenericPrompts),
			Stage:         domain.StageFallback,
			RelatedTopics: []string{"writing", "creativity"},
		}
	}
	if res.RelatedTopics == nil {
		res.RelatedTopics = []string{}
	}
	if res.AdditionalContext == nil {
		res.AdditionalContext = map[string]any{}
	}
	if res.Source == "" {
		res.Source = domain.SourceFallback
	}
	return res
}

func (g *Generator) continuation(ctx context.Context, in Input) domain.PromptResult {
	if len(in.History) == 0 {
		return g.newTopic(ctx, in)
	}
	recent := in.History[len(in.History)-1]

	title := recent.Title
	if title == "" {
		title = "your recent story"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Let's continue developing your story %q. ", title)
	if preview := strings.TrimSpace(recent.ContentPreview); preview != "" {
		fmt.Fprintf(&b, "You wrote about %s... ", preview)
	}
	b.WriteString("What happens next? How do the events unfold from here?")

	topics := recent.Themes
	if len(topics) == 0 {
		topics = []string{"narrative", "development", "continuation"}
	}
	return domain.PromptResult{
		PromptText:        b.String(),
		Stage:             domain.StageContinuation,
		RelatedTopics:     append([]string(nil), topics...),
		AdditionalContext: map[string]any{"story_id": recent.StoryID},
	}
}

func (g *Generator) newTopic(ctx context.Context, in Input) domain.PromptResult {
	res := domain.PromptResult{
		Stage:         domain.StageNewTopic,
		RelatedTopics: []string{"memory", "experience", "reflection"},
	}

	if g.completer != nil {
		gp := g.GenerateForGenre(ctx, GenreRequest{
			Genre:       favoriteGenre(in.Profile),
			Mood:        in.Mood,
			Preferences: in.Preferences,
		})
		if gp.Source == domain.SourceModel {
			res.PromptText = gp.Prompt
			res.Source = domain.SourceModel
			res.AdditionalContext = map[string]any{"mood": gp.Mood, "genre": gp.Genre, "model": gp.Model}
			return res
		}
		res.AdditionalContext = map[string]any{"error": gp.Error}
	}

	res.PromptText = pick(g.rng, NewTopicPrompts)
	return res
}

func (g *Generator) genreSuggestion(in Input) domain.PromptResult {
	genres := genresFromHistory(in.History, len(SuggestedGenres))
	if len(genres) == 0 {
		genres = append([]string(nil), SuggestedGenres...)
	}

	prompt := "Based on the stories you've shared so far, your writing might fit well into " +
		"these genres: " + strings.Join(genres, ", ") + ". \n\n" +
		"Which of these resonates with you? Or is there another genre you'd prefer? " +
		"Share a story that reflects the genre you're most interested in exploring further."

	return domain.PromptResult{
		PromptText:        prompt,
		Stage:             domain.StageGenreSuggestion,
		RelatedTopics:     []string{"genre", "book development", "writing style"},
		AdditionalContext: map[string]any{"suggested_genres": genres},
	}
}

func (g *Generator) titleRecommendation() domain.PromptResult {
	titles := append([]string(nil), SuggestedTitles...)
	prompt := "Your collection of stories is taking shape! Here are some potential titles " +
		"for your book: " + strings.Join(titles, ", ") + ". \n\n" +
		"Do any of these titles speak to you? Write a story that could serve as the " +
		"opening chapter, setting the tone for your book under your favorite title."

	return domain.PromptResult{
		PromptText:        prompt,
		Stage:             domain.StageTitleRecommendation,
		RelatedTopics:     []string{"book title", "introduction", "theme development"},
		AdditionalContext: map[string]any{"suggested_titles": titles},
	}
}

func (g *Generator) refinement(ctx context.Context, in Input) domain.PromptResult {
	if len(in.History) == 0 {
		return g.newTopic(ctx, in)
	}
	story := pick(g.rng, in.History)

	title := story.Title
	if title == "" {
		title = "from before"
	}
	prompt := fmt.Sprintf("Let's revisit your story %q. ", title) +
		"Consider adding more sensory details or dialogue to make it more vivid. " +
		"How might you expand on the emotions or thoughts of the people involved? " +
		"Try rewriting a section with these enhancements."

	return domain.PromptResult{
		PromptText:        prompt,
		Stage:             domain.StageRefinement,
		RelatedTopics:     []string{"editing", "enhancement", "detail"},
		AdditionalContext: map[string]any{"story_id": story.StoryID},
	}
}

func (g *Generator) reflection() domain.PromptResult {
	return domain.PromptResult{
		PromptText: "Looking back on the stories you've written so far, what themes or patterns " +
			"do you notice emerging? Which stories feel most meaningful to you, and why? " +
			"Write a reflection on your journey as an author up to this point.",
		Stage:         domain.StageReflection,
		RelatedTopics: []string{"reflection", "themes", "writer's journey"},
	}
}

func favoriteGenre(p domain.UserProfile) string {
	for _, g := range p.FavoriteGenres {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return DefaultGenre
}

// genresFromHistory returns up to limit themes ranked by how many stories
// mention them. Ties keep first-seen order.
func genresFromHistory(history []domain.StoryMetadata, limit int) []string {
	counts := make(map[string]int)
	display := make(map[string]string)
	var order []string
	for _, s := range history {
		for _, theme := range s.Themes {
			key := strings.ToLower(strings.TrimSpace(theme))
			if key == "" {
				continue
			}
			if _, seen := counts[key]; !seen {
				order = append(order, key)
				display[key] = titleCase(key)
			}
			counts[key]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, display[k])
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

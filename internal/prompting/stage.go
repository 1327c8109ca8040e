// Package prompting selects and generates autobiographical writing prompts.
//
// Stage selection is a pure function of a user's story history and profile.
// Generation dispatches on the selected stage and never fails: when the
// completion model is unavailable or errors, static text is returned instead.
package prompting

import (
	"github.com/ashureev/storyscribe/internal/config"
	"github.com/ashureev/storyscribe/internal/domain"
)

// Default stage selection policy.
const (
	DefaultCompletionThreshold = 0.8
	DefaultGenreThreshold      = 10
	DefaultTitleThreshold      = 15
	DefaultRefinementModulus   = 3
)

// Policy holds the thresholds used by stage selection.
type Policy struct {
	// CompletionThreshold is the ratio below which the latest story counts as unfinished.
	CompletionThreshold float64
	// GenreThreshold is the story count after which a genre is suggested.
	GenreThreshold int
	// TitleThreshold is the story count after which book titles are suggested.
	TitleThreshold int
	// RefinementModulus makes every Nth story count trigger a refinement prompt.
	RefinementModulus int
}

// DefaultPolicy returns the standard selection thresholds.
func DefaultPolicy() Policy {
	return Policy{
		CompletionThreshold: DefaultCompletionThreshold,
		GenreThreshold:      DefaultGenreThreshold,
		TitleThreshold:      DefaultTitleThreshold,
		RefinementModulus:   DefaultRefinementModulus,
	}
}

// PolicyFromConfig builds a policy from application configuration.
func PolicyFromConfig(cfg config.PromptingConfig) Policy {
	return Policy{
		CompletionThreshold: cfg.CompletionThreshold,
		GenreThreshold:      cfg.GenreThreshold,
		TitleThreshold:      cfg.TitleThreshold,
		RefinementModulus:   cfg.RefinementModulus,
	}
}

// SelectStage applies the default policy.
func SelectStage(history []domain.StoryMetadata, profile domain.UserProfile) domain.Stage {
	return DefaultPolicy().SelectStage(history, profile)
}

// SelectStage returns the prompting stage for a user. history must be ordered
// oldest first. Rules are evaluated in priority order and the first match wins.
func (p Policy) SelectStage(history []domain.StoryMetadata, profile domain.UserProfile) domain.Stage {
	if len(history) == 0 {
		return domain.StageNewTopic
	}

	recent := history[len(history)-1]
	if recent.CompletionStatus < p.CompletionThreshold {
		return domain.StageContinuation
	}

	n := len(history)
	if n >= p.GenreThreshold && !profile.GenreSelected {
		return domain.StageGenreSuggestion
	}

	if n >= p.TitleThreshold && profile.GenreSelected && !profile.TitleSelected {
		return domain.StageTitleRecommendation
	}

	modulus := p.RefinementModulus
	if modulus <= 0 {
		modulus = DefaultRefinementModulus
	}
	if n%modulus == 0 {
		return domain.StageRefinement
	}

	return domain.StageNewTopic
}

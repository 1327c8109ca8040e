// Package story coordinates story storage, moderation and progressive
// prompting for a single user.
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/moderation"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/ashureev/storyscribe/internal/shared"
	"github.com/ashureev/storyscribe/internal/store"
)

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// RejectedError is returned when moderation refuses submitted text.
type RejectedError struct {
	Issues []string
}

func (e *RejectedError) Error() string {
	return "content rejected: " + strings.Join(e.Issues, "; ")
}

// CreateInput is the payload for a new story.
type CreateInput struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	CompletionStatus *float64 `json:"completionStatus,omitempty"`
}

// NextPromptOptions tunes a progressive prompt request.
type NextPromptOptions struct {
	Mood        string
	Preferences string
}

// Service provides story and prompt operations on top of a repository.
type Service struct {
	repo      store.Repository
	gen       *prompting.Generator
	policy    prompting.Policy
	moderator moderation.Moderator
	logger    *slog.Logger
}

// NewService creates a story service. A nil moderator accepts all text.
func NewService(repo store.Repository, gen *prompting.Generator, policy prompting.Policy, moderator moderation.Moderator, logger *slog.Logger) *Service {
	if moderator == nil {
		moderator = moderation.PassThrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		gen:       gen,
		policy:    policy,
		moderator: moderator,
		logger:    logger,
	}
}

// Generator exposes the underlying prompt generator.
func (s *Service) Generator() *prompting.Generator {
	return s.gen
}

// CreateStory moderates and stores a story for userID. Empty titles and
// bodies are accepted.
func (s *Service) CreateStory(ctx context.Context, userID string, in CreateInput) (*domain.Story, error) {
	title := strings.TrimSpace(in.Title)
	if err := s.moderate(ctx, title+"\n"+in.Content); err != nil {
		return nil, err
	}

	completion := 1.0
	if in.CompletionStatus != nil {
		completion = domain.ClampCompletion(*in.CompletionStatus)
	}

	now := time.Now().UTC()
	st := &domain.Story{
		ID:               store.NewStoryID(),
		Title:            title,
		Content:          in.Content,
		UserID:           userID,
		CompletionStatus: completion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateStory(ctx, st); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	s.logger.Info("Story created", "user_id", userID, "story_id", st.ID, "completion", completion)
	return st, nil
}

// ListStories returns userID's stories, oldest first.
func (s *Service) ListStories(ctx context.Context, userID string) ([]domain.Story, error) {
	stories, err := s.repo.ListStories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	if stories == nil {
		stories = []domain.Story{}
	}
	return stories, nil
}

// NextPrompt selects the user's current stage and generates a prompt for it.
func (s *Service) NextPrompt(ctx context.Context, userID string, opts NextPromptOptions) (domain.PromptResult, error) {
	stories, err := s.repo.ListStories(ctx, userID)
	if err != nil {
		return domain.PromptResult{}, fmt.Errorf("list stories: %w", err)
	}
	profile, err := store.ProfileOrDefault(ctx, s.repo, userID)
	if err != nil {
		return domain.PromptResult{}, err
	}

	history := shared.SummarizeAll(stories)
	stage := s.policy.SelectStage(history, *profile)
	res := s.gen.Generate(ctx, prompting.Input{
		Stage:       stage,
		History:     history,
		Profile:     *profile,
		Mood:        opts.Mood,
		Preferences: opts.Preferences,
	})
	s.logger.Info("Prompt generated", "user_id", userID, "stage", res.Stage, "source", res.Source, "stories", len(history))
	return res, nil
}

// GenrePrompt returns a single prompt for a genre and mood.
func (s *Service) GenrePrompt(ctx context.Context, req prompting.GenreRequest) domain.GenrePrompt {
	return s.gen.GenerateForGenre(ctx, req)
}

// Profile returns userID's profile, or defaults when none is stored.
func (s *Service) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return store.ProfileOrDefault(ctx, s.repo, userID)
}

// UpdateProfile applies a partial update and persists the result.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	if upd.DisplayName != nil && strings.TrimSpace(*upd.DisplayName) != "" {
		if err := s.moderate(ctx, *upd.DisplayName); err != nil {
			return nil, err
		}
	}
	if upd.WritingFrequency != nil && *upd.WritingFrequency < 0 {
		return nil, fmt.Errorf("%w: writing_frequency must be >= 0", ErrInvalidInput)
	}

	profile, err := store.ProfileOrDefault(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	profile.Apply(upd)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// CreateUser registers a profile for userID. The display name is optional.
// It returns store.ErrAlreadyExists when the user is already registered.
func (s *Service) CreateUser(ctx context.Context, userID, displayName string) (*domain.UserProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		if err := s.moderate(ctx, displayName); err != nil {
			return nil, err
		}
	}
	profile := domain.NewUserProfile(userID)
	profile.DisplayName = displayName
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("User registered", "user_id", userID)
	return profile, nil
}

// Ping checks the backing repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) moderate(ctx context.Context, text string) error {
	res, err := s.moderator.Moderate(ctx, text)
	if err != nil {
		return fmt.Errorf("moderate content: %w", err)
	}
	if !res.IsSafe {
		return &RejectedError{Issues: res.Issues}
	}
	return nil
}

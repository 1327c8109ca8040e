// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when creating a record whose key is taken.
var ErrAlreadyExists = errors.New("already exists")

// Repository defines the interface for persisting stories and user profiles.
type Repository interface {
	// CreateStory stores a new story for story.UserID.
	CreateStory(ctx context.Context, story *domain.Story) error

	// ListStories returns a user's stories ordered oldest first.
	ListStories(ctx context.Context, userID string) ([]domain.Story, error)

	// GetProfile returns a user's profile or ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// CreateProfile stores a new profile or returns ErrAlreadyExists.
	CreateProfile(ctx context.Context, profile *domain.UserProfile) error

	// UpsertProfile creates or replaces a user's profile.
	UpsertProfile(ctx context.Context, profile *domain.UserProfile) error

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}

// NewStoryID returns an identifier of the form story_<8 hex chars>.
func NewStoryID() string {
	return "story_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ProfileOrDefault returns the stored profile for userID, or a fresh one
// with default flags when none exists.
func ProfileOrDefault(ctx context.Context, repo Repository, userID string) (*domain.UserProfile, error) {
	p, err := repo.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return domain.NewUserProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

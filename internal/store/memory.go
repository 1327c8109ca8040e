package store

import (
	"context"
	"sync"

	"github.com/ashureev/storyscribe/internal/domain"
)

// MemoryStore implements Repository in process memory. Data is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	stories  map[string][]domain.Story
	profiles map[string]domain.UserProfile
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		stories:  make(map[string][]domain.Story),
		profiles: make(map[string]domain.UserProfile),
	}
}

// CreateStory appends a story to its owner's list.
func (m *MemoryStore) CreateStory(_ context.Context, story *domain.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[story.UserID] = append(m.stories[story.UserID], *story)
	return nil
}

// ListStories returns a copy of the user's stories, oldest first.
func (m *MemoryStore) ListStories(_ context.Context, userID string) ([]domain.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Story, len(m.stories[userID]))
	copy(out, m.stories[userID])
	return out, nil
}

// GetProfile returns a copy of the stored profile.
func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	p.FavoriteGenres = append([]string(nil), p.FavoriteGenres...)
	return &p, nil
}

// CreateProfile stores a profile unless one already exists for the user.
func (m *MemoryStore) CreateProfile(_ context.Context, profile *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.UserID]; ok {
		return ErrAlreadyExists
	}
	m.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

// UpsertProfile stores or replaces a profile. Selection flags never revert
// to false once stored as true.
func (m *MemoryStore) UpsertProfile(_ context.Context, profile *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := cloneProfile(profile)
	if prev, ok := m.profiles[profile.UserID]; ok {
		next.GenreSelected = next.GenreSelected || prev.GenreSelected
		next.TitleSelected = next.TitleSelected || prev.TitleSelected
		next.CreatedAt = prev.CreatedAt
	}
	m.profiles[profile.UserID] = next
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func cloneProfile(p *domain.UserProfile) domain.UserProfile {
	c := *p
	c.FavoriteGenres = append([]string(nil), p.FavoriteGenres...)
	return c
}

// Ensure MemoryStore implements Repository.
var _ Repository = (*MemoryStore)(nil)

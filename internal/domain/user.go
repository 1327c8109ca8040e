package domain

import (
	"time"
)

// UserProfile holds the personalization state used for prompt selection.
type UserProfile struct {
	UserID           string    `json:"user_id"`
	DisplayName      string    `json:"display_name,omitempty"`
	WritingFrequency *float64  `json:"writing_frequency,omitempty"` // average stories per week
	FavoriteGenres   []string  `json:"favorite_genres,omitempty"`
	WritingGoals     string    `json:"writing_goals,omitempty"`
	GenreSelected    bool      `json:"genre_selected"`
	TitleSelected    bool      `json:"title_selected"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUserProfile returns a profile with default flags for userID.
func NewUserProfile(userID string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProfileUpdate is a partial update of a user profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName      *string   `json:"display_name,omitempty"`
	WritingFrequency *float64  `json:"writing_frequency,omitempty"`
	FavoriteGenres   *[]string `json:"favorite_genres,omitempty"`
	WritingGoals     *string   `json:"writing_goals,omitempty"`
	GenreSelected    *bool     `json:"genre_selected,omitempty"`
	TitleSelected    *bool     `json:"title_selected,omitempty"`
}

// Apply merges u into p. Selection flags only move from false to true.
func (p *UserProfile) Apply(u ProfileUpdate) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.WritingFrequency != nil {
		v := *u.WritingFrequency
		p.WritingFrequency = &v
	}
	if u.FavoriteGenres != nil {
		p.FavoriteGenres = append([]string(nil), (*u.FavoriteGenres)...)
	}
	if u.WritingGoals != nil {
		p.WritingGoals = *u.WritingGoals
	}
	if u.GenreSelected != nil && *u.GenreSelected {
		p.GenreSelected = true
	}
	if u.TitleSelected != nil && *u.TitleSelected {
		p.TitleSelected = true
	}
	p.UpdatedAt = time.Now().UTC()
}

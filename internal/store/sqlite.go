package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/shared"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	writeMaxRetries = 3
	writeBaseDelay  = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

type storyRow struct {
	ID               string  `db:"id"`
	UserID           string  `db:"user_id"`
	Title            string  `db:"title"`
	Content          string  `db:"content"`
	CompletionStatus float64 `db:"completion_status"`
	CreatedAt        int64   `db:"created_at"`
	UpdatedAt        int64   `db:"updated_at"`
}

func (r storyRow) toDomain() domain.Story {
	return domain.Story{
		ID:               r.ID,
		UserID:           r.UserID,
		Title:            r.Title,
		Content:          r.Content,
		CompletionStatus: r.CompletionStatus,
		CreatedAt:        time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:        time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

type profileRow struct {
	UserID             string          `db:"user_id"`
	DisplayName        string          `db:"display_name"`
	WritingFrequency   sql.NullFloat64 `db:"writing_frequency"`
	FavoriteGenresJSON string          `db:"favorite_genres_json"`
	WritingGoals       string          `db:"writing_goals"`
	GenreSelected      bool            `db:"genre_selected"`
	TitleSelected      bool            `db:"title_selected"`
	CreatedAt          int64           `db:"created_at"`
	UpdatedAt          int64           `db:"updated_at"`
}

func newProfileRow(p *domain.UserProfile) (profileRow, error) {
	genres := p.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return profileRow{}, fmt.Errorf("marshal favorite genres: %w", err)
	}
	row := profileRow{
		UserID:             p.UserID,
		DisplayName:        p.DisplayName,
		FavoriteGenresJSON: string(genresJSON),
		WritingGoals:       p.WritingGoals,
		GenreSelected:      p.GenreSelected,
		TitleSelected:      p.TitleSelected,
		CreatedAt:          p.CreatedAt.UnixMilli(),
		UpdatedAt:          p.UpdatedAt.UnixMilli(),
	}
	if p.WritingFrequency != nil {
		row.WritingFrequency = sql.NullFloat64{Float64: *p.WritingFrequency, Valid: true}
	}
	return row, nil
}

func (r profileRow) toDomain() (*domain.UserProfile, error) {
	p := &domain.UserProfile{
		UserID:        r.UserID,
		DisplayName:   r.DisplayName,
		WritingGoals:  r.WritingGoals,
		GenreSelected: r.GenreSelected,
		TitleSelected: r.TitleSelected,
		CreatedAt:     time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:     time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if r.WritingFrequency.Valid {
		v := r.WritingFrequency.Float64
		p.WritingFrequency = &v
	}
	if r.FavoriteGenresJSON != "" {
		if err := json.Unmarshal([]byte(r.FavoriteGenresJSON), &p.FavoriteGenres); err != nil {
			return nil, fmt.Errorf("unmarshal favorite genres: %w", err)
		}
	}
	return p, nil
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		completion_status REAL NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stories_user_created ON stories(user_id, created_at);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		writing_frequency REAL,
		favorite_genres_json TEXT NOT NULL DEFAULT '[]',
		writing_goals TEXT NOT NULL DEFAULT '',
		genre_selected INTEGER NOT NULL DEFAULT 0,
		title_selected INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateStory inserts a story, retrying while the database is busy.
func (s *SQLiteStore) CreateStory(ctx context.Context, story *domain.Story) error {
	row := storyRow{
		ID:               story.ID,
		UserID:           story.UserID,
		Title:            story.Title,
		Content:          story.Content,
		CompletionStatus: story.CompletionStatus,
		CreatedAt:        story.CreatedAt.UnixMilli(),
		UpdatedAt:        story.UpdatedAt.UnixMilli(),
	}
	query := `
		INSERT INTO stories (id, user_id, title, content, completion_status, created_at, updated_at)
		VALUES (:id, :user_id, :title, :content, :completion_status, :created_at, :updated_at)`

	err := shared.RetryOnConflict(ctx, writeMaxRetries, writeBaseDelay, func() error {
		_, err := s.db.NamedExecContext(ctx, query, row)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert story %s: %w", story.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

// ListStories returns a user's stories, oldest first.
func (s *SQLiteStore) ListStories(ctx context.Context, userID string) ([]domain.Story, error) {
	query := `
		SELECT id, user_id, title, content, completion_status, created_at, updated_at
		FROM stories WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`

	var rows []storyRow
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}

	stories := make([]domain.Story, 0, len(rows))
	for _, r := range rows {
		stories = append(stories, r.toDomain())
	}
	return stories, nil
}

// GetProfile retrieves a user's profile.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, display_name, writing_frequency, favorite_genres_json, writing_goals,
		       genre_selected, title_selected, created_at, updated_at
		FROM profiles WHERE user_id = ?`

	var row profileRow
	err := s.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	return row.toDomain()
}

// CreateProfile inserts a new profile.
func (s *SQLiteStore) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	row, err := newProfileRow(profile)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (user_id, display_name, writing_frequency, favorite_genres_json, writing_goals,
		                      genre_selected, title_selected, created_at, updated_at)
		VALUES (:user_id, :display_name, :writing_frequency, :favorite_genres_json, :writing_goals,
		        :genre_selected, :title_selected, :created_at, :updated_at)`

	err = shared.RetryOnConflict(ctx, writeMaxRetries, writeBaseDelay, func() error {
		_, err := s.db.NamedExecContext(ctx, query, row)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpsertProfile creates or updates a profile. Selection flags never revert
// to false once stored as true.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	row, err := newProfileRow(profile)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (user_id, display_name, writing_frequency, favorite_genres_json, writing_goals,
		                      genre_selected, title_selected, created_at, updated_at)
		VALUES (:user_id, :display_name, :writing_frequency, :favorite_genres_json, :writing_goals,
		        :genre_selected, :title_selected, :created_at, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			writing_frequency = excluded.writing_frequency,
			favorite_genres_json = excluded.favorite_genres_json,
			writing_goals = excluded.writing_goals,
			genre_selected = MAX(profiles.genre_selected, excluded.genre_selected),
			title_selected = MAX(profiles.title_selected, excluded.title_selected),
			updated_at = excluded.updated_at`

	err = shared.RetryOnConflict(ctx, writeMaxRetries, writeBaseDelay, func() error {
		_, err := s.db.NamedExecContext(ctx, query, row)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)

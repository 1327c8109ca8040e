// Package api provides HTTP handlers for the StoryScribe API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/storyscribe/internal/config"
	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/store"
	"github.com/ashureev/storyscribe/internal/story"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Handler serves the story, prompt, profile and health endpoints.
type Handler struct {
	svc     *story.Service
	limiter *RateLimiter
	cfg     *config.Config
}

// NewHandler creates a Handler. A nil limiter disables prompt throttling.
func NewHandler(svc *story.Service, limiter *RateLimiter, cfg *config.Config) *Handler {
	return &Handler{
		svc:     svc,
		limiter: limiter,
		cfg:     cfg,
	}
}

// RegisterRoutes registers all API routes. identity.Middleware must run first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/users", h.CreateUser)
	r.Post("/token", h.Token)
	r.Get("/moods", h.Moods)
	r.Get("/genres", h.Genres)
	r.With(h.throttle).Get("/prompt", h.GetPrompt)

	r.Group(func(r chi.Router) {
		r.Use(identity.Require)
		r.Post("/stories", h.CreateStory)
		r.Get("/stories", h.ListStories)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.With(h.throttle).Get("/prompts/next", h.NextPrompt)
	})
}

func (h *Handler) throttle(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return h.limiter.Middleware(next)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *story.RejectedError
	switch {
	case errors.As(err, &rejected):
		JSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "content rejected",
			"issues": rejected.Issues,
		})
	case errors.Is(err, story.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		Error(w, http.StatusConflict, "already exists")
	default:
		slog.Error("Request failed", "path", r.URL.Path, "user_id", identity.UserIDFromContext(r.Context()), "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

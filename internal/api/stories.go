package api

import (
	"net/http"

	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/story"
)

// CreateStory stores a story for the caller.
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var in story.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.svc.CreateStory(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// ListStories returns the caller's stories, oldest first.
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	stories, err := h.svc.ListStories(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, stories)
}

package api

import (
	"net/http"

	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/ashureev/storyscribe/internal/story"
)

// GetPrompt returns a single prompt for ?genre=&mood=&preferences=.
// It always answers 200; completion failures surface in the error field.
func (h *Handler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gp := h.svc.GenrePrompt(r.Context(), prompting.GenreRequest{
		Genre:       q.Get("genre"),
		Mood:        q.Get("mood"),
		Preferences: q.Get("preferences"),
	})
	JSON(w, http.StatusOK, gp)
}

// NextPrompt returns the caller's next progressive prompt.
func (h *Handler) NextPrompt(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	q := r.URL.Query()

	res, err := h.svc.NextPrompt(r.Context(), userID, story.NextPromptOptions{
		Mood:        q.Get("mood"),
		Preferences: q.Get("preferences"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Moods lists the supported moods.
func (h *Handler) Moods(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, prompting.Moods())
}

// Genres lists the genres with a dedicated static prompt.
func (h *Handler) Genres(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, prompting.KnownGenres())
}

package api

import (
	"net/http"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/identity"
)

// GetProfile returns the caller's profile, with defaults when none is stored.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profile(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial profile update. Selection flags never revert.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), identity.UserIDFromContext(r.Context()), upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}

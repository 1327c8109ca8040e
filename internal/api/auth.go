package api

import (
	"net/http"
	"strings"

	"github.com/ashureev/storyscribe/internal/identity"
)

type createUserRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type tokenRequest struct {
	UserID string `json:"userId"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUser registers a profile. The user ID comes from the body, or the
// caller's identity when the body omits it.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = identity.UserIDFromContext(r.Context())
	}
	if !identity.IsValidID(userID) {
		Error(w, http.StatusBadRequest, "userId is missing or malformed")
		return
	}

	profile, err := h.svc.CreateUser(r.Context(), userID, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, profile)
}

// Token issues a demo bearer token. The token is the user ID itself;
// there is no authentication.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var userID string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		userID = r.FormValue("username")
	} else {
		var req tokenRequest
		if err := decodeJSON(w, r, &req); err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		userID = req.UserID
	}

	userID = strings.TrimSpace(userID)
	if !identity.IsValidID(userID) {
		Error(w, http.StatusBadRequest, "userId is missing or malformed")
		return
	}
	JSON(w, http.StatusOK, tokenResponse{AccessToken: userID, TokenType: "bearer"})
}

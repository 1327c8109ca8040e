package stream

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/ashureev/storyscribe/internal/story"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// Message types exchanged on the stream.
const (
	TypePrompt = "prompt"
	TypeNext   = "next"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
)

// Limiter throttles prompt generation per key.
type Limiter interface {
	Allow(key string) bool
}

// clientMessage is a request sent by the browser.
type clientMessage struct {
	Type        string `json:"type"`
	Genre       string `json:"genre,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}

type promptMessage struct {
	Type string `json:"type"`
	domain.GenrePrompt
}

type nextMessage struct {
	Type string `json:"type"`
	domain.PromptResult
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Handler upgrades requests to WebSocket prompt streams.
type Handler struct {
	svc            *story.Service
	sm             *SessionManager
	limiter        Limiter
	allowedOrigins []string
	isDev          bool
}

// NewHandler creates a stream handler. A nil limiter disables throttling.
func NewHandler(svc *story.Service, sm *SessionManager, limiter Limiter, allowedOrigins []string, isDev bool) *Handler {
	return &Handler{
		svc:            svc,
		sm:             sm,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Prompt stream request", "user_id", userID, "session_id", sessionID, "ip", r.RemoteAddr)

	if userID == "" {
		http.Error(w, identity.MissingIdentityMessage, http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.sm.Register(userID, sessionID, ws)
	defer h.sm.Unregister(userID, sessionID, ws)

	h.readLoop(r.Context(), ws, userID)
	slog.Info("Prompt stream ended", "user_id", userID, "session_id", sessionID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, userID string) {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		reply := h.dispatch(ctx, userID, msg)
		if err := h.write(ctx, ws, reply); err != nil {
			slog.Debug("WebSocket write error", "error", err, "user_id", userID)
			return
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, userID string, msg clientMessage) interface{} {
	switch msg.Type {
	case TypePing:
		return map[string]string{"type": TypePong}
	case TypePrompt, TypeNext:
		if h.limiter != nil && !h.limiter.Allow(userID) {
			return errorMessage{Type: TypeError, Error: "rate limit exceeded"}
		}
	default:
		return errorMessage{Type: TypeError, Error: "unknown message type: " + msg.Type}
	}

	if msg.Type == TypePrompt {
		gp := h.svc.GenrePrompt(ctx, prompting.GenreRequest{
			Genre:       msg.Genre,
			Mood:        msg.Mood,
			Preferences: msg.Preferences,
		})
		return promptMessage{Type: TypePrompt, GenrePrompt: gp}
	}

	res, err := h.svc.NextPrompt(ctx, userID, story.NextPromptOptions{
		Mood:        msg.Mood,
		Preferences: msg.Preferences,
	})
	if err != nil {
		slog.Error("Failed to generate next prompt", "user_id", userID, "error", err)
		return errorMessage{Type: TypeError, Error: "failed to generate prompt"}
	}
	return nextMessage{Type: TypeNext, PromptResult: res}
}

func (h *Handler) write(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

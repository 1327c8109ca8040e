// Package identity resolves the caller's demo identity from request headers.
//
// There is no authentication: the caller names itself with X-User-Id or a
// bearer token whose value is the user ID, as issued by POST /token.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	UserHeaderName        = "X-User-Id"
	SessionHeaderName     = "X-Session-Id"
	DefaultSessionIDValue = "default"

	// MissingIdentityMessage is the error returned when no identity is supplied.
	MissingIdentityMessage = "Missing X-User-Id (demo)"
	// MalformedIdentityMessage is returned when the supplied identity fails IsValidID.
	MalformedIdentityMessage = "Malformed X-User-Id (demo)"
)

type contextKey int

const (
	userIDKey contextKey = iota
	sessionIDKey
	malformedKey
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,128}$`)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext extracts the client session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

// IsValidID reports whether id is acceptable as a user or session ID.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

func userIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeaderName)); id != "" {
		return id
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func sessionIDFromRequest(r *http.Request) string {
	sid := strings.TrimSpace(r.Header.Get(SessionHeaderName))
	if sid == "" {
		sid = strings.TrimSpace(r.URL.Query().Get("session_id"))
	}
	if sid == "" || !IsValidID(sid) {
		return DefaultSessionIDValue
	}
	return sid
}

// Middleware injects the caller's user ID, when present and well formed, and
// a per-request session ID. A malformed ID is dropped and remembered so
// Require can report it. It never rejects a request; use Require for that.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := userIDFromRequest(r); userID != "" {
				if IsValidID(userID) {
					ctx = context.WithValue(ctx, userIDKey, userID)
				} else {
					ctx = context.WithValue(ctx, malformedKey, true)
				}
			}
			ctx = context.WithValue(ctx, sessionIDKey, sessionIDFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests without a resolved user ID with 401.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			msg := MissingIdentityMessage
			if malformed, _ := r.Context().Value(malformedKey).(bool); malformed {
				msg = MalformedIdentityMessage
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bryanwahyu/company-analyst/internal/session"
)

type contextKey string

const (
	SessionTokenKey contextKey = "session_token"
	UsernameKey     contextKey = "username"
)

// SessionAuth validates the bearer session token issued by the login
// endpoint and puts the token and username into the request context.
func SessionAuth(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <token>" and "<token>" formats
			token := strings.TrimPrefix(auth, "Bearer ")
			token = strings.TrimSpace(token)
			if token == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			st, ok := store.Get(token)
			if !ok {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionTokenKey, token)
			ctx = context.WithValue(ctx, UsernameKey, st.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the session token from context
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// UsernameFromContext extracts the authenticated username from context
func UsernameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(UsernameKey).(string); ok {
		return name
	}
	return ""
}

// AllowedUser reports whether username is on the static allow-list
// (case-insensitive, like the original login check).
func AllowedUser(allowed []string, username string) bool {
	for _, u := range allowed {
		if strings.EqualFold(strings.TrimSpace(username), u) {
			return true
		}
	}
	return false
}

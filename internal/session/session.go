// Package session carries the acting user through request contexts.
// Authentication is handled upstream; this package only transports the id.
package session

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

const (
	HeaderUserID = "X-User-ID"
	CookieUserID = "uid"
)

var validUserID = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,64}$`)

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the user stored in ctx, or "" when none.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// FromRequest resolves the user from the X-User-ID header, then the uid cookie,
// then fallback. Malformed ids are ignored.
func FromRequest(r *http.Request, fallback string) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderUserID)); validUserID.MatchString(v) {
		return v
	}
	if c, err := r.Cookie(CookieUserID); err == nil {
		if v := strings.TrimSpace(c.Value); validUserID.MatchString(v) {
			return v
		}
	}
	return fallback
}

// Middleware stores the resolved user in every request context
func Middleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := FromRequest(r, fallback)
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

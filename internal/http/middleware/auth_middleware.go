package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sandeepkv93/account-onboarding-service/internal/security"
)

type contextKey string

const sessionTokenContextKey contextKey = "session_token"

// SessionToken extracts the session token from the session cookie or a bearer
// Authorization header and stores it on the request context. It never
// rejects; handlers decide what an absent session means.
func SessionToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := SessionTokenFromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionTokenContextKey, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionTokenFromRequest(r *http.Request) string {
	if raw := security.GetCookie(r, security.SessionCookieName); raw != "" {
		return raw
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func SessionTokenFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(sessionTokenContextKey).(string)
	return raw
}

// Package middleware provides HTTP middleware for the preview server.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is an alternative to the Authorization header for scripts.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests that do not carry key as a Bearer token or in
// the X-API-Key header. An empty key disables the check.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validKey(presentedKey(r), key) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the key from "Authorization: Bearer <key>" or X-API-Key.
func presentedKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(APIKeyHeader)); v != "" {
		return v
	}
	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func validKey(got, want string) bool {
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

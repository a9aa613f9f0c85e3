// Package api holds the read-only HTTP reporting endpoints.
package api

import "net/http"

// RequireToken rejects requests without an "Authorization: Bearer <token>"
// header. An empty token disables the check.
func RequireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux mounts the reporting handlers behind the optional token.
func NewMux(fleet, trips http.Handler, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/fleet", RequireToken(token, fleet))
	mux.Handle("/api/trips", RequireToken(token, trips))
	return mux
}

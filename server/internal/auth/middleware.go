package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ModeAPIKey enables key checking.
const ModeAPIKey = "apikey"

// APIKey returns middleware that compares the value of header with key.
// With mode "apikey" and an empty key every request passes, and a warning is
// logged once when the middleware is built.
func APIKey(mode, header, key string) func(http.Handler) http.Handler {
	if mode == ModeAPIKey && key == "" {
		slog.Warn("auth: api key mode enabled but no key configured, admin endpoints are unprotected",
			"header", header,
		)
	}
	return func(next http.Handler) http.Handler {
		if mode != ModeAPIKey || key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				slog.Warn("auth: rejected request",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
					"request_id", middleware.GetReqID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

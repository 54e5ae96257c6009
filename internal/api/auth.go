package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// SecretEqual compares a caller-supplied secret against the configured one in
// constant time. Both sides are hashed first so neither the position of the
// first differing byte nor the secret's length shapes the comparison.
func SecretEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

// RequireWebhookSecret returns middleware that rejects requests whose
// ?secret= query parameter does not match the configured webhook secret.
// A missing parameter is compared as the empty string, never skipped.
func RequireWebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SecretEqual(r.URL.Query().Get("secret"), secret) {
				slog.Warn("Webhook rejected: bad secret", "path", r.URL.Path, "remote", r.RemoteAddr)
				Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

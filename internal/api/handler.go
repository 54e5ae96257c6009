// Package api provides HTTP handlers for the relay.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/meetsync/recall-relay/internal/feed"
	"github.com/meetsync/recall-relay/internal/store"
)

// Handler provides common handler dependencies.
type Handler struct {
	sessions store.SessionStore
	feed     *feed.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(sessions store.SessionStore, hub *feed.Hub) *Handler {
	return &Handler{sessions: sessions, feed: hub}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

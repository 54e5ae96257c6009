package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meetsync/recall-relay/internal/store"
)

// SessionHandler exposes read access to recorded per-bot state.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a session read handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers the session read routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/bots/{botID}", func(r chi.Router) {
		r.Get("/transcripts", h.GetTranscripts)
		r.Get("/chat", h.GetChatMessages)
	})
}

// GetTranscripts returns the bot's transcript fragments in arrival order.
// An unknown bot returns an empty list.
func (h *SessionHandler) GetTranscripts(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")

	transcripts, err := h.sessions.Transcripts(r.Context(), botID)
	if err != nil {
		slog.Error("Failed to read transcripts", "error", err, "bot_id", botID)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"bot_id":      botID,
		"transcripts": transcripts,
	})
}

// GetChatMessages returns the bot's chat messages in arrival order.
func (h *SessionHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")

	messages, err := h.sessions.ChatMessages(r.Context(), botID)
	if err != nil {
		slog.Error("Failed to read chat messages", "error", err, "bot_id", botID)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"bot_id":   botID,
		"messages": messages,
	})
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	sessions store.SessionStore
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions store.SessionStore) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"api": "ok"},
	}
	statusCode := http.StatusOK

	if err := h.sessions.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"].(map[string]string)["store"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["store"] = "ok"
	}

	JSON(w, statusCode, status)
}

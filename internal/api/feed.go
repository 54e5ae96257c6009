package api

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// FeedHandler streams transcript fragments to WebSocket subscribers.
type FeedHandler struct {
	*Handler
	allowedOrigin string
	isDev         bool
}

// NewFeedHandler creates a live transcript feed handler.
func NewFeedHandler(base *Handler, allowedOrigin string, isDev bool) *FeedHandler {
	return &FeedHandler{Handler: base, allowedOrigin: allowedOrigin, isDev: isDev}
}

// RegisterRoutes registers the WebSocket feed route.
func (h *FeedHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/transcripts/{botID}", h.ServeHTTP)
}

// ServeHTTP upgrades the connection and streams each transcript fragment for
// the bot as it arrives, until the client disconnects.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")
	if botID == "" {
		Error(w, http.StatusBadRequest, "bot id required")
		return
	}
	slog.Info("Transcript feed connection request", "bot_id", botID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "bot_id", botID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "bot_id", botID)
		}
	}()

	fragments, cancelSub := h.feed.Subscribe(botID)
	defer cancelSub()

	// The client sends nothing; CloseRead surfaces its disconnect as ctx
	// cancellation.
	ctx := ws.CloseRead(r.Context())

	for {
		select {
		case fragment := <-fragments:
			if err := ws.Write(ctx, websocket.MessageText, fragment); err != nil {
				slog.Debug("Transcript feed write failed", "error", err, "bot_id", botID)
				return
			}
		case <-ctx.Done():
			slog.Info("Transcript feed ended", "bot_id", botID)
			return
		}
	}
}

func (h *FeedHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("Feed origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

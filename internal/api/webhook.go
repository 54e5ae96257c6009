package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meetsync/recall-relay/internal/domain"
	"github.com/meetsync/recall-relay/internal/privacy"
)

const (
	// eventChatMessage is the platform's event kind for in-meeting chat.
	eventChatMessage = "bot.chat_message"

	// triggerWord is the chat command that pauses the recording.
	triggerWord = "private"
)

// PauseResumer runs the timed pause/resume workflow for a bot.
type PauseResumer interface {
	Run(ctx context.Context, botID string) error
}

// WebhookHandler handles inbound webhooks from the bot platform.
type WebhookHandler struct {
	*Handler
	orchestrator PauseResumer
	runTimeout   time.Duration
	secret       string
}

// NewWebhookHandler creates a webhook handler. runTimeout bounds a background
// pause/resume workflow end to end, so it must exceed the pause window.
func NewWebhookHandler(base *Handler, orchestrator PauseResumer, secret string, runTimeout time.Duration) *WebhookHandler {
	return &WebhookHandler{
		Handler:      base,
		orchestrator: orchestrator,
		runTimeout:   runTimeout,
		secret:       secret,
	}
}

// RegisterRoutes registers the webhook routes. Every route in the group goes
// through the shared-secret check before any handler runs.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireWebhookSecret(h.secret))
		r.Post("/transcription", h.Transcription)
		r.Post("/chat", h.Chat)
	})
}

// transcriptionPayload is the body of a real-time transcription webhook.
type transcriptionPayload struct {
	Data struct {
		BotID      string                    `json:"bot_id"`
		Transcript domain.TranscriptFragment `json:"transcript"`
	} `json:"data"`
}

// Transcription records a transcript fragment for a bot.
func (h *WebhookHandler) Transcription(w http.ResponseWriter, r *http.Request) {
	var payload transcriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if payload.Data.BotID == "" {
		Error(w, http.StatusBadRequest, "Missing bot_id")
		return
	}

	if err := h.sessions.AppendTranscript(r.Context(), payload.Data.BotID, payload.Data.Transcript); err != nil {
		slog.Error("Failed to record transcript fragment", "error", err, "bot_id", payload.Data.BotID)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.feed.Publish(payload.Data.BotID, payload.Data.Transcript)

	slog.Info("Transcript fragment recorded", "bot_id", payload.Data.BotID)
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// chatPayload is the body of a chat webhook. Data stays a pointer so a
// missing object is distinguishable from an empty one.
type chatPayload struct {
	Event string    `json:"event"`
	Data  *chatData `json:"data"`
}

type chatData struct {
	BotID  string        `json:"bot_id"`
	Sender domain.Sender `json:"sender"`
	Text   string        `json:"text"`
}

// Chat records a chat message for a bot and, on the trigger command, starts
// the pause/resume workflow in the background. The webhook acknowledges
// success once the message is recorded — workflow failures never surface to
// the platform, which would otherwise re-deliver.
func (h *WebhookHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if payload.Event != eventChatMessage || payload.Data == nil {
		slog.Info("Ignoring non-chat event", "event", payload.Event)
		JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Ignored non-chat event",
		})
		return
	}

	if payload.Data.BotID == "" {
		slog.Warn("Chat webhook missing bot_id")
		Error(w, http.StatusBadRequest, "Missing bot_id")
		return
	}

	botID := payload.Data.BotID
	msg := domain.ChatMessage{Sender: payload.Data.Sender, Text: payload.Data.Text}

	if err := h.sessions.AppendChatMessage(r.Context(), botID, msg); err != nil {
		slog.Error("Failed to record chat message", "error", err, "bot_id", botID)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	slog.Info("Chat message recorded", "bot_id", botID, "sender", msg.Sender.Name)

	if strings.EqualFold(payload.Data.Text, triggerWord) {
		slog.Info("Private command received, pausing recording", "bot_id", botID, "sender", msg.Sender.Name)
		h.startPauseResume(botID)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// startPauseResume kicks off the workflow on its own goroutine with a context
// detached from the request, so the webhook response never waits on it and a
// closed request body can't cancel it mid-pause.
func (h *WebhookHandler) startPauseResume(botID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()

		err := h.orchestrator.Run(ctx, botID)
		switch {
		case err == nil:
		case errors.Is(err, privacy.ErrWorkflowInFlight):
			slog.Info("Pause/resume skipped, workflow already running", "bot_id", botID)
		default:
			slog.Error("Pause/resume workflow failed", "error", err, "bot_id", botID)
		}
	}()
}

// Package privacy implements the timed pause/resume workflow triggered by the
// in-meeting "private" chat command.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetsync/recall-relay/internal/recall"
)

const (
	pausedAnnouncement  = "The recording has been paused for 30 seconds."
	resumedAnnouncement = "The recording has been resumed."
)

// ErrWorkflowInFlight is returned when a pause/resume workflow is already
// running for the bot. Overlapping triggers are skipped, not queued: a second
// "private" during the pause window would otherwise interleave pause and
// resume calls on the same bot.
var ErrWorkflowInFlight = errors.New("pause/resume workflow already in flight for bot")

// Orchestrator runs one pause → wait → resume sequence per trigger.
type Orchestrator struct {
	api      recall.API
	pauseFor time.Duration

	// inflight holds one *sync.Mutex per bot to enforce a single running
	// workflow per bot.
	inflight sync.Map
}

// NewOrchestrator creates an orchestrator that suspends recording for
// pauseFor between the pause and resume calls.
func NewOrchestrator(api recall.API, pauseFor time.Duration) *Orchestrator {
	return &Orchestrator{api: api, pauseFor: pauseFor}
}

// Run executes the full workflow for the bot: pause the recording, announce
// the pause in chat, wait, resume, announce the resume. The first failing
// step aborts the remainder and is returned; a failed resume leaves the bot
// paused. Run blocks for the whole pause window, so callers that must stay
// responsive run it on its own goroutine.
func (o *Orchestrator) Run(ctx context.Context, botID string) error {
	lock, _ := o.inflight.LoadOrStore(botID, &sync.Mutex{})
	mutex := lock.(*sync.Mutex)
	if !mutex.TryLock() {
		return fmt.Errorf("%w: %s", ErrWorkflowInFlight, botID)
	}
	defer func() {
		mutex.Unlock()
		o.inflight.Delete(botID)
	}()

	workflowID := uuid.NewString()
	log := slog.With("bot_id", botID, "workflow_id", workflowID)
	log.Info("Pause/resume workflow started", "pause_for", o.pauseFor)

	if err := o.api.PauseRecording(ctx, botID); err != nil {
		return fmt.Errorf("pause recording for bot %s: %w", botID, err)
	}
	log.Info("Recording paused")

	if err := o.api.SendChatMessage(ctx, botID, pausedAnnouncement); err != nil {
		return fmt.Errorf("announce pause for bot %s: %w", botID, err)
	}

	// The wait is a timer select, never a lock held across the window, so
	// webhook handling for other bots (and this one) continues meanwhile.
	timer := time.NewTimer(o.pauseFor)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return fmt.Errorf("wait before resume for bot %s: %w", botID, ctx.Err())
	}

	if err := o.api.ResumeRecording(ctx, botID); err != nil {
		return fmt.Errorf("resume recording for bot %s: %w", botID, err)
	}
	log.Info("Recording resumed")

	if err := o.api.SendChatMessage(ctx, botID, resumedAnnouncement); err != nil {
		return fmt.Errorf("announce resume for bot %s: %w", botID, err)
	}

	log.Info("Pause/resume workflow completed")
	return nil
}

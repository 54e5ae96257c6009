package privacy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeAPI records outbound platform calls and can fail a chosen step.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	failCall string
	started  chan struct{} // if set, closed when PauseRecording is entered
	block    chan struct{} // if set, PauseRecording waits on it
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failCall == call {
		return fmt.Errorf("platform rejected %s", call)
	}
	return nil
}

func (f *fakeAPI) PauseRecording(_ context.Context, botID string) error {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	return f.record("pause:" + botID)
}

func (f *fakeAPI) ResumeRecording(_ context.Context, botID string) error {
	return f.record("resume:" + botID)
}

func (f *fakeAPI) SendChatMessage(_ context.Context, botID, message string) error {
	return f.record("chat:" + botID + ":" + message)
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestRunExecutesFullSequence(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrchestrator(api, 10*time.Millisecond)

	if err := o.Run(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"pause:b1",
		"chat:b1:" + pausedAnnouncement,
		"resume:b1",
		"chat:b1:" + resumedAnnouncement,
	}
	got := api.recorded()
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRunAbortsWhenPauseFails(t *testing.T) {
	api := &fakeAPI{failCall: "pause:b1"}
	o := NewOrchestrator(api, time.Millisecond)

	err := o.Run(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := api.recorded(); len(got) != 1 {
		t.Fatalf("expected no calls after the failed pause, got %v", got)
	}
}

func TestRunLeavesBotPausedWhenResumeFails(t *testing.T) {
	api := &fakeAPI{failCall: "resume:b1"}
	o := NewOrchestrator(api, time.Millisecond)

	err := o.Run(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected an error")
	}

	got := api.recorded()
	if len(got) != 3 {
		t.Fatalf("expected pause, announce, resume attempt, got %v", got)
	}
	for _, call := range got {
		if call == "chat:b1:"+resumedAnnouncement {
			t.Errorf("resumed announcement sent despite failed resume: %v", got)
		}
	}
}

func TestRunRejectsOverlappingWorkflowForSameBot(t *testing.T) {
	started := make(chan struct{})
	api := &fakeAPI{started: started, block: make(chan struct{})}
	o := NewOrchestrator(api, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- o.Run(context.Background(), "b1")
	}()

	// Wait for the first workflow to hold the bot's lock.
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first workflow never started")
	}

	if err := o.Run(context.Background(), "b1"); !errors.Is(err, ErrWorkflowInFlight) {
		t.Fatalf("expected ErrWorkflowInFlight, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first workflow failed: %v", err)
	}

	// The lock is released, so a later trigger starts a fresh workflow.
	if err := o.Run(context.Background(), "b1"); err != nil {
		t.Fatalf("workflow after completion failed: %v", err)
	}
}

func TestRunStopsWaitingWhenContextCanceled(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrchestrator(api, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.Run(ctx, "b1")
	}()

	// Let the workflow reach the wait, then cancel.
	deadline := time.After(time.Second)
	for len(api.recorded()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("workflow never reached the wait: %v", api.recorded())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, call := range api.recorded() {
		if call == "resume:b1" {
			t.Error("resume issued after cancellation")
		}
	}
}

package recall

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   string
}

// newTestClient returns a Client pointed at a local server that records every
// request and answers with the given status.
func newTestClient(t *testing.T, status int) (*Client, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{APIBase: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]recordedRequest, len(requests))
		copy(out, requests)
		return out
	}
}

func TestPauseAndResumeHitPlatformPaths(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK)

	if err := client.PauseRecording(context.Background(), "bot-42"); err != nil {
		t.Fatalf("PauseRecording failed: %v", err)
	}
	if err := client.ResumeRecording(context.Background(), "bot-42"); err != nil {
		t.Fatalf("ResumeRecording failed: %v", err)
	}

	reqs := recorded()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].path != "/api/v1/bot/bot-42/pause_recording" {
		t.Errorf("unexpected pause path %q", reqs[0].path)
	}
	if reqs[1].path != "/api/v1/bot/bot-42/resume_recording" {
		t.Errorf("unexpected resume path %q", reqs[1].path)
	}
	for _, req := range reqs {
		if req.method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.method)
		}
		if req.auth != "Token test-token" {
			t.Errorf("unexpected authorization header %q", req.auth)
		}
	}
}

func TestSendChatMessageBody(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusCreated)

	if err := client.SendChatMessage(context.Background(), "bot-42", "hello"); err != nil {
		t.Fatalf("SendChatMessage failed: %v", err)
	}

	reqs := recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].path != "/api/v1/bot/bot-42/send_chat_message/" {
		t.Errorf("unexpected path %q", reqs[0].path)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(reqs[0].body), &body); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	if body["to"] != "everyone" {
		t.Errorf("expected to=everyone, got %q", body["to"])
	}
	if body["message"] != "hello" {
		t.Errorf("expected message=hello, got %q", body["message"])
	}
}

func TestErrorCarriesStatus(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadGateway)

	err := client.PauseRecording(context.Background(), "bot-42")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("expected the status in the error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Token: "t"}); err == nil {
		t.Error("expected an error for a missing base URL")
	}
	if _, err := NewClient(ClientConfig{APIBase: "https://example.com"}); err == nil {
		t.Error("expected an error for a missing token")
	}
}

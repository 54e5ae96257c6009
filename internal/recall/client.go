// Package recall provides the outbound client for the meeting-bot platform API.
package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 1 << 20
)

// API is the narrow capability surface the webhook handlers and the
// pause/resume orchestrator need from the bot platform.
type API interface {
	// PauseRecording pauses the bot's recording.
	PauseRecording(ctx context.Context, botID string) error

	// ResumeRecording resumes the bot's recording.
	ResumeRecording(ctx context.Context, botID string) error

	// SendChatMessage posts a message to everyone in the meeting chat.
	SendChatMessage(ctx context.Context, botID, message string) error
}

// HTTPDoer abstracts the HTTP transport so tests can inject a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	apiBase    string
	token      string
	httpClient HTTPDoer
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// APIBase is the platform base URL, e.g. "https://us-east-1.recall.ai".
	APIBase string
	// Token is the platform API token.
	Token string
	// Timeout bounds each outbound request. Zero means the default.
	Timeout time.Duration
	// HTTPClient overrides the transport; nil means a timeout-bound default.
	HTTPClient HTTPDoer
}

// NewClient creates a platform API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("api token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiBase:    base,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
	}, nil
}

// Ensure Client implements the API interface.
var _ API = (*Client)(nil)

// PauseRecording pauses the bot's recording.
func (c *Client) PauseRecording(ctx context.Context, botID string) error {
	path := fmt.Sprintf("/api/v1/bot/%s/pause_recording", url.PathEscape(botID))
	return c.post(ctx, path, nil)
}

// ResumeRecording resumes the bot's recording.
func (c *Client) ResumeRecording(ctx context.Context, botID string) error {
	path := fmt.Sprintf("/api/v1/bot/%s/resume_recording", url.PathEscape(botID))
	return c.post(ctx, path, nil)
}

// SendChatMessage posts a message to everyone in the meeting chat.
func (c *Client) SendChatMessage(ctx context.Context, botID, message string) error {
	path := fmt.Sprintf("/api/v1/bot/%s/send_chat_message/", url.PathEscape(botID))
	body := map[string]string{
		"to":      "everyone",
		"message": message,
	}
	return c.post(ctx, path, body)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded chunk of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
		return fmt.Errorf("POST %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	// Drain so the transport can reuse the connection.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
	return nil
}

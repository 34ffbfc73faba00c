// Package push sends notifications to devices through the Expo push
// service.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is a single Expo push notification.
type Message struct {
	To    string         `json:"to"`
	Sound string         `json:"sound"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers a push notification to a device token.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ExpoClient talks to the Expo push HTTP endpoint.
type ExpoClient struct {
	url    string
	client *http.Client
}

var _ Sender = (*ExpoClient)(nil)

// NewExpoClient creates a client for the given push endpoint URL. Every
// request is bounded by timeout.
func NewExpoClient(url string, timeout time.Duration) *ExpoClient {
	return &ExpoClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts a single notification. Expo accepts an array of messages,
// so the payload is wrapped in a one-element slice.
func (c *ExpoClient) Send(ctx context.Context, msg Message) error {
	if msg.Sound == "" {
		msg.Sound = "default"
	}

	payload, err := json.Marshal([]Message{msg})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Package crm forwards dialog lifecycle notifications to an external CRM
// webhook. Delivery is fire-and-forget: routing never waits on the CRM.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const requestTimeout = 3 * time.Second

// Event is one dialog notification pushed to the CRM.
type Event struct {
	Type           string    `json:"type"`
	DialogID       int64     `json:"dialog_id"`
	BotID          int64     `json:"bot_id"`
	ChannelType    string    `json:"channel_type"`
	ExternalChatID string    `json:"external_chat_id"`
	Status         string    `json:"status"`
	Text           string    `json:"text,omitempty"`
	DialogCreated  bool      `json:"dialog_created,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Client posts events to the configured webhook. A client with an empty URL
// is a no-op.
type Client struct {
	url    string
	logger *slog.Logger
	client *http.Client
}

// NewClient creates a CRM client. url may be empty to disable forwarding.
func NewClient(log *slog.Logger, url string) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:    url,
		logger: log.With(slog.String("service", "crm")),
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Notify delivers the event in the background. Failures are logged and
// dropped.
func (c *Client) Notify(event Event) {
	if c.url == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		payload, _ := json.Marshal(event)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			c.logger.Warn("crm request build failed", slog.String("error", err.Error()))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.Warn("crm notify failed",
				slog.String("type", event.Type),
				slog.Int64("dialog_id", event.DialogID),
				slog.String("error", err.Error()))
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			c.logger.Warn("crm notify rejected",
				slog.String("type", event.Type),
				slog.Int64("dialog_id", event.DialogID),
				slog.Int("status", resp.StatusCode))
		}
	}()
}

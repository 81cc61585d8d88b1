// Package max adapts the Max messenger Bot API.
package max

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deskrelay/deskrelay/internal/channel"
)

const defaultBaseURL = "https://botapi.max.ru"

// WebhookTokenHeader carries the shared secret on webhook calls.
const WebhookTokenHeader = "X-Webhook-Token"

// Config is the bot_channels config shape for Max.
type Config struct {
	BaseURL       string `json:"base_url"`
	AccessToken   string `json:"access_token"`
	WebhookSecret string `json:"webhook_secret"`
}

// Adapter normalizes Max webhook updates and delivers replies through the
// Bot API.
type Adapter struct {
	logger *slog.Logger
	client *http.Client
}

// New creates a Max adapter.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "max")),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return channel.TypeMax
}

// DefaultConfig seeds a generated webhook secret.
func (a *Adapter) DefaultConfig() map[string]any {
	return map[string]any{
		"access_token":   "",
		"webhook_secret": uuid.NewString(),
	}
}

// VerifyWebhook checks the webhook token header.
func (a *Adapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	return r.Header.Get(WebhookTokenHeader) == cfg.WebhookSecret
}

type maxUpdate struct {
	UpdateType string `json:"update_type"`
	Timestamp  int64  `json:"timestamp"`
	Message    struct {
		Sender struct {
			UserID int64  `json:"user_id"`
			Name   string `json:"name"`
		} `json:"sender"`
		Recipient struct {
			ChatID int64 `json:"chat_id"`
		} `json:"recipient"`
		Body struct {
			Mid  string `json:"mid"`
			Text string `json:"text"`
		} `json:"body"`
	} `json:"message"`
}

// Normalize maps a message_created update to routing input.
func (a *Adapter) Normalize(body []byte) channel.IncomingMessage {
	var update maxUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return channel.Skipped(channel.TypeMax, channel.SkipMalformed)
	}
	if update.UpdateType != "message_created" {
		return channel.Skipped(channel.TypeMax, channel.SkipEmptyUpdate)
	}
	if strings.TrimSpace(update.Message.Body.Text) == "" {
		return channel.Skipped(channel.TypeMax, channel.SkipEmptyUpdate)
	}

	received := time.Now().UTC()
	if update.Timestamp > 0 {
		received = time.UnixMilli(update.Timestamp).UTC()
	}
	return channel.IncomingMessage{
		Channel:           channel.TypeMax,
		ExternalChatID:    strconv.FormatInt(update.Message.Recipient.ChatID, 10),
		ExternalUserID:    strconv.FormatInt(update.Message.Sender.UserID, 10),
		ExternalMessageID: update.Message.Body.Mid,
		UserDisplayName:   update.Message.Sender.Name,
		Text:              update.Message.Body.Text,
		ReceivedAt:        received,
	}
}

// Send posts text to the chat through the Bot API messages endpoint.
func (a *Adapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse max config: %w", err)
	}
	if cfg.AccessToken == "" {
		return channel.SendResult{}, fmt.Errorf("max access token is not configured")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	q := url.Values{
		"access_token": {cfg.AccessToken},
		"chat_id":      {msg.ExternalChatID},
	}
	payload, _ := json.Marshal(map[string]string{"text": msg.Text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/messages?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return channel.SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res := channel.SendResult{Endpoint: "/messages"}
	resp, err := a.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("max send: %w", err)
	}
	defer resp.Body.Close()
	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("max send: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Message struct {
			Body struct {
				Mid string `json:"mid"`
			} `json:"body"`
		} `json:"message"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &out)
	}
	res.ExternalMessageID = out.Message.Body.Mid
	return res, nil
}

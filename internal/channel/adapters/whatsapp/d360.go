package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/deskrelay/deskrelay/internal/channel"
)

const d360DefaultBaseURL = "https://waba.360dialog.io"

// D360APIKeyHeader authenticates both directions of the 360dialog integration.
const D360APIKeyHeader = "D360-API-KEY"

// D360Config is the bot_channels config shape for 360dialog.
type D360Config struct {
	BaseURL       string `json:"base_url"`
	APIKey        string `json:"api_key"`
	WebhookSecret string `json:"webhook_secret"`
}

// D360Adapter integrates the 360dialog WhatsApp Business API.
type D360Adapter struct {
	logger *slog.Logger
	client *http.Client
}

// NewD360 creates a 360dialog adapter.
func NewD360(log *slog.Logger) *D360Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &D360Adapter{
		logger: log.With(slog.String("adapter", "whatsapp_360")),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *D360Adapter) Type() channel.ChannelType {
	return channel.TypeWhatsApp360
}

// VerifyWebhook checks the API key header 360dialog forwards on webhook calls.
func (a *D360Adapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg D360Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	return r.Header.Get(D360APIKeyHeader) == cfg.WebhookSecret
}

type d360Webhook struct {
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	envelope
}

// Normalize maps a message notification to routing input. The webhook may
// carry a messages array, a single message object, or a gateway relay with
// the text hoisted to the top level; status callbacks carry none of those
// and are skipped.
func (a *D360Adapter) Normalize(body []byte) channel.IncomingMessage {
	var wh d360Webhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return channel.Skipped(channel.TypeWhatsApp360, channel.SkipMalformed)
	}
	text, userID, messageID, ts := wh.extract()
	if strings.TrimSpace(text) == "" {
		return channel.Skipped(channel.TypeWhatsApp360, channel.SkipEmptyUpdate)
	}

	received := time.Now().UTC()
	if sec, err := strconv.ParseInt(ts, 10, 64); err == nil && sec > 0 {
		received = time.Unix(sec, 0).UTC()
	}
	out := channel.IncomingMessage{
		Channel:           channel.TypeWhatsApp360,
		ExternalChatID:    userID,
		ExternalUserID:    userID,
		ExternalMessageID: messageID,
		Text:              text,
		ReceivedAt:        received,
	}
	if len(wh.Contacts) > 0 {
		out.UserDisplayName = wh.Contacts[0].Profile.Name
	}
	return out
}

// Send posts text through the v1 messages endpoint.
func (a *D360Adapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg D360Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse 360dialog config: %w", err)
	}
	if cfg.APIKey == "" {
		return channel.SendResult{}, fmt.Errorf("360dialog api key is not configured")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = d360DefaultBaseURL
	}

	payload, _ := json.Marshal(map[string]any{
		"to":   msg.ExternalChatID,
		"type": "text",
		"text": map[string]string{"body": msg.Text},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return channel.SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(D360APIKeyHeader, cfg.APIKey)

	res := channel.SendResult{Endpoint: "/v1/messages"}
	resp, err := a.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("360dialog send: %w", err)
	}
	defer resp.Body.Close()
	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode >= http.StatusMultipleChoices {
		return res, fmt.Errorf("360dialog send: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &out)
	}
	if len(out.Messages) > 0 {
		res.ExternalMessageID = out.Messages[0].ID
	}
	return res, nil
}

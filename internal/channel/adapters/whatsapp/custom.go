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

// CustomConfig is the bot_channels config shape for self-hosted WhatsApp
// gateways. Header and payload field names are configurable because every
// gateway picks its own.
type CustomConfig struct {
	BaseURL        string `json:"base_url"`
	APIKeyHeader   string `json:"api_key_header"`
	APIKey         string `json:"api_key"`
	WebhookHeader  string `json:"webhook_header"`
	WebhookSecret  string `json:"webhook_secret"`
	ChatIDField    string `json:"chat_id_field"`
	UserIDField    string `json:"user_id_field"`
	TextField      string `json:"text_field"`
	MessageIDField string `json:"message_id_field"`
}

func (c CustomConfig) fieldNames() (chatID, userID, text, messageID string) {
	chatID, userID, text, messageID = c.ChatIDField, c.UserIDField, c.TextField, c.MessageIDField
	if chatID == "" {
		chatID = "chat_id"
	}
	if userID == "" {
		userID = "user_id"
	}
	if text == "" {
		text = "text"
	}
	if messageID == "" {
		messageID = "message_id"
	}
	return chatID, userID, text, messageID
}

// CustomAdapter integrates self-hosted WhatsApp gateways that speak the plain
// chat_id/text JSON shape.
type CustomAdapter struct {
	logger *slog.Logger
	client *http.Client
}

// NewCustom creates a custom-gateway adapter.
func NewCustom(log *slog.Logger) *CustomAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &CustomAdapter{
		logger: log.With(slog.String("adapter", "whatsapp_custom")),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *CustomAdapter) Type() channel.ChannelType {
	return channel.TypeWhatsAppCustom
}

// DefaultConfig seeds the header names so a fresh channel only needs URL and
// keys filled in.
func (a *CustomAdapter) DefaultConfig() map[string]any {
	return map[string]any{
		"base_url":         "",
		"api_key_header":   "X-Api-Key",
		"api_key":          "",
		"webhook_header":   "X-Webhook-Secret",
		"webhook_secret":   "",
		"chat_id_field":    "chat_id",
		"user_id_field":    "user_id",
		"text_field":       "text",
		"message_id_field": "message_id",
	}
}

// VerifyWebhook checks the configured secret header.
func (a *CustomAdapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg CustomConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	header := cfg.WebhookHeader
	if header == "" {
		header = "X-Webhook-Secret"
	}
	return r.Header.Get(header) == cfg.WebhookSecret
}

// Normalize maps the gateway's flat JSON shape with the default field names.
func (a *CustomAdapter) Normalize(body []byte) channel.IncomingMessage {
	return a.NormalizeWithConfig(nil, body)
}

// NormalizeWithConfig maps the gateway's flat JSON shape to routing input.
// The payload field names come from the channel config so gateways with
// their own vocabulary do not need a translation proxy in front.
func (a *CustomAdapter) NormalizeWithConfig(config []byte, body []byte) channel.IncomingMessage {
	var cfg CustomConfig
	if len(config) > 0 {
		_ = json.Unmarshal(config, &cfg)
	}
	chatIDField, userIDField, textField, messageIDField := cfg.fieldNames()

	var wh map[string]any
	if err := json.Unmarshal(body, &wh); err != nil {
		return channel.Skipped(channel.TypeWhatsAppCustom, channel.SkipMalformed)
	}
	chatID := stringField(wh, chatIDField)
	if chatID == "" {
		return channel.Skipped(channel.TypeWhatsAppCustom, channel.SkipEmptyUpdate)
	}
	text := stringField(wh, textField)
	if strings.TrimSpace(text) == "" {
		return channel.Skipped(channel.TypeWhatsAppCustom, channel.SkipEmptyUpdate)
	}
	userID := stringField(wh, userIDField)
	if userID == "" {
		userID = chatID
	}
	return channel.IncomingMessage{
		Channel:           channel.TypeWhatsAppCustom,
		ExternalChatID:    chatID,
		ExternalUserID:    userID,
		ExternalMessageID: stringField(wh, messageIDField),
		UserDisplayName:   stringField(wh, "user_name"),
		Text:              text,
		ReceivedAt:        time.Now().UTC(),
	}
}

// stringField reads a payload value as a string; numeric ids are common in
// gateway payloads and are rendered without an exponent.
func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Send posts text to the gateway's send endpoint.
func (a *CustomAdapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg CustomConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse custom gateway config: %w", err)
	}
	if cfg.BaseURL == "" {
		return channel.SendResult{}, fmt.Errorf("custom gateway base url is not configured")
	}

	payload, _ := json.Marshal(map[string]string{
		"chat_id": msg.ExternalChatID,
		"text":    msg.Text,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/send", bytes.NewReader(payload))
	if err != nil {
		return channel.SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		header := cfg.APIKeyHeader
		if header == "" {
			header = "X-Api-Key"
		}
		req.Header.Set(header, cfg.APIKey)
	}

	res := channel.SendResult{Endpoint: "/send"}
	resp, err := a.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("custom gateway send: %w", err)
	}
	defer resp.Body.Close()
	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode >= http.StatusMultipleChoices {
		return res, fmt.Errorf("custom gateway send: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		MessageID string `json:"message_id"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &out)
	}
	res.ExternalMessageID = out.MessageID
	return res, nil
}

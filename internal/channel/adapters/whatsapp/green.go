// Package whatsapp adapts the WhatsApp providers the service routes through:
// Green API, 360dialog, and self-hosted gateways with a compatible JSON shape.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/deskrelay/deskrelay/internal/channel"
)

const greenDefaultBaseURL = "https://api.green-api.com"

// GreenConfig is the bot_channels config shape for Green API.
type GreenConfig struct {
	BaseURL       string `json:"base_url"`
	InstanceID    string `json:"instance_id"`
	APIToken      string `json:"api_token"`
	WebhookSecret string `json:"webhook_secret"`
}

// GreenAdapter integrates the Green API WhatsApp gateway.
type GreenAdapter struct {
	logger *slog.Logger
	client *http.Client
}

// NewGreen creates a Green API adapter.
func NewGreen(log *slog.Logger) *GreenAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &GreenAdapter{
		logger: log.With(slog.String("adapter", "whatsapp_green")),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *GreenAdapter) Type() channel.ChannelType {
	return channel.TypeWhatsAppGreen
}

// VerifyWebhook checks the secret query parameter on webhook calls. Green API
// does not sign requests, so the secret rides in the callback URL.
func (a *GreenAdapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg GreenConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	return r.URL.Query().Get("secret") == cfg.WebhookSecret
}

type greenWebhook struct {
	TypeWebhook string `json:"typeWebhook"`
	IDMessage   string `json:"idMessage"`
	Timestamp   int64  `json:"timestamp"`
	SenderData  struct {
		ChatID     string `json:"chatId"`
		Sender     string `json:"sender"`
		SenderName string `json:"senderName"`
	} `json:"senderData"`
	MessageData struct {
		TypeMessage     string `json:"typeMessage"`
		TextMessageData struct {
			TextMessage string `json:"textMessage"`
		} `json:"textMessageData"`
		ExtendedTextMessageData struct {
			Text string `json:"text"`
		} `json:"extendedTextMessageData"`
	} `json:"messageData"`
}

// Normalize maps an incomingMessageReceived notification to routing input.
// State, status, and outgoing notifications are skipped. Notifications
// without a typeWebhook marker are treated as the gateway relay envelope.
func (a *GreenAdapter) Normalize(body []byte) channel.IncomingMessage {
	var wh greenWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipMalformed)
	}
	switch wh.TypeWebhook {
	case "incomingMessageReceived":
	case "outgoingMessageReceived", "outgoingAPIMessageReceived":
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipOutgoingMessage)
	case "":
		return a.normalizeEnvelope(body)
	default:
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipEmptyUpdate)
	}

	text := wh.MessageData.TextMessageData.TextMessage
	if text == "" {
		text = wh.MessageData.ExtendedTextMessageData.Text
	}
	if strings.TrimSpace(text) == "" {
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipEmptyUpdate)
	}

	received := time.Now().UTC()
	if wh.Timestamp > 0 {
		received = time.Unix(wh.Timestamp, 0).UTC()
	}
	return channel.IncomingMessage{
		Channel:           channel.TypeWhatsAppGreen,
		ExternalChatID:    wh.SenderData.ChatID,
		ExternalUserID:    wh.SenderData.Sender,
		ExternalMessageID: wh.IDMessage,
		UserDisplayName:   wh.SenderData.SenderName,
		Text:              text,
		ReceivedAt:        received,
	}
}

func (a *GreenAdapter) normalizeEnvelope(body []byte) channel.IncomingMessage {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipMalformed)
	}
	text, userID, messageID, _ := env.extract()
	if strings.TrimSpace(text) == "" {
		return channel.Skipped(channel.TypeWhatsAppGreen, channel.SkipEmptyUpdate)
	}
	return channel.IncomingMessage{
		Channel:           channel.TypeWhatsAppGreen,
		ExternalChatID:    userID,
		ExternalUserID:    userID,
		ExternalMessageID: messageID,
		Text:              text,
		ReceivedAt:        time.Now().UTC(),
	}
}

// Send posts text through the instance sendMessage endpoint.
func (a *GreenAdapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg GreenConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse green config: %w", err)
	}
	if cfg.InstanceID == "" || cfg.APIToken == "" {
		return channel.SendResult{}, fmt.Errorf("green api instance is not configured")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = greenDefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", baseURL, cfg.InstanceID, cfg.APIToken)

	payload, _ := json.Marshal(map[string]string{
		"chatId":  msg.ExternalChatID,
		"message": msg.Text,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return channel.SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res := channel.SendResult{Endpoint: "sendMessage"}
	resp, err := a.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("green send: %w", err)
	}
	defer resp.Body.Close()
	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("green send: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		IDMessage string `json:"idMessage"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &out)
	}
	res.ExternalMessageID = out.IDMessage
	return res, nil
}

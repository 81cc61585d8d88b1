// Package avito adapts the Avito messenger API.
package avito

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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskrelay/deskrelay/internal/channel"
)

const defaultBaseURL = "https://api.avito.ru"

const (
	webhookSubscribePath   = "/messenger/v3/webhook"
	webhookUnsubscribePath = "/messenger/v1/webhook/unsubscribe"
)

// tokenMargin is subtracted from expires_in so a token is refreshed before
// the provider actually rejects it.
const tokenMargin = 30 * time.Second

// Config is the bot_channels config shape for Avito.
type Config struct {
	BaseURL        string  `json:"base_url"`
	ClientID       string  `json:"client_id"`
	ClientSecret   string  `json:"client_secret"`
	UserID         int64   `json:"user_id"`
	WebhookSecret  string  `json:"webhook_secret"`
	ReplyAllItems  bool    `json:"reply_all_items"`
	AllowedItemIDs []int64 `json:"allowed_item_ids"`
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c Config) itemAllowed(itemID int64) bool {
	if c.ReplyAllItems {
		return true
	}
	for _, id := range c.AllowedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// Adapter normalizes Avito messenger webhooks and delivers replies through
// the messenger API with client-credentials auth.
type Adapter struct {
	logger *slog.Logger
	client *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken // keyed by client_id
}

// New creates an Avito adapter.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "avito")),
		client: &http.Client{Timeout: 15 * time.Second},
		tokens: make(map[string]cachedToken),
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return channel.TypeAvito
}

// DefaultConfig seeds provider credentials, a generated webhook secret, and
// the reply-to-every-item default.
func (a *Adapter) DefaultConfig() map[string]any {
	return map[string]any{
		"client_id":        "",
		"client_secret":    "",
		"user_id":          0,
		"webhook_secret":   uuid.NewString(),
		"reply_all_items":  true,
		"allowed_item_ids": []int64{},
	}
}

// VerifyWebhook checks the secret query parameter carried in the callback URL.
func (a *Adapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	return r.URL.Query().Get("secret") == cfg.WebhookSecret
}

type webhookEnvelope struct {
	ID      string `json:"id"`
	Payload struct {
		Type  string `json:"type"`
		Value struct {
			ID       string `json:"id"`
			ChatID   string `json:"chat_id"`
			UserID   int64  `json:"user_id"`
			AuthorID int64  `json:"author_id"`
			Created  int64  `json:"created"`
			Type     string `json:"type"`
			ItemID   int64  `json:"item_id"`
			Content  struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"value"`
	} `json:"payload"`
}

// Normalize maps a messenger webhook to routing input. The adapter's own
// outbound messages echo back through the webhook and are skipped by
// comparing author_id with the account user_id in config, so normalization
// for Avito is config-aware: use NormalizeWithConfig from the webhook path.
func (a *Adapter) Normalize(body []byte) channel.IncomingMessage {
	return a.NormalizeWithConfig(nil, body)
}

// NormalizeWithConfig is Normalize with access to the channel config for
// direction and item filtering.
func (a *Adapter) NormalizeWithConfig(config []byte, body []byte) channel.IncomingMessage {
	var wh webhookEnvelope
	if err := json.Unmarshal(body, &wh); err != nil {
		return channel.Skipped(channel.TypeAvito, channel.SkipMalformed)
	}
	if wh.Payload.Type != "message" {
		return channel.Skipped(channel.TypeAvito, channel.SkipEmptyUpdate)
	}
	v := wh.Payload.Value
	if v.Type == "system" {
		return channel.Skipped(channel.TypeAvito, channel.SkipSystemMessage)
	}
	if v.Type != "text" || strings.TrimSpace(v.Content.Text) == "" {
		return channel.Skipped(channel.TypeAvito, channel.SkipEmptyUpdate)
	}

	var cfg Config
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err == nil {
			if cfg.UserID != 0 && v.AuthorID == cfg.UserID {
				return channel.Skipped(channel.TypeAvito, channel.SkipOutgoingMessage)
			}
			// A whitelist cannot match a message that names no item.
			if !cfg.ReplyAllItems && v.ItemID == 0 {
				return channel.Skipped(channel.TypeAvito, channel.SkipItemIDMissing)
			}
			if v.ItemID != 0 && !cfg.itemAllowed(v.ItemID) {
				return channel.Skipped(channel.TypeAvito, channel.SkipItemNotAllowed)
			}
		}
	}

	received := time.Now().UTC()
	if v.Created > 0 {
		received = time.Unix(v.Created, 0).UTC()
	}
	out := channel.IncomingMessage{
		Channel:           channel.TypeAvito,
		ExternalChatID:    v.ChatID,
		ExternalUserID:    strconv.FormatInt(v.AuthorID, 10),
		ExternalMessageID: v.ID,
		Text:              v.Content.Text,
		ReceivedAt:        received,
	}
	if v.ItemID != 0 {
		out.ItemID = strconv.FormatInt(v.ItemID, 10)
		out.Payload = map[string]any{"item_id": v.ItemID}
	}
	return out
}

// SyncWebhook subscribes the callback URL with the messenger API when the
// channel is active and unsubscribes it otherwise. Avito does not echo
// custom headers, so the webhook secret rides in the URL query and the
// inbound check reads it back from there.
func (a *Adapter) SyncWebhook(ctx context.Context, config []byte, webhookURL string, active bool) error {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("parse avito config: %w", err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("avito credentials are not configured")
	}
	if cfg.WebhookSecret != "" {
		webhookURL += "?secret=" + url.QueryEscape(cfg.WebhookSecret)
	}

	token, err := a.accessToken(ctx, cfg, false)
	if err != nil {
		return err
	}

	path := webhookUnsubscribePath
	if active {
		path = webhookSubscribePath
	}
	payload, _ := json.Marshal(map[string]string{"url": webhookURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("avito webhook sync: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("avito webhook sync: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Send posts text to the chat. On 401/403 the cached token is dropped, a
// fresh one is requested, and the send is retried exactly once.
func (a *Adapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse avito config: %w", err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.UserID == 0 {
		return channel.SendResult{}, fmt.Errorf("avito credentials are not configured")
	}

	endpoint := fmt.Sprintf("/messenger/v1/accounts/%d/chats/%s/messages", cfg.UserID, msg.ExternalChatID)
	res := channel.SendResult{Endpoint: endpoint}

	token, err := a.accessToken(ctx, cfg, false)
	if err != nil {
		return res, err
	}

	status, externalID, err := a.postMessage(ctx, cfg, endpoint, token, msg.Text)
	res.HTTPStatus = status
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		token, err = a.accessToken(ctx, cfg, true)
		if err != nil {
			return res, err
		}
		res.Retries = 1
		status, externalID, err = a.postMessage(ctx, cfg, endpoint, token, msg.Text)
		res.HTTPStatus = status
	}
	if err != nil {
		return res, err
	}
	res.ExternalMessageID = externalID
	return res, nil
}

func (a *Adapter) postMessage(ctx context.Context, cfg Config, endpoint, token, text string) (int, string, error) {
	payload, _ := json.Marshal(map[string]any{
		"message": map[string]string{"text": text},
		"type":    "text",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL()+endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("avito send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, "", fmt.Errorf("avito send: auth rejected with status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, "", fmt.Errorf("avito send: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &out)
	}
	return resp.StatusCode, out.ID, nil
}

func (a *Adapter) accessToken(ctx context.Context, cfg Config, force bool) (string, error) {
	a.mu.Lock()
	if !force {
		if tok, ok := a.tokens[cfg.ClientID]; ok && time.Now().Before(tok.expiresAt) {
			a.mu.Unlock()
			return tok.value, nil
		}
	}
	a.mu.Unlock()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL()+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("avito token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avito token: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("avito token: decode response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("avito token: empty access_token")
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenMargin
	if ttl < 0 {
		ttl = 0
	}
	a.mu.Lock()
	a.tokens[cfg.ClientID] = cachedToken{value: out.AccessToken, expiresAt: time.Now().Add(ttl)}
	a.mu.Unlock()
	return out.AccessToken, nil
}

// Package telegram adapts Telegram Bot API webhooks and sends.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/deskrelay/deskrelay/internal/channel"
)

// SecretHeader carries the webhook secret Telegram echoes back on every call.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const defaultAPIBase = "https://api.telegram.org"

// Config is the bot_channels config shape for Telegram.
type Config struct {
	BotToken      string `json:"bot_token"`
	WebhookSecret string `json:"webhook_secret"`
}

// Adapter normalizes Telegram webhook updates and delivers replies through
// the Bot API.
type Adapter struct {
	logger  *slog.Logger
	apiBase string
	client  *http.Client

	mu   sync.Mutex
	bots map[string]*tgbotapi.BotAPI // keyed by bot token
}

// New creates a Telegram adapter.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:  log.With(slog.String("adapter", "telegram")),
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
		bots:    make(map[string]*tgbotapi.BotAPI),
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return channel.TypeTelegram
}

// DefaultConfig seeds a generated webhook secret so the provider-side
// registration and the inbound check agree from the moment the channel is
// created.
func (a *Adapter) DefaultConfig() map[string]any {
	return map[string]any{
		"bot_token":      "",
		"webhook_secret": uuid.NewString(),
	}
}

// VerifyWebhook checks the secret header Telegram attaches to webhook calls.
// An empty configured secret accepts everything.
func (a *Adapter) VerifyWebhook(config []byte, r *http.Request) bool {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return false
	}
	if cfg.WebhookSecret == "" {
		return true
	}
	return r.Header.Get(SecretHeader) == cfg.WebhookSecret
}

// Normalize maps a webhook update to routing input. Messages, edited
// messages, and callback queries all route; callback data is the text.
// Updates with no routable text are skipped.
func (a *Adapter) Normalize(body []byte) channel.IncomingMessage {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return channel.Skipped(channel.TypeTelegram, channel.SkipMalformed)
	}

	msg, from, text, externalID := extractUpdate(&update)
	if strings.TrimSpace(text) == "" {
		return channel.Skipped(channel.TypeTelegram, channel.SkipEmptyUpdate)
	}

	out := channel.IncomingMessage{
		Channel:           channel.TypeTelegram,
		ExternalMessageID: externalID,
		Text:              text,
		ReceivedAt:        time.Now().UTC(),
	}
	if msg != nil && msg.Date > 0 {
		out.ReceivedAt = time.Unix(int64(msg.Date), 0).UTC()
	}
	if from != nil {
		out.ExternalUserID = strconv.FormatInt(from.ID, 10)
		out.UserDisplayName = displayName(from)
		if from.UserName != "" {
			out.Payload = map[string]any{"username": from.UserName}
		}
	}
	if msg != nil && msg.Chat != nil {
		out.ExternalChatID = strconv.FormatInt(msg.Chat.ID, 10)
	}
	// A callback can arrive without its origin message; the conversation key
	// falls back to the user id.
	if out.ExternalChatID == "" {
		out.ExternalChatID = out.ExternalUserID
	}
	return out
}

// extractUpdate returns the message-like object, its author, the routable
// text, and the external message id for any supported update variant.
func extractUpdate(update *tgbotapi.Update) (*tgbotapi.Message, *tgbotapi.User, string, string) {
	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg != nil {
		text := msg.Text
		if text == "" {
			text = msg.Caption
		}
		return msg, msg.From, text, strconv.Itoa(msg.MessageID)
	}
	if cb := update.CallbackQuery; cb != nil {
		return cb.Message, cb.From, cb.Data, cb.ID
	}
	return nil, nil, "", ""
}

// SyncWebhook registers the callback URL with the Bot API when the channel
// is active and calls deleteWebhook otherwise. The configured webhook secret
// rides along as secret_token so Telegram echoes it on every delivery.
func (a *Adapter) SyncWebhook(ctx context.Context, config []byte, webhookURL string, active bool) error {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("parse telegram config: %w", err)
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/deleteWebhook", a.apiBase, cfg.BotToken)
	form := url.Values{}
	if active {
		endpoint = fmt.Sprintf("%s/bot%s/setWebhook", a.apiBase, cfg.BotToken)
		form.Set("url", webhookURL)
		if cfg.WebhookSecret != "" {
			form.Set("secret_token", cfg.WebhookSecret)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram webhook sync: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram webhook sync: %s", out.Description)
		}
		return fmt.Errorf("telegram webhook sync: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Send delivers text to the chat through the Bot API.
func (a *Adapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return channel.SendResult{}, fmt.Errorf("parse telegram config: %w", err)
	}
	if cfg.BotToken == "" {
		return channel.SendResult{}, fmt.Errorf("telegram bot token is not configured")
	}
	chatID, err := strconv.ParseInt(msg.ExternalChatID, 10, 64)
	if err != nil {
		return channel.SendResult{}, fmt.Errorf("invalid telegram chat id %q: %w", msg.ExternalChatID, err)
	}

	bot, err := a.getOrCreateBot(cfg.BotToken)
	if err != nil {
		return channel.SendResult{}, err
	}
	sent, err := bot.Send(tgbotapi.NewMessage(chatID, msg.Text))
	res := channel.SendResult{Endpoint: "sendMessage"}
	if err != nil {
		return res, fmt.Errorf("telegram send: %w", err)
	}
	res.ExternalMessageID = strconv.Itoa(sent.MessageID)
	res.HTTPStatus = http.StatusOK
	return res, nil
}

func (a *Adapter) getOrCreateBot(token string) (*tgbotapi.BotAPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bot, ok := a.bots[token]; ok {
		return bot, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	a.bots[token] = bot
	return bot, nil
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	return strings.TrimSpace(user.UserName)
}

// Package channel provides a unified abstraction for multi-platform messaging
// channels. It defines types, interfaces, and a registry for channel adapters
// such as Telegram, WhatsApp providers, Avito, Max, and the embedded webchat.
package channel

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ChannelType identifies a messaging platform (e.g., "telegram", "avito").
type ChannelType string

const (
	TypeTelegram       ChannelType = "telegram"
	TypeWhatsAppGreen  ChannelType = "whatsapp_green"
	TypeWhatsApp360    ChannelType = "whatsapp_360"
	TypeWhatsAppCustom ChannelType = "whatsapp_custom"
	TypeAvito          ChannelType = "avito"
	TypeMax            ChannelType = "max"
	TypeWebchat        ChannelType = "webchat"
)

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

// AllTypes lists every channel type the service knows how to route.
func AllTypes() []ChannelType {
	return []ChannelType{
		TypeTelegram,
		TypeWhatsAppGreen,
		TypeWhatsApp360,
		TypeWhatsAppCustom,
		TypeAvito,
		TypeMax,
		TypeWebchat,
	}
}

// Skip reasons set by normalizers for events that carry no routable user text.
const (
	SkipEmptyUpdate     = "empty_update"
	SkipSystemMessage   = "system_message"
	SkipOutgoingMessage = "outgoing_message"
	SkipItemNotAllowed  = "item_not_allowed"
	SkipItemIDMissing   = "item_id_missing"
	SkipMalformed       = "malformed_payload"
)

// IncomingMessage is the normalized form of a provider webhook event. A
// normalizer never fails: events that should not enter routing come back with
// Skip set and a reason.
type IncomingMessage struct {
	Channel           ChannelType
	ExternalChatID    string
	ExternalUserID    string
	ExternalMessageID string
	UserDisplayName   string
	Text              string
	// Payload carries provider-specific extras the canonical fields do not
	// cover. Persisted verbatim with the stored message.
	Payload    map[string]any
	ItemID     string
	ReceivedAt time.Time
	Skip       bool
	SkipReason string
}

// Skipped builds an IncomingMessage that routing will drop.
func Skipped(ct ChannelType, reason string) IncomingMessage {
	return IncomingMessage{Channel: ct, Skip: true, SkipReason: reason}
}

// OutgoingMessage addresses a reply to a provider conversation.
type OutgoingMessage struct {
	ExternalChatID string
	ExternalUserID string
	ItemID         string
	Text           string
}

// SendResult carries delivery metadata for diagnostics.
type SendResult struct {
	ExternalMessageID string
	Endpoint          string
	HTTPStatus        int
	Retries           int
}

// Adapter normalizes inbound webhook payloads and delivers outbound replies
// for one channel type. Send receives the raw bot_channels config JSON and
// decodes its own shape from it.
type Adapter interface {
	Type() ChannelType
	Normalize(body []byte) IncomingMessage
	Send(ctx context.Context, config []byte, msg OutgoingMessage) (SendResult, error)
}

// WebhookVerifier is implemented by adapters whose provider authenticates
// webhook calls with a shared secret. Adapters that do not implement it accept
// every request.
type WebhookVerifier interface {
	VerifyWebhook(config []byte, r *http.Request) bool
}

// ConfigDefaulter is implemented by adapters that seed newly created channel
// configs (generated webhook secrets, provider defaults).
type ConfigDefaulter interface {
	DefaultConfig() map[string]any
}

// ConfigNormalizer is implemented by adapters whose normalization depends on
// the channel config (direction filters, configurable payload field names).
// The webhook path calls it instead of Normalize when available.
type ConfigNormalizer interface {
	NormalizeWithConfig(config []byte, body []byte) IncomingMessage
}

// WebhookSyncer is implemented by adapters whose provider must be told the
// callback URL. SyncWebhook registers the URL when the channel is active and
// removes the registration otherwise.
type WebhookSyncer interface {
	SyncWebhook(ctx context.Context, config []byte, webhookURL string, active bool) error
}

func normalizeChannelType(raw string) ChannelType {
	return ChannelType(strings.ToLower(strings.TrimSpace(raw)))
}

// Package webchat adapts the embedded site-widget chat. Inbound messages
// arrive over the widget REST endpoint; outbound replies are pushed to the
// widget's websocket session.
package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/deskrelay/deskrelay/internal/channel"
)

// Pusher delivers a payload to every websocket connection of a widget
// session. It reports the number of connections reached.
type Pusher interface {
	PushToSession(sessionID string, payload any) int
}

type inbound struct {
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
}

// Adapter routes widget sessions. The session id doubles as the external
// chat id and the external user id.
type Adapter struct {
	logger *slog.Logger
	pusher Pusher
}

// New creates a webchat adapter pushing through the given Pusher.
func New(log *slog.Logger, pusher Pusher) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "webchat")),
		pusher: pusher,
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return channel.TypeWebchat
}

// Normalize maps a widget message to routing input.
func (a *Adapter) Normalize(body []byte) channel.IncomingMessage {
	var in inbound
	if err := json.Unmarshal(body, &in); err != nil {
		return channel.Skipped(channel.TypeWebchat, channel.SkipMalformed)
	}
	if in.SessionID == "" {
		return channel.Skipped(channel.TypeWebchat, channel.SkipEmptyUpdate)
	}
	if strings.TrimSpace(in.Text) == "" {
		return channel.Skipped(channel.TypeWebchat, channel.SkipEmptyUpdate)
	}
	return channel.IncomingMessage{
		Channel:         channel.TypeWebchat,
		ExternalChatID:  in.SessionID,
		ExternalUserID:  in.SessionID,
		UserDisplayName: in.UserName,
		Text:            in.Text,
		ReceivedAt:      time.Now().UTC(),
	}
}

// Send pushes text to the widget session. A session with no live connection
// is not an error: the widget catches up over the history endpoint.
func (a *Adapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	if a.pusher == nil {
		return channel.SendResult{}, nil
	}
	reached := a.pusher.PushToSession(msg.ExternalChatID, map[string]any{
		"type":   "message",
		"sender": "bot",
		"text":   msg.Text,
	})
	if reached == 0 {
		a.logger.Debug("no live webchat connections", slog.String("session_id", msg.ExternalChatID))
	}
	return channel.SendResult{Endpoint: "websocket"}, nil
}

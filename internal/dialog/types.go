// Package dialog owns conversation state and routing: one open dialog per
// conversation key, operator locking, and the auto-answer flow for incoming
// messages.
package dialog

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/deskrelay/deskrelay/internal/db"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// Dialog statuses.
const (
	StatusAuto         = "AUTO"
	StatusWaitOperator = "WAIT_OPERATOR"
	StatusWaitUser     = "WAIT_USER"
)

// Message senders.
const (
	SenderUser     = "user"
	SenderBot      = "bot"
	SenderOperator = "operator"
)

// Event types fanned out to admin consoles.
const (
	EventDialogCreated  = "dialog_created"
	EventMessageCreated = "message_created"
	EventDialogUpdated  = "dialog_updated"
	EventDialogClosed   = "dialog_closed"
)

var (
	ErrNotFound     = errors.New("dialog not found")
	ErrClosed       = errors.New("dialog is closed")
	ErrLockConflict = errors.New("dialog is locked by another admin")
	ErrInvalidPage  = errors.New("invalid pagination")
)

// Dialog is the API shape of a conversation.
type Dialog struct {
	ID                 int64      `json:"id"`
	BotID              int64      `json:"bot_id"`
	ChannelType        string     `json:"channel_type"`
	ExternalChatID     string     `json:"external_chat_id"`
	ExternalUserID     string     `json:"external_user_id"`
	UserDisplayName    string     `json:"user_display_name"`
	Status             string     `json:"status"`
	Closed             bool       `json:"closed"`
	IsLocked           bool       `json:"is_locked"`
	LockedUntil        *time.Time `json:"locked_until,omitempty"`
	AssignedAdminID    int64      `json:"assigned_admin_id,omitempty"`
	UnreadCount        int        `json:"unread_count"`
	WaitingTimeSeconds int        `json:"waiting_time_seconds"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastUserMessageAt  *time.Time `json:"last_user_message_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Message is the API shape of one dialog message.
type Message struct {
	ID                int64           `json:"id"`
	DialogID          int64           `json:"dialog_id"`
	Sender            string          `json:"sender"`
	Text              string          `json:"text"`
	IsSystem          bool            `json:"is_system,omitempty"`
	ExternalMessageID string          `json:"external_message_id,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Event is one console notification.
type Event struct {
	Type    string   `json:"type"`
	Dialog  *Dialog  `json:"dialog,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// FromRow converts a database row.
func FromRow(row sqlc.Dialog) Dialog {
	d := Dialog{
		ID:                 row.ID,
		BotID:              row.BotID,
		ChannelType:        row.ChannelType,
		ExternalChatID:     row.ExternalChatID,
		ExternalUserID:     row.ExternalUserID,
		UserDisplayName:    row.UserDisplayName,
		Status:             row.Status,
		Closed:             row.Closed,
		IsLocked:           row.IsLocked,
		AssignedAdminID:    db.Int8OrZero(row.AssignedAdminID),
		UnreadCount:        int(row.UnreadCount),
		WaitingTimeSeconds: int(row.WaitingTimeSeconds),
		CreatedAt:          db.TimeOrZero(row.CreatedAt),
		UpdatedAt:          db.TimeOrZero(row.UpdatedAt),
	}
	if row.LockedUntil.Valid {
		t := row.LockedUntil.Time
		d.LockedUntil = &t
	}
	if row.LastMessageAt.Valid {
		t := row.LastMessageAt.Time
		d.LastMessageAt = &t
	}
	if row.LastUserMessageAt.Valid {
		t := row.LastUserMessageAt.Time
		d.LastUserMessageAt = &t
	}
	return d
}

// MessageFromRow converts a database row.
func MessageFromRow(row sqlc.DialogMessage) Message {
	return Message{
		ID:                row.ID,
		DialogID:          row.DialogID,
		Sender:            row.Sender,
		Text:              row.Text,
		IsSystem:          row.IsSystem,
		ExternalMessageID: row.ExternalMessageID,
		Payload:           row.Payload,
		CreatedAt:         db.TimeOrZero(row.CreatedAt),
	}
}

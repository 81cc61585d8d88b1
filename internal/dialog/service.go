package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/deskrelay/deskrelay/internal/ai"
	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/crm"
	"github.com/deskrelay/deskrelay/internal/db"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// historyLimit caps how many prior messages enter the model context.
const historyLimit = 10

const unavailableNote = "Automatic replies are unavailable right now. An operator will answer shortly."

// TxStarter begins transactions; satisfied by *pgxpool.Pool.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Answerer produces automatic replies.
type Answerer interface {
	Answer(ctx context.Context, req ai.AnswerRequest) (ai.Answer, error)
}

// Deliverer sends outbound messages; it never fails the caller.
type Deliverer interface {
	Deliver(ctx context.Context, botID int64, ct channel.ChannelType, config []byte, msg channel.OutgoingMessage) channel.SendResult
}

// Broadcaster fans events out to admin consoles and webchat widgets.
type Broadcaster interface {
	BroadcastToAdmins(payload any, adminIDs ...int64) int
	PushToSession(sessionID string, payload any) int
}

// Notifier forwards dialog lifecycle events to the CRM.
type Notifier interface {
	Notify(event crm.Event)
}

// Service orchestrates dialog state. Every state change happens inside a
// transaction on the dialog row; provider sends and event fan-out happen
// after commit so external systems only ever observe persisted state.
type Service struct {
	db        TxStarter
	queries   *sqlc.Queries
	answers   Answerer
	deliverer Deliverer
	events    Broadcaster
	crm       Notifier
	logger    *slog.Logger
}

// NewService creates the dialog service.
func NewService(log *slog.Logger, txs TxStarter, queries *sqlc.Queries, answers Answerer, deliverer Deliverer, events Broadcaster, notifier Notifier) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:        txs,
		queries:   queries,
		answers:   answers,
		deliverer: deliverer,
		events:    events,
		crm:       notifier,
		logger:    log.With(slog.String("service", "dialog")),
	}
}

// ProcessIncoming routes one normalized user message: find or create the open
// dialog, release an expired lock, persist the message and state, then attempt
// an automatic answer unless an operator holds the dialog.
func (s *Service) ProcessIncoming(ctx context.Context, bot sqlc.Bot, ch sqlc.BotChannel, msg channel.IncomingMessage) (Dialog, error) {
	now := msg.ReceivedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Dialog{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	q := s.queries.WithTx(tx)

	row, created, err := s.findOrCreate(ctx, q, bot.ID, msg)
	if err != nil {
		return Dialog{}, err
	}

	params := stateFromRow(row)
	if row.IsLocked && row.LockedUntil.Valid && now.After(row.LockedUntil.Time) {
		s.logger.Info("releasing expired lock",
			slog.Int64("dialog_id", row.ID),
			slog.Int64("admin_id", db.Int8OrZero(row.AssignedAdminID)))
		params.IsLocked = false
		params.LockedUntil = db.Timestamptz(time.Time{})
		params.AssignedAdminID = db.Int8(0)
	}
	params.Status = StatusWaitOperator
	params.UnreadCount = row.UnreadCount + 1
	params.WaitingTimeSeconds = 0
	params.LastMessageAt = db.Timestamptz(now)
	params.LastUserMessageAt = db.Timestamptz(now)
	if msg.UserDisplayName != "" {
		params.UserDisplayName = msg.UserDisplayName
	}

	updated, err := q.UpdateDialogState(ctx, params)
	if err != nil {
		return Dialog{}, fmt.Errorf("update dialog: %w", err)
	}
	userMsg, err := q.CreateDialogMessage(ctx, sqlc.CreateDialogMessageParams{
		DialogID:          updated.ID,
		Sender:            SenderUser,
		Text:              msg.Text,
		ExternalMessageID: msg.ExternalMessageID,
		Payload:           marshalPayload(msg.Payload),
	})
	if err != nil {
		return Dialog{}, fmt.Errorf("store user message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Dialog{}, fmt.Errorf("commit: %w", err)
	}

	d := FromRow(updated)
	m := MessageFromRow(userMsg)
	if created {
		s.emit(EventDialogCreated, &d, nil)
	}
	s.emit(EventMessageCreated, &d, &m)
	// The CRM sees every inbound user message, not just the one that opened
	// the dialog.
	s.notify(crm.Event{Type: EventMessageCreated, DialogID: d.ID, BotID: d.BotID, ChannelType: d.ChannelType, ExternalChatID: d.ExternalChatID, Status: d.Status, Text: msg.Text, DialogCreated: created, OccurredAt: now})
	s.emit(EventDialogUpdated, &d, nil)

	if updated.IsLocked {
		return d, nil
	}
	return s.answerAndReply(ctx, bot, ch, updated, userMsg)
}

// answerAndReply runs the auto-answer pipeline for one pending user question
// and persists the outcome.
func (s *Service) answerAndReply(ctx context.Context, bot sqlc.Bot, ch sqlc.BotChannel, row sqlc.Dialog, question sqlc.DialogMessage) (Dialog, error) {
	history, err := s.history(ctx, row.ID, question.ID)
	if err != nil {
		return FromRow(row), err
	}

	ans, err := s.answers.Answer(ctx, ai.AnswerRequest{
		BotID:        bot.ID,
		Instructions: bot.Instructions,
		History:      history,
		Question:     question.Text,
	})
	if err != nil {
		s.logger.Error("auto-answer unavailable",
			slog.Int64("dialog_id", row.ID),
			slog.String("error", err.Error()))
		return s.escalateUnavailable(ctx, row)
	}
	if ans.Declined {
		s.logger.Info("auto-answer declined",
			slog.Int64("dialog_id", row.ID),
			slog.String("reason", ans.Reason))
		return FromRow(row), nil
	}
	return s.sendBotReply(ctx, bot, ch, row.ID, ans.Text)
}

// pendingQuestion returns the latest non-system message when it belongs to
// the user, meaning the dialog still owes an answer.
func (s *Service) pendingQuestion(ctx context.Context, dialogID int64) (sqlc.DialogMessage, bool) {
	rows, err := s.queries.ListRecentDialogMessages(ctx, sqlc.ListRecentDialogMessagesParams{
		DialogID: dialogID,
		Limit:    historyLimit,
	})
	if err != nil {
		s.logger.Error("loading recent messages", slog.Int64("dialog_id", dialogID), slog.String("error", err.Error()))
		return sqlc.DialogMessage{}, false
	}
	for _, row := range rows {
		if row.IsSystem {
			continue
		}
		if row.Sender == SenderUser {
			return row, true
		}
		return sqlc.DialogMessage{}, false
	}
	return sqlc.DialogMessage{}, false
}

// escalateUnavailable records a system note on the dialog; the status stays
// WAIT_OPERATOR and nothing is sent to the customer.
func (s *Service) escalateUnavailable(ctx context.Context, row sqlc.Dialog) (Dialog, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return FromRow(row), fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	q := s.queries.WithTx(tx)

	current, err := q.GetDialogForUpdate(ctx, row.ID)
	if err != nil {
		return FromRow(row), fmt.Errorf("reload dialog: %w", err)
	}
	note, err := q.CreateDialogMessage(ctx, sqlc.CreateDialogMessageParams{
		DialogID: current.ID,
		Sender:   SenderBot,
		Text:     unavailableNote,
		IsSystem: true,
	})
	if err != nil {
		return FromRow(row), fmt.Errorf("store system message: %w", err)
	}
	params := stateFromRow(current)
	params.Status = StatusWaitOperator
	updated, err := q.UpdateDialogState(ctx, params)
	if err != nil {
		return FromRow(row), fmt.Errorf("update dialog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return FromRow(row), fmt.Errorf("commit: %w", err)
	}

	d := FromRow(updated)
	m := MessageFromRow(note)
	s.emit(EventMessageCreated, &d, &m)
	s.emit(EventDialogUpdated, &d, nil)
	return d, nil
}

// sendBotReply persists the reply, flips the dialog to WAIT_USER, and
// delivers after commit. If an operator claimed the dialog between the two
// phases the reply is dropped.
func (s *Service) sendBotReply(ctx context.Context, bot sqlc.Bot, ch sqlc.BotChannel, dialogID int64, text string) (Dialog, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Dialog{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	q := s.queries.WithTx(tx)

	current, err := q.GetDialogForUpdate(ctx, dialogID)
	if err != nil {
		return Dialog{}, fmt.Errorf("reload dialog: %w", err)
	}
	if current.IsLocked || current.Closed {
		return FromRow(current), nil
	}

	botMsg, err := q.CreateDialogMessage(ctx, sqlc.CreateDialogMessageParams{
		DialogID: current.ID,
		Sender:   SenderBot,
		Text:     text,
	})
	if err != nil {
		return Dialog{}, fmt.Errorf("store bot message: %w", err)
	}
	params := stateFromRow(current)
	params.Status = StatusWaitUser
	params.UnreadCount = 0
	params.WaitingTimeSeconds = waitingSince(current.LastUserMessageAt, now)
	params.LastMessageAt = db.Timestamptz(now)
	updated, err := q.UpdateDialogState(ctx, params)
	if err != nil {
		return Dialog{}, fmt.Errorf("update dialog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Dialog{}, fmt.Errorf("commit: %w", err)
	}

	s.deliverer.Deliver(ctx, bot.ID, channel.ChannelType(updated.ChannelType), ch.Config, channel.OutgoingMessage{
		ExternalChatID: updated.ExternalChatID,
		ExternalUserID: updated.ExternalUserID,
		Text:           text,
	})

	d := FromRow(updated)
	m := MessageFromRow(botMsg)
	s.emit(EventMessageCreated, &d, &m)
	s.emit(EventDialogUpdated, &d, nil)
	return d, nil
}

// Lock claims the dialog for an admin. A live lock held by another admin is
// a conflict; an expired one is taken over.
func (s *Service) Lock(ctx context.Context, dialogID, adminID int64) (Dialog, error) {
	return s.mutate(ctx, dialogID, func(row sqlc.Dialog, params *sqlc.UpdateDialogStateParams) error {
		if row.Closed {
			return ErrClosed
		}
		if holder := lockHolder(row); holder != 0 && holder != adminID {
			return ErrLockConflict
		}
		params.IsLocked = true
		params.AssignedAdminID = db.Int8(adminID)
		params.LockedUntil = db.Timestamptz(time.Time{})
		return nil
	})
}

// Unlock releases the admin's claim. Unlocking a dialog held by another admin
// is a conflict; unlocking an unlocked dialog is a no-op.
func (s *Service) Unlock(ctx context.Context, dialogID, adminID int64) (Dialog, error) {
	return s.mutate(ctx, dialogID, func(row sqlc.Dialog, params *sqlc.UpdateDialogStateParams) error {
		if holder := lockHolder(row); holder != 0 && holder != adminID {
			return ErrLockConflict
		}
		params.IsLocked = false
		params.AssignedAdminID = db.Int8(0)
		params.LockedUntil = db.Timestamptz(time.Time{})
		return nil
	})
}

// Close ends the dialog. The conversation key becomes free for a fresh
// dialog on the next inbound message.
func (s *Service) Close(ctx context.Context, dialogID, adminID int64) (Dialog, error) {
	d, err := s.mutate(ctx, dialogID, func(row sqlc.Dialog, params *sqlc.UpdateDialogStateParams) error {
		if holder := lockHolder(row); holder != 0 && holder != adminID {
			return ErrLockConflict
		}
		params.Closed = true
		params.IsLocked = false
		params.AssignedAdminID = db.Int8(0)
		params.LockedUntil = db.Timestamptz(time.Time{})
		return nil
	})
	if err != nil {
		return d, err
	}
	s.emit(EventDialogClosed, &d, nil)
	s.notify(crm.Event{Type: EventDialogClosed, DialogID: d.ID, BotID: d.BotID, ChannelType: d.ChannelType, ExternalChatID: d.ExternalChatID, Status: d.Status, OccurredAt: time.Now().UTC()})
	return d, nil
}

// SwitchToAuto returns the dialog to automatic handling and, when the last
// word belongs to the user, immediately attempts an answer for it.
func (s *Service) SwitchToAuto(ctx context.Context, dialogID, adminID int64) (Dialog, error) {
	d, err := s.mutate(ctx, dialogID, func(row sqlc.Dialog, params *sqlc.UpdateDialogStateParams) error {
		if row.Closed {
			return ErrClosed
		}
		if holder := lockHolder(row); holder != 0 && holder != adminID {
			return ErrLockConflict
		}
		params.Status = StatusAuto
		params.IsLocked = false
		params.AssignedAdminID = db.Int8(0)
		params.LockedUntil = db.Timestamptz(time.Time{})
		return nil
	})
	if err != nil {
		return d, err
	}

	question, ok := s.pendingQuestion(ctx, dialogID)
	if !ok {
		return d, nil
	}
	bot, err := s.queries.GetBot(ctx, d.BotID)
	if err != nil {
		return d, fmt.Errorf("load bot: %w", err)
	}
	ch, err := s.queries.GetBotChannelByType(ctx, sqlc.GetBotChannelByTypeParams{BotID: d.BotID, ChannelType: d.ChannelType})
	if err != nil {
		return d, fmt.Errorf("load channel: %w", err)
	}
	row, err := s.queries.GetDialog(ctx, dialogID)
	if err != nil {
		return d, fmt.Errorf("reload dialog: %w", err)
	}
	return s.answerAndReply(ctx, bot, ch, row, question)
}

// AddOperatorMessage stores and delivers an operator reply.
func (s *Service) AddOperatorMessage(ctx context.Context, dialogID, adminID int64, text string) (Message, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	q := s.queries.WithTx(tx)

	row, err := q.GetDialogForUpdate(ctx, dialogID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("load dialog: %w", err)
	}
	if row.Closed {
		return Message{}, ErrClosed
	}
	if holder := lockHolder(row); holder != 0 && holder != adminID {
		return Message{}, ErrLockConflict
	}

	opMsg, err := q.CreateDialogMessage(ctx, sqlc.CreateDialogMessageParams{
		DialogID: row.ID,
		Sender:   SenderOperator,
		Text:     text,
	})
	if err != nil {
		return Message{}, fmt.Errorf("store operator message: %w", err)
	}
	params := stateFromRow(row)
	params.Status = StatusWaitUser
	params.UnreadCount = 0
	params.WaitingTimeSeconds = waitingSince(row.LastUserMessageAt, now)
	params.LastMessageAt = db.Timestamptz(now)
	updated, err := q.UpdateDialogState(ctx, params)
	if err != nil {
		return Message{}, fmt.Errorf("update dialog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("commit: %w", err)
	}

	ch, err := s.queries.GetBotChannelByType(ctx, sqlc.GetBotChannelByTypeParams{BotID: updated.BotID, ChannelType: updated.ChannelType})
	if err == nil {
		s.deliverer.Deliver(ctx, updated.BotID, channel.ChannelType(updated.ChannelType), ch.Config, channel.OutgoingMessage{
			ExternalChatID: updated.ExternalChatID,
			ExternalUserID: updated.ExternalUserID,
			Text:           text,
		})
	} else {
		s.logger.Error("channel config missing for operator reply",
			slog.Int64("dialog_id", updated.ID),
			slog.String("error", err.Error()))
	}

	d := FromRow(updated)
	m := MessageFromRow(opMsg)
	s.emit(EventMessageCreated, &d, &m)
	s.emit(EventDialogUpdated, &d, nil)
	return m, nil
}

// Get returns one dialog.
func (s *Service) Get(ctx context.Context, dialogID int64) (Dialog, error) {
	row, err := s.queries.GetDialog(ctx, dialogID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dialog{}, ErrNotFound
	}
	if err != nil {
		return Dialog{}, err
	}
	return FromRow(row), nil
}

// Filter narrows and pages the dialog list.
type Filter struct {
	BotID         int64
	Status        string
	ChannelType   string
	IncludeClosed bool
	Page          int
	PerPage       int
}

// List returns a page of dialogs, most recently updated first, plus the
// total match count.
func (s *Service) List(ctx context.Context, f Filter) ([]Dialog, int64, error) {
	if f.Page < 1 || f.PerPage < 1 || f.PerPage > 100 {
		return nil, 0, ErrInvalidPage
	}

	rows, err := s.queries.ListDialogs(ctx, sqlc.ListDialogsParams{
		BotID:         f.BotID,
		Status:        f.Status,
		ChannelType:   f.ChannelType,
		IncludeClosed: f.IncludeClosed,
		PageLimit:     int32(f.PerPage),
		PageOffset:    int32((f.Page - 1) * f.PerPage),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountDialogs(ctx, sqlc.CountDialogsParams{
		BotID:         f.BotID,
		Status:        f.Status,
		ChannelType:   f.ChannelType,
		IncludeClosed: f.IncludeClosed,
	})
	if err != nil {
		return nil, 0, err
	}

	dialogs := make([]Dialog, 0, len(rows))
	for _, row := range rows {
		dialogs = append(dialogs, FromRow(row))
	}
	return dialogs, total, nil
}

// Messages returns the full transcript, oldest first.
func (s *Service) Messages(ctx context.Context, dialogID int64) ([]Message, error) {
	if _, err := s.Get(ctx, dialogID); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListDialogMessages(ctx, dialogID)
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, MessageFromRow(row))
	}
	return messages, nil
}

// mutate loads the dialog row for update, applies fn to the next state, and
// commits. fn returning an error aborts without changes.
func (s *Service) mutate(ctx context.Context, dialogID int64, fn func(row sqlc.Dialog, params *sqlc.UpdateDialogStateParams) error) (Dialog, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Dialog{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	q := s.queries.WithTx(tx)

	row, err := q.GetDialogForUpdate(ctx, dialogID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dialog{}, ErrNotFound
	}
	if err != nil {
		return Dialog{}, fmt.Errorf("load dialog: %w", err)
	}

	params := stateFromRow(row)
	if err := fn(row, &params); err != nil {
		return FromRow(row), err
	}
	updated, err := q.UpdateDialogState(ctx, params)
	if err != nil {
		return Dialog{}, fmt.Errorf("update dialog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Dialog{}, fmt.Errorf("commit: %w", err)
	}

	d := FromRow(updated)
	s.emit(EventDialogUpdated, &d, nil)
	return d, nil
}

// findOrCreate resolves the open dialog for the conversation key, creating
// one when none exists. A concurrent creation loses the race on the partial
// unique index and falls back to the winner's row.
func (s *Service) findOrCreate(ctx context.Context, q *sqlc.Queries, botID int64, msg channel.IncomingMessage) (sqlc.Dialog, bool, error) {
	key := sqlc.GetOpenDialogForUpdateParams{
		BotID:          botID,
		ChannelType:    msg.Channel.String(),
		ExternalChatID: msg.ExternalChatID,
	}
	row, err := q.GetOpenDialogForUpdate(ctx, key)
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return sqlc.Dialog{}, false, fmt.Errorf("find dialog: %w", err)
	}

	row, err = q.CreateDialog(ctx, sqlc.CreateDialogParams{
		BotID:           botID,
		ChannelType:     msg.Channel.String(),
		ExternalChatID:  msg.ExternalChatID,
		ExternalUserID:  msg.ExternalUserID,
		UserDisplayName: msg.UserDisplayName,
	})
	if err == nil {
		return row, true, nil
	}
	if isUniqueViolation(err) {
		row, err = q.GetOpenDialogForUpdate(ctx, key)
		if err != nil {
			return sqlc.Dialog{}, false, fmt.Errorf("find dialog after conflict: %w", err)
		}
		return row, false, nil
	}
	return sqlc.Dialog{}, false, fmt.Errorf("create dialog: %w", err)
}

// history returns the model context for a dialog, oldest first, excluding
// the question being answered and system notes.
func (s *Service) history(ctx context.Context, dialogID, questionID int64) ([]ai.ChatMessage, error) {
	rows, err := s.queries.ListRecentDialogMessages(ctx, sqlc.ListRecentDialogMessagesParams{
		DialogID: dialogID,
		Limit:    historyLimit + 2,
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]ai.ChatMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].ID == questionID || rows[i].IsSystem {
			continue
		}
		role := ai.RoleAssistant
		if rows[i].Sender == SenderUser {
			role = ai.RoleUser
		}
		history = append(history, ai.ChatMessage{Role: role, Content: rows[i].Text})
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	return history, nil
}

func (s *Service) emit(eventType string, d *Dialog, m *Message) {
	if s.events == nil {
		return
	}
	event := Event{Type: eventType, Dialog: d, Message: m}
	if d != nil && d.AssignedAdminID != 0 {
		s.events.BroadcastToAdmins(event, d.AssignedAdminID)
	} else {
		s.events.BroadcastToAdmins(event)
	}
	if d != nil && d.ChannelType == string(channel.TypeWebchat) {
		s.events.PushToSession(d.ExternalChatID, event)
	}
}

// marshalPayload keeps provider extras with the stored message. A nil bag
// stays NULL in the database.
func marshalPayload(bag map[string]any) []byte {
	if len(bag) == 0 {
		return nil
	}
	raw, err := json.Marshal(bag)
	if err != nil {
		return nil
	}
	return raw
}

func (s *Service) notify(event crm.Event) {
	if s.crm != nil {
		s.crm.Notify(event)
	}
}

// lockHolder returns the admin currently holding a live lock, or 0.
func lockHolder(row sqlc.Dialog) int64 {
	if !row.IsLocked {
		return 0
	}
	if row.LockedUntil.Valid && time.Now().After(row.LockedUntil.Time) {
		return 0
	}
	return db.Int8OrZero(row.AssignedAdminID)
}

func waitingSince(lastUserMessageAt pgtype.Timestamptz, now time.Time) int32 {
	if !lastUserMessageAt.Valid {
		return 0
	}
	seconds := int32(now.Sub(lastUserMessageAt.Time).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

func stateFromRow(row sqlc.Dialog) sqlc.UpdateDialogStateParams {
	return sqlc.UpdateDialogStateParams{
		ID:                 row.ID,
		Status:             row.Status,
		Closed:             row.Closed,
		IsLocked:           row.IsLocked,
		LockedUntil:        row.LockedUntil,
		AssignedAdminID:    row.AssignedAdminID,
		UnreadCount:        row.UnreadCount,
		WaitingTimeSeconds: row.WaitingTimeSeconds,
		LastMessageAt:      row.LastMessageAt,
		LastUserMessageAt:  row.LastUserMessageAt,
		UserDisplayName:    row.UserDisplayName,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

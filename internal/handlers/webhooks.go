package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
	"github.com/deskrelay/deskrelay/internal/diagnostics"
	"github.com/deskrelay/deskrelay/internal/dialog"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks. Providers retry on non-2xx,
// so everything past secret verification acks 200 regardless of outcome.
type WebhookHandler struct {
	queries     *sqlc.Queries
	registry    *channel.Registry
	dialogs     *dialog.Service
	diagnostics *diagnostics.Service
	logger      *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, queries *sqlc.Queries, registry *channel.Registry, dialogService *dialog.Service, diagnosticsService *diagnostics.Service) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		queries:     queries,
		registry:    registry,
		dialogs:     dialogService,
		diagnostics: diagnosticsService,
		logger:      log.With(slog.String("handler", "webhooks")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/bots/:id/channels/webhooks/:type/:channel_id", h.Receive)
}

func (h *WebhookHandler) Receive(c echo.Context) error {
	ct := channel.ChannelType(c.Param("type"))
	adapter, ok := h.registry.Get(ct)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown channel type")
	}
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	channelID, err := strconv.ParseInt(c.Param("channel_id"), 10, 64)
	if err != nil || channelID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel id")
	}
	ctx := c.Request().Context()

	bot, err := h.queries.GetBot(ctx, botID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !bot.IsActive) {
		return h.ack(c)
	}
	if err != nil {
		h.logger.Error("loading bot", slog.Int64("bot_id", botID), slog.String("error", err.Error()))
		return h.ack(c)
	}
	ch, err := h.queries.GetBotChannel(ctx, channelID)
	if err != nil || ch.BotID != botID || ch.ChannelType != ct.String() || !ch.IsActive {
		return h.ack(c)
	}

	if verifier, ok := h.registry.Verifier(ct); ok {
		if !verifier.VerifyWebhook(ch.Config, c.Request()) {
			h.diagnostics.RecordInbound(ctx, botID, ct, "webhook", "rejected", "secret verification failed")
			return echo.NewHTTPError(http.StatusForbidden, "verification failed")
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.diagnostics.RecordInbound(ctx, botID, ct, "webhook", "error", "reading body failed")
		return h.ack(c)
	}

	var msg channel.IncomingMessage
	if configAware, ok := adapter.(channel.ConfigNormalizer); ok {
		msg = configAware.NormalizeWithConfig(ch.Config, body)
	} else {
		msg = adapter.Normalize(body)
	}
	if msg.Skip {
		h.diagnostics.RecordInbound(ctx, botID, ct, "webhook", "skipped", msg.SkipReason)
		return h.ack(c)
	}

	h.diagnostics.RecordInbound(ctx, botID, ct, "webhook", "ok", "")
	if _, err := h.dialogs.ProcessIncoming(ctx, bot, ch, msg); err != nil {
		h.logger.Error("processing incoming message",
			slog.Int64("bot_id", botID),
			slog.String("channel", ct.String()),
			slog.String("error", err.Error()))
	}
	return h.ack(c)
}

// Providers treat any 2xx as delivered, so the body carries no detail.
func (h *WebhookHandler) ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/config"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
	"github.com/deskrelay/deskrelay/internal/dialog"
	"github.com/deskrelay/deskrelay/internal/ws"
)

// WebchatHandler is the customer-facing surface of the embedded chat widget.
// Sessions are anonymous: the widget keeps the issued session id and uses it
// as the conversation key.
type WebchatHandler struct {
	queries  *sqlc.Queries
	registry *channel.Registry
	dialogs  *dialog.Service
	hub      *ws.Hub
	baseURL  string
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWebchatHandler(log *slog.Logger, cfg config.ServerConfig, queries *sqlc.Queries, registry *channel.Registry, dialogService *dialog.Service, hub *ws.Hub) *WebchatHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebchatHandler{
		queries:  queries,
		registry: registry,
		dialogs:  dialogService,
		hub:      hub,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With(slog.String("handler", "webchat")),
	}
}

func (h *WebchatHandler) Register(e *echo.Echo) {
	e.POST("/webchat/init", h.Init)
	g := e.Group("/webchat/:id")
	g.POST("/messages", h.PostMessage)
	g.GET("/history", h.History)
	e.GET("/ws/webchat/:id/:session_id", h.Socket)
}

type webchatInitRequest struct {
	BotID int64 `json:"bot_id"`
}

func (h *WebchatHandler) Init(c echo.Context) error {
	var req webchatInitRequest
	if err := c.Bind(&req); err != nil || req.BotID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "bot_id is required")
	}
	if _, _, err := h.resolveBot(c, req.BotID); err != nil {
		return err
	}
	sessionID := uuid.NewString()
	return c.JSON(http.StatusCreated, map[string]string{
		"session_id": sessionID,
		"ws_url":     h.socketURL(req.BotID, sessionID),
	})
}

// socketURL builds the widget websocket endpoint from the public base URL.
func (h *WebchatHandler) socketURL(botID int64, sessionID string) string {
	path := fmt.Sprintf("/ws/webchat/%d/%s", botID, sessionID)
	base := h.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}

type webchatMessageRequest struct {
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
}

func (h *WebchatHandler) PostMessage(c echo.Context) error {
	bot, ch, err := h.resolve(c)
	if err != nil {
		return err
	}
	var req webchatMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Text = strings.TrimSpace(req.Text)
	if req.SessionID == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id and text are required")
	}

	adapter, ok := h.registry.Get(channel.TypeWebchat)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "webchat not available")
	}
	raw, _ := json.Marshal(req)
	msg := adapter.Normalize(raw)
	if msg.Skip {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid message")
	}

	d, err := h.dialogs.ProcessIncoming(c.Request().Context(), bot, ch, msg)
	if err != nil {
		h.logger.Error("processing webchat message",
			slog.Int64("bot_id", bot.ID),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "message processing failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"dialog_id": d.ID,
	})
}

func (h *WebchatHandler) History(c echo.Context) error {
	bot, _, err := h.resolve(c)
	if err != nil {
		return err
	}
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	ctx := c.Request().Context()
	row, err := h.queries.GetOpenDialog(ctx, sqlc.GetOpenDialogParams{
		BotID:          bot.ID,
		ChannelType:    channel.TypeWebchat.String(),
		ExternalChatID: sessionID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusOK, []dialog.Message{})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading history failed")
	}
	msgs, err := h.dialogs.Messages(ctx, row.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading history failed")
	}
	visible := make([]dialog.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsSystem {
			continue
		}
		visible = append(visible, m)
	}
	return c.JSON(http.StatusOK, visible)
}

// Socket upgrades the widget connection; pushed payloads catch the widget up
// in real time, history fills any gaps.
func (h *WebchatHandler) Socket(c echo.Context) error {
	if _, _, err := h.resolve(c); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.hub.RegisterSession(sessionID, conn)
	defer func() {
		h.hub.UnregisterSession(sessionID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *WebchatHandler) resolve(c echo.Context) (sqlc.Bot, sqlc.BotChannel, error) {
	botID, err := pathID(c)
	if err != nil {
		return sqlc.Bot{}, sqlc.BotChannel{}, err
	}
	return h.resolveBot(c, botID)
}

func (h *WebchatHandler) resolveBot(c echo.Context, botID int64) (sqlc.Bot, sqlc.BotChannel, error) {
	ctx := c.Request().Context()
	bot, err := h.queries.GetBot(ctx, botID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !bot.IsActive) {
		return sqlc.Bot{}, sqlc.BotChannel{}, echo.NewHTTPError(http.StatusNotFound, "bot not found")
	}
	if err != nil {
		return sqlc.Bot{}, sqlc.BotChannel{}, echo.NewHTTPError(http.StatusInternalServerError, "loading bot failed")
	}
	ch, err := h.queries.GetBotChannelByType(ctx, sqlc.GetBotChannelByTypeParams{
		BotID:       botID,
		ChannelType: channel.TypeWebchat.String(),
	})
	if err != nil || !ch.IsActive {
		return sqlc.Bot{}, sqlc.BotChannel{}, echo.NewHTTPError(http.StatusNotFound, "webchat not enabled")
	}
	return bot, ch, nil
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/auth"
	"github.com/deskrelay/deskrelay/internal/dialog"
)

// DialogsHandler exposes the operator console API.
type DialogsHandler struct {
	dialogs *dialog.Service
	logger  *slog.Logger
}

func NewDialogsHandler(log *slog.Logger, dialogService *dialog.Service) *DialogsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DialogsHandler{
		dialogs: dialogService,
		logger:  log.With(slog.String("handler", "dialogs")),
	}
}

func (h *DialogsHandler) Register(e *echo.Echo) {
	g := e.Group("/dialogs")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/messages", h.Messages)
	g.POST("/:id/lock", h.Lock)
	g.POST("/:id/unlock", h.Unlock)
	g.POST("/:id/close", h.Close)
	g.DELETE("/:id", h.Close)
	g.POST("/:id/auto", h.SwitchToAuto)
	g.POST("/:id/messages", h.SendMessage)
}

type dialogListResponse struct {
	Items   []dialog.Dialog `json:"items"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

func (h *DialogsHandler) List(c echo.Context) error {
	filter := dialog.Filter{
		Status:        strings.TrimSpace(c.QueryParam("status")),
		ChannelType:   strings.TrimSpace(c.QueryParam("channel_type")),
		IncludeClosed: c.QueryParam("include_closed") == "true",
		Page:          queryInt(c, "page", 1),
		PerPage:       queryInt(c, "per_page", 20),
	}
	if raw := c.QueryParam("bot_id"); raw != "" {
		botID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bot_id")
		}
		filter.BotID = botID
	}

	items, total, err := h.dialogs.List(c.Request().Context(), filter)
	if errors.Is(err, dialog.ErrInvalidPage) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pagination")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing dialogs failed")
	}
	return c.JSON(http.StatusOK, dialogListResponse{
		Items:   items,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	})
}

func (h *DialogsHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.dialogs.Get(c.Request().Context(), id)
	if err != nil {
		return dialogError(err, "loading dialog failed")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DialogsHandler) Messages(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	msgs, err := h.dialogs.Messages(c.Request().Context(), id)
	if err != nil {
		return dialogError(err, "loading messages failed")
	}
	if msgs == nil {
		msgs = []dialog.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *DialogsHandler) Lock(c echo.Context) error {
	return h.mutate(c, h.dialogs.Lock, "locking dialog failed")
}

func (h *DialogsHandler) Unlock(c echo.Context) error {
	return h.mutate(c, h.dialogs.Unlock, "unlocking dialog failed")
}

func (h *DialogsHandler) Close(c echo.Context) error {
	return h.mutate(c, h.dialogs.Close, "closing dialog failed")
}

func (h *DialogsHandler) SwitchToAuto(c echo.Context) error {
	return h.mutate(c, h.dialogs.SwitchToAuto, "switching dialog failed")
}

type operatorMessageRequest struct {
	Text string `json:"text"`
}

func (h *DialogsHandler) SendMessage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	adminID, err := auth.AdminIDFromContext(c)
	if err != nil {
		return err
	}
	var req operatorMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	msg, err := h.dialogs.AddOperatorMessage(c.Request().Context(), id, adminID, req.Text)
	if err != nil {
		return dialogError(err, "sending message failed")
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *DialogsHandler) mutate(c echo.Context, op func(ctx context.Context, dialogID, adminID int64) (dialog.Dialog, error), failMsg string) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	adminID, err := auth.AdminIDFromContext(c)
	if err != nil {
		return err
	}
	d, err := op(c.Request().Context(), id, adminID)
	if err != nil {
		return dialogError(err, failMsg)
	}
	return c.JSON(http.StatusOK, d)
}

func dialogError(err error, failMsg string) error {
	switch {
	case errors.Is(err, dialog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dialog not found")
	case errors.Is(err, dialog.ErrClosed):
		return echo.NewHTTPError(http.StatusConflict, "dialog is closed")
	case errors.Is(err, dialog.ErrLockConflict):
		return echo.NewHTTPError(http.StatusConflict, "dialog is locked by another admin")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, failMsg)
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

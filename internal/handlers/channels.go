package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// ChannelsHandler manages per-bot channel bindings. Upserting a binding
// seeds generated defaults, like webhook secrets, for fields the caller
// leaves out, and mirrors the binding's active state to providers that
// require webhook registration.
type ChannelsHandler struct {
	queries       *sqlc.Queries
	registry      *channel.Registry
	publicBaseURL string
	logger        *slog.Logger
}

func NewChannelsHandler(log *slog.Logger, queries *sqlc.Queries, registry *channel.Registry, publicBaseURL string) *ChannelsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChannelsHandler{
		queries:       queries,
		registry:      registry,
		publicBaseURL: publicBaseURL,
		logger:        log.With(slog.String("handler", "channels")),
	}
}

func (h *ChannelsHandler) Register(e *echo.Echo) {
	g := e.Group("/bots/:id/channels")
	g.GET("", h.List)
	g.GET("/:type", h.Get)
	g.PUT("/:type", h.Upsert)
	g.DELETE("/:type", h.Delete)
}

type channelView struct {
	ID          int64          `json:"id"`
	BotID       int64          `json:"bot_id"`
	ChannelType string         `json:"channel_type"`
	Config      map[string]any `json:"config"`
	IsActive    bool           `json:"is_active"`
}

func channelViewFromRow(row sqlc.BotChannel) channelView {
	cfg := map[string]any{}
	_ = json.Unmarshal(row.Config, &cfg)
	return channelView{
		ID:          row.ID,
		BotID:       row.BotID,
		ChannelType: row.ChannelType,
		Config:      cfg,
		IsActive:    row.IsActive,
	}
}

func (h *ChannelsHandler) List(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	rows, err := h.queries.ListBotChannels(c.Request().Context(), botID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing channels failed")
	}
	views := make([]channelView, 0, len(rows))
	for _, row := range rows {
		views = append(views, channelViewFromRow(row))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *ChannelsHandler) Get(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	ct, err := h.channelType(c)
	if err != nil {
		return err
	}
	row, err := h.queries.GetBotChannelByType(c.Request().Context(), sqlc.GetBotChannelByTypeParams{
		BotID:       botID,
		ChannelType: ct.String(),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "channel not configured")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading channel failed")
	}
	return c.JSON(http.StatusOK, channelViewFromRow(row))
}

type upsertChannelRequest struct {
	Config   map[string]any `json:"config"`
	IsActive *bool          `json:"is_active"`
}

func (h *ChannelsHandler) Upsert(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	ct, err := h.channelType(c)
	if err != nil {
		return err
	}
	var req upsertChannelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Config == nil {
		req.Config = map[string]any{}
	}

	ctx := c.Request().Context()
	existing, err := h.queries.GetBotChannelByType(ctx, sqlc.GetBotChannelByTypeParams{
		BotID:       botID,
		ChannelType: ct.String(),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		cfg := h.withDefaults(ct, req.Config)
		raw, merr := json.Marshal(cfg)
		if merr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid config")
		}
		active := false
		if req.IsActive != nil {
			active = *req.IsActive
		}
		row, cerr := h.queries.CreateBotChannel(ctx, sqlc.CreateBotChannelParams{
			BotID:       botID,
			ChannelType: ct.String(),
			Config:      raw,
			IsActive:    active,
		})
		if cerr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "creating channel failed")
		}
		h.syncWebhook(ctx, row, row.IsActive)
		return c.JSON(http.StatusCreated, channelViewFromRow(row))
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "loading channel failed")
	}

	merged := map[string]any{}
	_ = json.Unmarshal(existing.Config, &merged)
	for k, v := range req.Config {
		merged[k] = v
	}
	raw, merr := json.Marshal(merged)
	if merr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid config")
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	row, uerr := h.queries.UpdateBotChannel(ctx, sqlc.UpdateBotChannelParams{
		ID:       existing.ID,
		Config:   raw,
		IsActive: active,
	})
	if uerr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "updating channel failed")
	}
	h.syncWebhook(ctx, row, row.IsActive)
	return c.JSON(http.StatusOK, channelViewFromRow(row))
}

func (h *ChannelsHandler) Delete(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	ct, err := h.channelType(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	row, err := h.queries.GetBotChannelByType(ctx, sqlc.GetBotChannelByTypeParams{
		BotID:       botID,
		ChannelType: ct.String(),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "channel not configured")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading channel failed")
	}
	if err := h.queries.DeleteBotChannel(ctx, row.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting channel failed")
	}
	h.syncWebhook(ctx, row, false)
	return c.NoContent(http.StatusNoContent)
}

// syncWebhook mirrors the channel's active state to the provider. Failures
// never fail the API call: the binding is already persisted and the next
// upsert retries the registration.
func (h *ChannelsHandler) syncWebhook(ctx context.Context, row sqlc.BotChannel, active bool) {
	adapter, ok := h.registry.Get(channel.ChannelType(row.ChannelType))
	if !ok {
		return
	}
	syncer, ok := adapter.(channel.WebhookSyncer)
	if !ok {
		return
	}
	if h.publicBaseURL == "" {
		h.logger.Warn("webhook sync skipped: public base url is not configured",
			slog.Int64("bot_id", row.BotID),
			slog.String("channel", row.ChannelType))
		return
	}
	webhookURL := fmt.Sprintf("%s/bots/%d/channels/webhooks/%s/%d",
		strings.TrimRight(h.publicBaseURL, "/"), row.BotID, row.ChannelType, row.ID)
	if err := syncer.SyncWebhook(ctx, row.Config, webhookURL, active); err != nil {
		h.logger.Warn("webhook sync failed",
			slog.Int64("bot_id", row.BotID),
			slog.String("channel", row.ChannelType),
			slog.String("error", err.Error()))
	}
}

// withDefaults overlays the caller's config onto the adapter's generated
// defaults so secrets get seeded exactly once.
func (h *ChannelsHandler) withDefaults(ct channel.ChannelType, cfg map[string]any) map[string]any {
	adapter, ok := h.registry.Get(ct)
	if !ok {
		return cfg
	}
	defaulter, ok := adapter.(channel.ConfigDefaulter)
	if !ok {
		return cfg
	}
	merged := defaulter.DefaultConfig()
	for k, v := range cfg {
		merged[k] = v
	}
	return merged
}

func (h *ChannelsHandler) channelType(c echo.Context) (channel.ChannelType, error) {
	ct := channel.ChannelType(c.Param("type"))
	if _, ok := h.registry.Get(ct); !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unknown channel type")
	}
	return ct, nil
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/db/sqlc"
	"github.com/deskrelay/deskrelay/internal/knowledge"
)

// BotsHandler manages bot CRUD.
type BotsHandler struct {
	queries   *sqlc.Queries
	knowledge *knowledge.Service
	logger    *slog.Logger
}

func NewBotsHandler(log *slog.Logger, queries *sqlc.Queries, knowledgeService *knowledge.Service) *BotsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BotsHandler{
		queries:   queries,
		knowledge: knowledgeService,
		logger:    log.With(slog.String("handler", "bots")),
	}
}

func (h *BotsHandler) Register(e *echo.Echo) {
	g := e.Group("/bots")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type botRequest struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	IsActive     *bool  `json:"is_active"`
}

func (h *BotsHandler) Create(c echo.Context) error {
	var req botRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	bot, err := h.queries.CreateBot(c.Request().Context(), sqlc.CreateBotParams{
		Name:         req.Name,
		Instructions: req.Instructions,
		IsActive:     active,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "creating bot failed")
	}
	return c.JSON(http.StatusCreated, bot)
}

func (h *BotsHandler) List(c echo.Context) error {
	bots, err := h.queries.ListBots(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing bots failed")
	}
	if bots == nil {
		bots = []sqlc.Bot{}
	}
	return c.JSON(http.StatusOK, bots)
}

func (h *BotsHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bot, err := h.queries.GetBot(c.Request().Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "bot not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading bot failed")
	}
	return c.JSON(http.StatusOK, bot)
}

func (h *BotsHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	current, err := h.queries.GetBot(c.Request().Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "bot not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "loading bot failed")
	}

	var req botRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = current.Name
	}
	active := current.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	bot, err := h.queries.UpdateBot(c.Request().Context(), sqlc.UpdateBotParams{
		ID:           id,
		Name:         name,
		Instructions: req.Instructions,
		IsActive:     active,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "updating bot failed")
	}
	return c.JSON(http.StatusOK, bot)
}

func (h *BotsHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if h.knowledge != nil {
		if err := h.knowledge.DeleteAll(ctx, id); err != nil {
			h.logger.Error("purging bot knowledge", slog.Int64("bot_id", id), slog.String("error", err.Error()))
		}
	}
	if err := h.queries.DeleteBot(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting bot failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

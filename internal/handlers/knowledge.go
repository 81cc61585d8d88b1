package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/knowledge"
)

// KnowledgeHandler manages the per-bot knowledge base.
type KnowledgeHandler struct {
	knowledge *knowledge.Service
	logger    *slog.Logger
}

func NewKnowledgeHandler(log *slog.Logger, knowledgeService *knowledge.Service) *KnowledgeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &KnowledgeHandler{
		knowledge: knowledgeService,
		logger:    log.With(slog.String("handler", "knowledge")),
	}
}

func (h *KnowledgeHandler) Register(e *echo.Echo) {
	g := e.Group("/bots/:id/knowledge")
	g.POST("", h.Ingest)
	g.GET("", h.List)
	g.DELETE("/:chunk_id", h.Delete)
	g.DELETE("", h.DeleteAll)
}

type ingestRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

func (h *KnowledgeHandler) Ingest(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	chunk, err := h.knowledge.Ingest(c.Request().Context(), botID, req.Content, req.Source)
	if err != nil {
		h.logger.Error("ingesting chunk", slog.Int64("bot_id", botID), slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingest failed")
	}
	return c.JSON(http.StatusCreated, chunk)
}

func (h *KnowledgeHandler) List(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	chunks, err := h.knowledge.List(c.Request().Context(), botID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing knowledge failed")
	}
	if chunks == nil {
		chunks = []knowledge.Chunk{}
	}
	return c.JSON(http.StatusOK, chunks)
}

func (h *KnowledgeHandler) Delete(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	chunkID, err := strconv.ParseInt(c.Param("chunk_id"), 10, 64)
	if err != nil || chunkID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chunk id")
	}
	err = h.knowledge.Delete(c.Request().Context(), botID, chunkID)
	if errors.Is(err, knowledge.ErrChunkNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "chunk not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting chunk failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *KnowledgeHandler) DeleteAll(c echo.Context) error {
	botID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.knowledge.DeleteAll(c.Request().Context(), botID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "clearing knowledge failed")
	}
	return c.NoContent(http.StatusNoContent)
}

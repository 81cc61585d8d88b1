package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/diagnostics"
)

// DiagnosticsHandler exposes recent integration activity.
type DiagnosticsHandler struct {
	diagnostics *diagnostics.Service
	logger      *slog.Logger
}

func NewDiagnosticsHandler(log *slog.Logger, diagnosticsService *diagnostics.Service) *DiagnosticsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DiagnosticsHandler{
		diagnostics: diagnosticsService,
		logger:      log.With(slog.String("handler", "diagnostics")),
	}
}

func (h *DiagnosticsHandler) Register(e *echo.Echo) {
	e.GET("/diagnostics", h.List)
}

func (h *DiagnosticsHandler) List(c echo.Context) error {
	entries, err := h.diagnostics.List(c.Request().Context(), queryInt(c, "limit", 100))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing diagnostics failed")
	}
	if entries == nil {
		entries = []diagnostics.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

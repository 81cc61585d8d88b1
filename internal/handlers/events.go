package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/deskrelay/deskrelay/internal/auth"
	"github.com/deskrelay/deskrelay/internal/ws"
)

// EventsHandler streams dialog events to operator consoles.
type EventsHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewEventsHandler(log *slog.Logger, hub *ws.Hub) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With(slog.String("handler", "events")),
	}
}

func (h *EventsHandler) Register(e *echo.Echo) {
	e.GET("/ws/admin", h.Socket)
}

func (h *EventsHandler) Socket(c echo.Context) error {
	adminID, err := auth.AdminIDFromContext(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.hub.RegisterAdmin(adminID, conn)
	h.logger.Info("admin connected", slog.Int64("admin_id", adminID))
	defer func() {
		h.hub.UnregisterAdmin(adminID, conn)
		conn.Close()
		h.logger.Info("admin disconnected", slog.Int64("admin_id", adminID))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

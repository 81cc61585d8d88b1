package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deskrelay/deskrelay/internal/auth"
	"github.com/deskrelay/deskrelay/internal/handlers"
)

type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(addr string, jwtSecret string, pingHandler *handlers.PingHandler, authHandler *handlers.AuthHandler, botsHandler *handlers.BotsHandler, channelsHandler *handlers.ChannelsHandler, dialogsHandler *handlers.DialogsHandler, knowledgeHandler *handlers.KnowledgeHandler, diagnosticsHandler *handlers.DiagnosticsHandler, webhookHandler *handlers.WebhookHandler, webchatHandler *handlers.WebchatHandler, eventsHandler *handlers.EventsHandler) *Server {
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(auth.JWTMiddleware(jwtSecret, func(c echo.Context) bool {
		return shouldSkipJWT(c.Request().URL.Path)
	}))

	if pingHandler != nil {
		pingHandler.Register(e)
	}
	if authHandler != nil {
		authHandler.Register(e)
	}
	if botsHandler != nil {
		botsHandler.Register(e)
	}
	if channelsHandler != nil {
		channelsHandler.Register(e)
	}
	if dialogsHandler != nil {
		dialogsHandler.Register(e)
	}
	if knowledgeHandler != nil {
		knowledgeHandler.Register(e)
	}
	if diagnosticsHandler != nil {
		diagnosticsHandler.Register(e)
	}
	if webhookHandler != nil {
		webhookHandler.Register(e)
	}
	if webchatHandler != nil {
		webchatHandler.Register(e)
	}
	if eventsHandler != nil {
		eventsHandler.Register(e)
	}

	return &Server{
		echo: e,
		addr: addr,
	}
}

// shouldSkipJWT marks the unauthenticated surface: health, login, provider
// webhooks, and the customer-facing webchat endpoints. The admin WebSocket
// stays behind auth via the query-token lookup.
func shouldSkipJWT(path string) bool {
	if path == "/ping" || path == "/auth/login" {
		return true
	}
	if strings.Contains(path, "/channels/webhooks/") {
		return true
	}
	if strings.HasPrefix(path, "/webchat/") || strings.HasPrefix(path, "/ws/webchat/") {
		return true
	}
	return false
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskrelay/deskrelay/internal/auth"
	"github.com/deskrelay/deskrelay/internal/config"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// AuthHandler issues and refreshes admin JWTs.
type AuthHandler struct {
	queries *sqlc.Queries
	cfg     config.AuthConfig
	logger  *slog.Logger
}

func NewAuthHandler(log *slog.Logger, queries *sqlc.Queries, cfg config.AuthConfig) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		queries: queries,
		cfg:     cfg,
		logger:  log.With(slog.String("handler", "auth")),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AdminID   int64     `json:"admin_id"`
	Email     string    `json:"email"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	admin, err := h.queries.GetAdminByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	if !admin.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := auth.GenerateToken(admin.ID, admin.Email, h.cfg.JWTSecret, h.cfg.ExpiresIn())
	if err != nil {
		h.logger.Error("issuing token", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AdminID:   admin.ID,
		Email:     admin.Email,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	token, expiresAt, err := auth.RefreshTokenFromContext(c, h.cfg.JWTSecret, h.cfg.ExpiresIn())
	if err != nil {
		return err
	}
	adminID, err := auth.AdminIDFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AdminID:   adminID,
	})
}

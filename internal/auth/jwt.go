package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	claimSubject = "sub"
	claimAdminID = "admin_id"
	claimEmail   = "email"
)

// JWTMiddleware returns a JWT auth middleware configured for HS256 tokens.
// The query-token lookup lets WebSocket clients authenticate where custom
// headers are unavailable.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		Skipper:       skipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// AdminIDFromContext extracts the authenticated admin id from JWT claims.
func AdminIDFromContext(c echo.Context) (int64, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return 0, err
	}
	if id := claimInt64(claims, claimAdminID); id != 0 {
		return id, nil
	}
	if id := claimInt64(claims, claimSubject); id != 0 {
		return id, nil
	}
	return 0, echo.NewHTTPError(http.StatusUnauthorized, "admin id missing")
}

// GenerateToken creates a signed JWT for the admin.
func GenerateToken(adminID int64, email, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if adminID <= 0 {
		return "", time.Time{}, fmt.Errorf("admin id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		claimSubject: fmt.Sprint(adminID),
		claimAdminID: adminID,
		claimEmail:   email,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// RefreshTokenFromContext issues a fresh token for the already-authenticated
// admin, preserving the original token's lifespan when it can be derived.
func RefreshTokenFromContext(c echo.Context, secret string, defaultExpiresIn time.Duration) (string, time.Time, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return "", time.Time{}, err
	}
	adminID := claimInt64(claims, claimAdminID)
	if adminID == 0 {
		adminID = claimInt64(claims, claimSubject)
	}
	if adminID == 0 {
		return "", time.Time{}, echo.NewHTTPError(http.StatusUnauthorized, "admin id missing")
	}

	expiresIn := defaultExpiresIn
	iat, iatOK := claimUnix(claims, "iat")
	exp, expOK := claimUnix(claims, "exp")
	if iatOK && expOK && exp > iat {
		expiresIn = time.Duration(exp-iat) * time.Second
	}
	return GenerateToken(adminID, claimString(claims, claimEmail), secret, expiresIn)
}

func claimsFromContext(c echo.Context) (jwt.MapClaims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(raw)
	}
}

func claimInt64(claims jwt.MapClaims, key string) int64 {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return 0
	}
	switch v := raw.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			return id
		}
	}
	return 0
}

func claimUnix(claims jwt.MapClaims, key string) (int64, bool) {
	v := claimInt64(claims, key)
	return v, v != 0
}

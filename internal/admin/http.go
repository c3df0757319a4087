// Package admin authenticates the single store operator.
package admin

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/internal/transport"
	"github.com/Skotchmaster/pc_shop/pkg/hash"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
	middleware "github.com/Skotchmaster/pc_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/pc_shop/pkg/middleware/csrf"
	"github.com/Skotchmaster/pc_shop/pkg/tokens"
)

const DefaultTokenTTL = 8 * time.Hour

type AdminHTTP struct {
	Username     string
	PasswordHash string
	JWTSecret    []byte
	TokenTTL     time.Duration

	now func() time.Time
}

func (h *AdminHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if h.PasswordHash == "" {
		l.Error("login_error", "status", 503, "reason", "admin password hash not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "admin login disabled")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Username)) == 1
	passOK := hash.CheckPassword(h.PasswordHash, req.Password)
	if !userOK || !passOK {
		l.Warn("login_failed", "status", 401, "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	exp := h.clock().Add(ttl)

	token, err := tokens.NewAccessToken(tokens.RoleAdmin, h.Username, exp, h.JWTSecret)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot sign token")
	}

	csrfToken, err := csrf.NewToken()
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot create csrf token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create csrf token")
	}

	c.SetCookie(middleware.CreateCookie(middleware.AccessCookie, token, "/", exp))
	c.SetCookie(csrf.Cookie(csrfToken, csrf.Config{Secure: true, MaxAge: ttl}))
	l.Info("login_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"csrf_token":   csrfToken,
		"expires_at":   exp,
		"is_admin":     true,
	})
}

func (h *AdminHTTP) Logout(c echo.Context) error {
	c.SetCookie(middleware.DeleteCookie(middleware.AccessCookie, "/"))
	c.SetCookie(middleware.DeleteCookie(csrf.CookieName, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

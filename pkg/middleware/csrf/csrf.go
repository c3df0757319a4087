// Package csrf guards cookie-authenticated admin mutations with a
// double-submit token: the token lives in a readable cookie and must be
// echoed back in a header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "XSRF-TOKEN"
	HeaderName = "X-CSRF-Token"
)

type Config struct {
	// AuthCookie names the session cookie. Requests without it, or carrying a
	// bearer token instead, cannot be forged by a browser and pass through.
	AuthCookie string
	Secure     bool
	MaxAge     time.Duration
}

func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Cookie is readable from scripts so the admin UI can copy it into HeaderName.
func Cookie(token string, cfg Config) *http.Cookie {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 8 * time.Hour
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(maxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			if strings.HasPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return next(c)
			}
			if _, err := req.Cookie(cfg.AuthCookie); err != nil {
				return next(c)
			}

			if origin := req.Header.Get(echo.HeaderOrigin); origin != "" && !sameHost(origin, req.Host) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}

			ck, err := req.Cookie(CookieName)
			if err != nil || ck.Value == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing CSRF token")
			}
			provided := req.Header.Get(HeaderName)
			if subtle.ConstantTimeCompare([]byte(ck.Value), []byte(provided)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

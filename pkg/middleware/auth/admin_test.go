package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pc_shop/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func serve(t *testing.T, mutate func(r *http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	mw := NewAdminMiddleware(secret)
	e.GET("/admin/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	}, mw.RequireAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	mutate(req)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(role, "root", time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return tok
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *http.Request)
		code   int
	}{
		{
			name:   "missing token",
			mutate: func(r *http.Request) {},
			code:   http.StatusUnauthorized,
		},
		{
			name:   "garbage token",
			mutate: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer nope") },
			code:   http.StatusUnauthorized,
		},
		{
			name:   "non admin role",
			mutate: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, "user")) },
			code:   http.StatusForbidden,
		},
		{
			name:   "bearer admin",
			mutate: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, tokens.RoleAdmin)) },
			code:   http.StatusOK,
		},
		{
			name: "cookie admin",
			mutate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token(t, tokens.RoleAdmin)})
			},
			code: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.mutate)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "root", rec.Body.String())
			}
		})
	}
}

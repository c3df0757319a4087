package pixconfig

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/internal/transport"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

type PixConfigHTTP struct {
	Svc *Service
}

func (h *PixConfigHTTP) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pixconfig.get")

	cfg, err := h.Svc.Get(ctx)
	if err != nil {
		l.Error("get_pix_config_error", "status", 500, "reason", "cannot load config", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load config")
	}
	return c.JSON(http.StatusOK, Mask(cfg))
}

func (h *PixConfigHTTP) PutConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pixconfig.put")

	var req transport.PixConfigRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("put_pix_config_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cfg, err := h.Svc.Put(ctx, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			l.Warn("put_pix_config_error", "status", 400, "reason", "validation failed", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("put_pix_config_error", "status", 500, "reason", "cannot save config", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save config")
	}

	l.Info("put_pix_config_success", "active", cfg.IsActive)
	return c.JSON(http.StatusOK, Mask(cfg))
}

package pix

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

type PixHTTP struct {
	Sim *Simulator
}

// GetCharge is polled by the payment page for the QR code, status and countdown.
func (h *PixHTTP) GetCharge(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pix.get_charge")

	view, err := h.Sim.Charge(ctx, c.Param("transactionID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("get_charge_error", "status", 404, "reason", "charge not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "charge not found")
		}
		l.Error("get_charge_error", "status", 500, "reason", "cannot load charge", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load charge")
	}

	return c.JSON(http.StatusOK, view)
}

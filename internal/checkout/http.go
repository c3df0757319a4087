package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/internal/cart"
	"github.com/Skotchmaster/pc_shop/internal/pix"
	"github.com/Skotchmaster/pc_shop/internal/transport"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

type CheckoutHTTP struct {
	Svc *CheckoutService
}

type statusResponse struct {
	Session *Session  `json:"session"`
	Cart    cart.View `json:"cart"`
}

func (h *CheckoutHTTP) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.status")

	sess, crt, err := h.Svc.Status(ctx, c.Param("cartID"))
	if err != nil {
		return checkoutError(l, "checkout_status_error", err)
	}

	return c.JSON(http.StatusOK, statusResponse{Session: sess, Cart: cart.NewView(crt)})
}

func (h *CheckoutHTTP) SubmitCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.customer")

	var req transport.CustomerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("submit_customer_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.SubmitCustomer(ctx, c.Param("cartID"), Customer{Name: req.Name, Email: req.Email, CPF: req.CPF})
	if err != nil {
		return checkoutError(l, "submit_customer_error", err)
	}

	l.Info("submit_customer_success", "step", sess.Step)
	return c.JSON(http.StatusOK, sess)
}

type pixResponse struct {
	Session   *Session `json:"session"`
	Charge    any      `json:"charge"`
	TimeLeft  int      `json:"time_left"`
	Countdown string   `json:"countdown"`
}

func (h *CheckoutHTTP) StartPix(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.pix")

	var req transport.PixPayerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("start_pix_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	charge, sess, err := h.Svc.StartPix(ctx, c.Param("cartID"), Payer{Name: req.Name, CPF: req.CPF})
	if err != nil {
		return checkoutError(l, "start_pix_error", err)
	}

	l.Info("start_pix_success", "transaction_id", charge.TransactionID, "source", charge.Source)
	return c.JSON(http.StatusCreated, pixResponse{
		Session:   sess,
		Charge:    charge,
		TimeLeft:  charge.Calendar.Expiration,
		Countdown: pix.FormatCountdown(charge.Calendar.Expiration),
	})
}

func checkoutError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, cart.ErrValidation):
		l.Warn(event, "status", 400, "reason", "invalid request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmptyCart):
		l.Warn(event, "status", 409, "reason", "cart is empty", "error", err)
		return echo.NewHTTPError(http.StatusConflict, "cart is empty")
	case errors.Is(err, ErrIllegalTransition):
		l.Warn(event, "status", 409, "reason", "wrong checkout step", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", 500, "reason", "checkout failure", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

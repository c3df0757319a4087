package cart

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/internal/transport"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

type CartHTTP struct {
	Svc *CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	cart, err := h.Svc.GetCart(ctx, c.Param("cartID"))
	if err != nil {
		return cartError(l, "get_cart_error", err)
	}

	return c.JSON(http.StatusOK, NewView(cart))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.AddItem(ctx, c.Param("cartID"), req.ProductID, req.Quantity)
	if err != nil {
		return cartError(l, "add_item_error", err)
	}

	l.Info("add_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, NewView(cart))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		l.Warn("remove_item_error", "status", 400, "reason", "product id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product id not a uuid")
	}

	cart, err := h.Svc.RemoveItem(ctx, c.Param("cartID"), productID)
	if err != nil {
		return cartError(l, "remove_item_error", err)
	}

	l.Info("remove_item_success", "product_id", productID)
	return c.JSON(http.StatusOK, NewView(cart))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, c.Param("cartID")); err != nil {
		return cartError(l, "clear_cart_error", err)
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}

func cartError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		l.Warn(event, "status", 400, "reason", "invalid request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		l.Warn(event, "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		l.Error(event, "status", 500, "reason", "cart store failure", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

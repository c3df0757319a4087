package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pc_shop/internal/admin"
	"github.com/Skotchmaster/pc_shop/internal/cart"
	"github.com/Skotchmaster/pc_shop/internal/catalog"
	"github.com/Skotchmaster/pc_shop/internal/checkout"
	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/order"
	"github.com/Skotchmaster/pc_shop/internal/pix"
	"github.com/Skotchmaster/pc_shop/internal/pixconfig"
	middleware "github.com/Skotchmaster/pc_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/pc_shop/pkg/middleware/csrf"
)

type Deps struct {
	CatalogHandler   *catalog.CatalogHTTP
	CartHandler      *cart.CartHTTP
	CheckoutHandler  *checkout.CheckoutHTTP
	OrderHandler     *order.OrderHTTP
	PixHandler       *pix.PixHTTP
	PixConfigHandler *pixconfig.PixConfigHTTP
	AdminHandler     *admin.AdminHTTP
	Metrics          *metrics.Metrics
	JWTSecret        []byte
	Ready            func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	authMW := middleware.NewAdminMiddleware(d.JWTSecret)

	e.POST("/admin/login", d.AdminHandler.Login)
	e.POST("/admin/logout", d.AdminHandler.Logout)

	catalogGroup := e.Group("/catalog")
	catalogGroup.GET("/categories", d.CatalogHandler.GetCategories)
	products := catalogGroup.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/slug/:slug", d.CatalogHandler.GetProductBySlug)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	adminGroup := e.Group("/admin", authMW.RequireAdmin, csrf.Middleware(csrf.Config{AuthCookie: middleware.AccessCookie}))
	adminGroup.POST("/products", d.CatalogHandler.CreateProduct)
	adminGroup.PUT("/products/:id", d.CatalogHandler.UpdateProduct)
	adminGroup.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	adminGroup.GET("/pix-config", d.PixConfigHandler.GetConfig)
	adminGroup.PUT("/pix-config", d.PixConfigHandler.PutConfig)
	adminGroup.GET("/orders", d.OrderHandler.ListOrders)

	carts := e.Group("/cart/:cartID")
	carts.GET("", d.CartHandler.GetCart)
	carts.POST("/items", d.CartHandler.AddItem)
	carts.DELETE("/items/:productID", d.CartHandler.RemoveItem)
	carts.DELETE("", d.CartHandler.ClearCart)

	e.GET("/checkout/success", d.OrderHandler.Confirmation)
	checkoutGroup := e.Group("/checkout/:cartID")
	checkoutGroup.GET("", d.CheckoutHandler.GetStatus)
	checkoutGroup.POST("/customer", d.CheckoutHandler.SubmitCustomer)
	checkoutGroup.POST("/pix", d.CheckoutHandler.StartPix)

	e.GET("/payments/pix/:transactionID", d.PixHandler.GetCharge)
}

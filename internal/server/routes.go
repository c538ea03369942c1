package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/handler"
)

// Handlers groups everything the router serves. A nil handler's routes are not registered.
type Handlers struct {
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Webhook      *handler.WebhookHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	if h.Product != nil {
		h.Product.RegisterRoutes(e)
	}
	if h.Cart != nil {
		h.Cart.RegisterRoutes(e, cfg)
	}
	if h.Order != nil {
		h.Order.RegisterRoutes(e, cfg)
	}
	if h.AdminOrder != nil {
		h.AdminOrder.RegisterRoutes(e, cfg)
	}
	if h.AdminProduct != nil {
		h.AdminProduct.RegisterRoutes(e, cfg)
	}
	if h.Webhook != nil {
		h.Webhook.RegisterRoutes(e)
	}
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/handler"
)

// RegisterOrders registers /v1/orders.  Any authenticated user can ring
// up and list orders.  Placing an order changes stock, so it flushes the
// catalog cache like the catalog writes do.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, auth, invalidate echo.MiddlewareFunc) {
	g := e.Group("/v1/orders", auth)
	g.POST("", h.CreateOrder, invalidate)
	g.GET("", h.ListOrders)
	g.GET("/:id", h.GetOrder)
}

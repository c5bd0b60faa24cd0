package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/handler"
	"github.com/iliyamo/pos-system/internal/middleware"
)

// RegisterCatalog registers categories, products and line items under /v1.
// Reads are open to every authenticated user and served through cache;
// writes are role gated and flush the cache on success.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, auth, cache, invalidate echo.MiddlewareFunc) {
	g := e.Group("/v1", auth)

	read := g.Group("", cache)
	read.GET("/categories", h.ListCategories)
	read.GET("/categories/:id", h.GetCategory)
	read.GET("/products", h.SearchProducts)
	read.GET("/products/search", h.SearchProducts)
	read.GET("/products/:id", h.GetProduct)
	read.GET("/line-items", h.ListLineItems)
	read.GET("/line-items/:id", h.GetLineItem)

	// ---- Categories and products ----
	owner := g.Group("", middleware.RequireRole(adminRoles...), invalidate)
	owner.POST("/categories", h.CreateCategory)
	owner.PUT("/categories/:id", h.UpdateCategory)
	owner.PATCH("/categories/:id", h.UpdateCategory)
	owner.DELETE("/categories/:id", h.DeleteCategory)
	owner.POST("/products", h.CreateProduct)
	owner.PUT("/products/:id", h.UpdateProduct)
	owner.PATCH("/products/:id", h.UpdateProduct)
	owner.DELETE("/products/:id", h.DeleteProduct)

	// ---- Line items ----
	stock := g.Group("", middleware.RequireRole(stockRoles...), invalidate)
	stock.POST("/line-items", h.CreateLineItem)
	stock.PUT("/line-items/:id", h.UpdateLineItem)
	stock.PATCH("/line-items/:id", h.UpdateLineItem)
	stock.DELETE("/line-items/:id", h.DeleteLineItem)
}

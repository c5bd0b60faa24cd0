// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/handler"
	"github.com/iliyamo/pos-system/internal/middleware"
	"github.com/iliyamo/pos-system/internal/model"
)

// Role sets used by the route groups.
var (
	adminRoles = []string{model.RoleAdmin, model.RoleManager}
	stockRoles = []string{model.RoleAdmin, model.RoleManager, model.RoleStockClerk}
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers /v1/auth.  login and refresh are public and sit
// behind the rate limiter; register and role management need Admin or
// Manager; the remaining routes need any valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)

	user := g.Group("", auth)
	user.POST("/revoke", a.Revoke)
	user.POST("/logout", a.Logout)
	user.POST("/change-password", a.ChangePassword)
	user.GET("/profile", a.Profile)

	admin := g.Group("", auth, middleware.RequireRole(adminRoles...))
	admin.POST("/register", a.Register)
	admin.POST("/assign-role", a.AssignRole)
	admin.POST("/remove-role", a.RemoveRole)
	admin.GET("/users/:id/roles", a.UserRoles)
}

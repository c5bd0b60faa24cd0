package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole allows the request when the caller holds at least one of
// roles.  It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, r := range Roles(c) {
				if allowed[r] {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}

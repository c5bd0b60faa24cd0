package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/token"
)

// AccessParser validates a raw access token.  *token.Issuer implements it.
type AccessParser interface {
	ParseAccess(raw string) (*token.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores its claims in the request context under the Ctx* keys.
// Expired tokens, foreign issuers or audiences and any algorithm other
// than HS256 are answered with 401.
func JWTAuth(p AccessParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := p.ParseAccess(raw)
			if err != nil || claims.UserID == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUserName, claims.Subject)
			c.Set(CtxName, claims.Name)
			c.Set(CtxRoles, claims.Roles)
			c.Set(CtxClaims, claims)
			return next(c)
		}
	}
}

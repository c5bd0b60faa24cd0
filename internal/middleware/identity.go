package middleware

// Context keys populated by JWTAuth and read by handlers and the other
// middleware in this package.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/token"
)

const (
	CtxUserID   = "user_id"
	CtxUserName = "username"
	CtxName     = "name"
	CtxRoles    = "roles"
	CtxClaims   = "claims"
)

// UserID returns the authenticated user id or "" when the request is
// anonymous.
func UserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok {
		return s
	}
	return ""
}

// DisplayName returns the unique_name claim of the caller.
func DisplayName(c echo.Context) string {
	if s, ok := c.Get(CtxName).(string); ok {
		return s
	}
	return ""
}

// Roles returns the role claims of the caller.
func Roles(c echo.Context) []string {
	if r, ok := c.Get(CtxRoles).([]string); ok {
		return r
	}
	return nil
}

// Claims returns the parsed access token claims, or nil.
func Claims(c echo.Context) *token.Claims {
	if cl, ok := c.Get(CtxClaims).(*token.Claims); ok {
		return cl
	}
	return nil
}

// rateSubject identifies the caller for rate limit keys.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}

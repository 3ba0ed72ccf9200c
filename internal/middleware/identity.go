package middleware

// identity.go defines helper functions shared across middleware and
// handlers.  It extracts the authenticated civic identity and role that
// JWTAuth stored in the Echo context.  When no token is present, "guest"
// is returned so unauthenticated traffic still gets a cache/rate-limit key.

import (
	"github.com/labstack/echo/v4"
)

// Identity returns the authenticated civic identity from the request
// context, or "guest" when the request carries no valid token.
func Identity(c echo.Context) string {
	if v, ok := c.Get("identity").(string); ok && v != "" {
		return v
	}
	return "guest"
}

// Role returns the authenticated role claim, or the empty string when
// the request carries no valid token.
func Role(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}

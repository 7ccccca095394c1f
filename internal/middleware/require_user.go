package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warrantyhub/warranty-system/internal/identity"
)

// RequireUser guards routes that need an attached identity. AttachUser must
// run earlier in the chain.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := identity.FromContext(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

// RequireRole additionally restricts a route to one role.
func RequireRole(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := identity.FromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if user.RoleID.Slug() != required {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}

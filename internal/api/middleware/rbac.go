package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// RequireRole enforces role-based access control on top of Auth. Admins pass
// every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if !domain.HasRole(user, roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied. Insufficient permissions.")
			}
			return next(c)
		}
	}
}

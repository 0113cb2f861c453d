package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUser            = "user"
	ContextTemporaryAccess = "temporary_access"
)

// NewTokenHeader carries a refreshed token back to the client.
const NewTokenHeader = "X-New-Token"

// Policy decides how an expired but well-signed token is treated.
type Policy int

const (
	// Strict rejects every token that is not currently valid.
	Strict Policy = iota
	// SoftRefresh lets an expired token through when its user still resolves
	// and attaches a fresh token to the response.
	SoftRefresh
	// Lenient behaves like SoftRefresh and additionally lets expired tokens of
	// unresolvable users through as temporary access.
	Lenient
)

func (p Policy) String() string {
	switch p {
	case SoftRefresh:
		return "soft_refresh"
	case Lenient:
		return "lenient"
	default:
		return "strict"
	}
}

// TokenValidator is the slice of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) ports.TokenValidation
}

// Auth validates the bearer token under policy and injects the resolved user
// into the context.
func Auth(validator TokenValidator, policy Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}

			res := validator.ValidateToken(c.Request().Context(), token)
			switch res.State {
			case ports.TokenValid:
				if res.User == nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
				}

			case ports.TokenExpiredRefreshed:
				if policy == Strict {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
				}
				c.Response().Header().Set(NewTokenHeader, res.NewToken)

			case ports.TokenExpiredUnresolved:
				if policy != Lenient {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
				}
				c.Set(ContextTemporaryAccess, true)
				return next(c)

			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
			}

			c.Set(ContextUser, res.User)
			return next(c)
		}
	}
}

// UserFromContext returns the user injected by Auth, if any.
func UserFromContext(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(ContextUser).(*domain.User)
	return u, ok && u != nil
}

// TemporaryAccess reports whether Auth let the request through on an expired
// token whose user could not be resolved.
func TemporaryAccess(c echo.Context) bool {
	v, _ := c.Get(ContextTemporaryAccess).(bool)
	return v
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

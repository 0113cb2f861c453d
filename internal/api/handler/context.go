package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/api/middleware"
	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// ctxUser returns the user resolved by the Auth middleware. A missing user
// means the route was mounted without Auth and is rejected with 401.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return user, nil
}

// ctxCaller projects the context user onto the service-level Caller.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	user, err := ctxUser(c)
	if err != nil {
		return ports.Caller{}, err
	}
	return ports.Caller{
		ID:    user.ID,
		Role:  user.Role,
		Email: user.Email,
		Phone: user.Phone,
	}, nil
}

// messageResponse is the envelope for plain acknowledgements.
type messageResponse struct {
	Message string `json:"message"`
}

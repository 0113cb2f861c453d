package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/core/ports"
)

// profilePhotoField is the multipart field carrying a new profile photo.
const profilePhotoField = "profilePhoto"

// UserHandler serves the profile and admin user-management endpoints.
type UserHandler struct {
	service   ports.UserService
	publicURL string
}

// NewUserHandler builds a UserHandler. publicURL prefixes uploaded photo
// URLs; when empty the request's scheme and host are used.
func NewUserHandler(service ports.UserService, publicURL string) *UserHandler {
	return &UserHandler{service: service, publicURL: strings.TrimRight(publicURL, "/")}
}

// GetProfile handles GET /api/users/profile.
//
// @Summary      Current user's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /api/users/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	profile, err := h.service.GetProfile(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/users/profile. Accepts JSON or a multipart
// form with an optional profilePhoto file.
//
// @Summary      Update the current user's profile
// @Tags         users
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body          body      updateProfileRequest  false  "Profile fields (JSON)"
// @Param        profilePhoto  formData  file                  false  "New profile photo"
// @Success      200           {object}  profileResponse
// @Failure      400           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var in ports.UpdateProfileInput
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		closePhoto, err := h.multipartInput(c, &in)
		if err != nil {
			return err
		}
		defer closePhoto()
	} else {
		var req updateProfileRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		in = ports.UpdateProfileInput{
			Username: nonEmpty(req.Username),
			Email:    nonEmpty(req.Email),
			Phone:    nonEmpty(req.Phone),
			Bio:      req.Bio,
			Address:  req.Address,
		}
	}
	in.BaseURL = h.baseURL(c)

	updated, err := h.service.UpdateProfile(c.Request().Context(), user.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{Success: true, User: updated})
}

// List handles GET /api/users (admin).
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateStatus handles PATCH /api/users/:id/status (admin).
//
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "User id"
// @Param        body  body      updateUserStatusRequest  true  "New status"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/status [patch]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	var req updateUserStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/users/:id (admin).
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// multipartInput fills in from a multipart form. The returned func closes the
// uploaded photo, if any.
func (h *UserHandler) multipartInput(c echo.Context, in *ports.UpdateProfileInput) (func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	value := func(key string) *string {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return nil
		}
		return &vs[0]
	}
	in.Username = nonEmpty(value("username"))
	in.Email = nonEmpty(value("email"))
	in.Phone = nonEmpty(value("phone"))
	in.Bio = value("bio")
	in.Address = value("address")

	fh, err := c.FormFile(profilePhotoField)
	if errors.Is(err, http.ErrMissingFile) {
		return func() {}, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid profile photo")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	in.Photo = &ports.Photo{Filename: fh.Filename, Content: f}
	return func() { _ = f.Close() }, nil
}

func (h *UserHandler) baseURL(c echo.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	return c.Scheme() + "://" + c.Request().Host
}

// nonEmpty drops blank values so they leave the stored field untouched.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

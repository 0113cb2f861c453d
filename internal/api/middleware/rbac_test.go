package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/core/domain"
)

func runRBAC(t *testing.T, user *domain.User, roles ...string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(ContextUser, user)
	}

	called := false
	h := RequireRole(roles...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		user   *domain.User
		roles  []string
		status int
	}{
		{"admin passes admin route", &domain.User{Role: domain.RoleAdmin}, []string{domain.RoleAdmin}, http.StatusOK},
		{"admin passes user route", &domain.User{Role: domain.RoleAdmin}, []string{domain.RoleUser}, http.StatusOK},
		{"user passes user route", &domain.User{Role: domain.RoleUser}, []string{domain.RoleUser}, http.StatusOK},
		{"user blocked from admin route", &domain.User{Role: domain.RoleUser}, []string{domain.RoleAdmin}, http.StatusForbidden},
		{"guest blocked", &domain.User{Role: domain.RoleGuest}, []string{domain.RoleUser}, http.StatusForbidden},
		{"empty requirement", &domain.User{Role: domain.RoleGuest}, nil, http.StatusOK},
		{"no user", nil, []string{domain.RoleUser}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := runRBAC(t, tt.user, tt.roles...)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if called != (tt.status == http.StatusOK) {
				t.Fatalf("next called = %v", called)
			}
		})
	}
}

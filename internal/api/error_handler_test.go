package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &domain.ValidationError{Fields: []string{"id", "customer"}}, http.StatusBadRequest, "missing required fields: id, customer"},
		{"validation message", domain.NewValidationError("invalid status value: %q", "Lost"), http.StatusBadRequest, `invalid status value: "Lost"`},
		{"duplicate order", fmt.Errorf("create: %w", domain.ErrDuplicateOrderID), http.StatusBadRequest, "Order with this ID already exists"},
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusBadRequest, "User already exists"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "Access denied. Insufficient permissions."},
		{"transition", domain.ErrInvalidTransition, http.StatusConflict, domain.ErrInvalidTransition.Error()},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many login attempts, try again later"},
		{"transport", &domain.TransportError{Provider: "mpesa", Code: 500, Message: "Bad Request - Invalid PhoneNumber"}, http.StatusBadGateway, "Bad Request - Invalid PhoneNumber"},
		{"payments off", domain.ErrPaymentUnavailable, http.StatusServiceUnavailable, "Payment service unavailable"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied"), http.StatusUnauthorized, "No token, authorization denied"},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "Server error"},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tt.err, c)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if got := message(t, rec); got != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, got)
			}
		})
	}
}

func TestHTTPErrorHandler_Committed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrOrderNotFound, c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response was modified: %d %q", rec.Code, rec.Body.String())
	}
}

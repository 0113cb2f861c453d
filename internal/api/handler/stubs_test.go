package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/api/middleware"
	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds an echo context for a JSON request, optionally
// authenticated as user.
func newJSONContext(e *echo.Echo, method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextUser, user)
	}
	return c, rec
}

var (
	testAdmin = &domain.User{ID: "admin1", Username: "welzyneadmin", Email: "admin@welzyne.com", Role: domain.RoleAdmin}
	testUser  = &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Phone: "0712345678", Role: domain.RoleUser}
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, identifier, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) ValidateToken(context.Context, string) ports.TokenValidation {
	return ports.TokenValidation{}
}

func (s *stubAuthService) EnsureAdmin(context.Context) error { return nil }

type stubOrderService struct {
	createFn        func(ctx context.Context, caller ports.Caller, in ports.CreateOrderInput) (*domain.Order, error)
	listFn          func(ctx context.Context) ([]*domain.Order, error)
	listForUserFn   func(ctx context.Context, caller ports.Caller, identifier string) ([]*domain.Order, error)
	getFn           func(ctx context.Context, id string) (*domain.Order, error)
	updateStatusFn  func(ctx context.Context, id, status string) (*domain.Order, error)
	updatePaymentFn func(ctx context.Context, caller ports.Caller, id string, in ports.UpdatePaymentInput) (*domain.Order, error)
	deleteFn        func(ctx context.Context, id string) error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, caller ports.Caller, in ports.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubOrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.listFn(ctx)
}

func (s *stubOrderService) ListOrdersForUser(ctx context.Context, caller ports.Caller, identifier string) ([]*domain.Order, error) {
	return s.listForUserFn(ctx, caller, identifier)
}

func (s *stubOrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getFn(ctx, id)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	return s.updateStatusFn(ctx, id, status)
}

func (s *stubOrderService) UpdatePayment(ctx context.Context, caller ports.Caller, id string, in ports.UpdatePaymentInput) (*domain.Order, error) {
	return s.updatePaymentFn(ctx, caller, id, in)
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubUserService struct {
	getFn          func(ctx context.Context, id string) (*domain.User, error)
	updateFn       func(ctx context.Context, id string, in ports.UpdateProfileInput) (*domain.User, error)
	listFn         func(ctx context.Context) ([]*domain.User, error)
	updateStatusFn func(ctx context.Context, id, status string) (*domain.User, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (s *stubUserService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, in ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) UpdateStatus(ctx context.Context, id, status string) (*domain.User, error) {
	return s.updateStatusFn(ctx, id, status)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubPaymentService struct {
	initiateFn func(ctx context.Context, orderID, phone string, amount int64) (*ports.STKPushResponse, error)
	callbackFn func(ctx context.Context, cb ports.PaymentCallback) (*domain.Order, error)
	queryFn    func(ctx context.Context, checkoutRequestID string) (*ports.STKQueryResponse, error)
}

func (s *stubPaymentService) InitiateSTKPush(ctx context.Context, orderID, phone string, amount int64) (*ports.STKPushResponse, error) {
	return s.initiateFn(ctx, orderID, phone, amount)
}

func (s *stubPaymentService) HandleCallback(ctx context.Context, cb ports.PaymentCallback) (*domain.Order, error) {
	return s.callbackFn(ctx, cb)
}

func (s *stubPaymentService) QueryStatus(ctx context.Context, checkoutRequestID string) (*ports.STKQueryResponse, error) {
	return s.queryFn(ctx, checkoutRequestID)
}

package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/welzyne/courier-system/internal/api/handler"
	"github.com/welzyne/courier-system/internal/api/middleware"
	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Auth     ports.AuthService
	Orders   ports.OrderService
	Users    ports.UserService
	Payments ports.PaymentService
}

// Options configures the HTTP surface.
type Options struct {
	Environment string
	PublicURL   string
	CORSOrigins []string
	// BodyLimit is an echo size string such as "10M". Empty disables the limit.
	BodyLimit string
	// SoftRefresh selects the SoftRefresh auth policy for protected routes.
	SoftRefresh bool
	// UploadDir is served under /uploads when set.
	UploadDir string
	// HealthChecks feed the readiness probe.
	HealthChecks map[string]handler.Check
	// Realtime serves the /ws endpoint when set.
	Realtime http.Handler
	// Metrics mounts the Prometheus middleware and /metrics.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options, svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  opts.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{middleware.NewTokenHeader},
	}))
	if opts.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(opts.BodyLimit))
	}
	if opts.Metrics {
		e.Use(echoprometheus.NewMiddleware("courier_http"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if opts.UploadDir != "" {
		e.Static("/uploads", opts.UploadDir)
	}
	if opts.Realtime != nil {
		e.GET("/ws", echo.WrapHandler(opts.Realtime))
	}

	// --- Handlers ---
	healthHandler := handler.NewHealthHandler(opts.Environment, opts.HealthChecks)
	authHandler := handler.NewAuthHandler(svc.Auth)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	userHandler := handler.NewUserHandler(svc.Users, opts.PublicURL)
	paymentHandler := handler.NewPaymentHandler(svc.Payments)

	policy := middleware.Strict
	if opts.SoftRefresh {
		policy = middleware.SoftRefresh
	}
	requireAuth := middleware.Auth(svc.Auth, policy)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	api := e.Group("/api")

	// --- Health probes (no auth required) ---
	api.GET("/health", healthHandler.Liveness)
	api.GET("/health/ready", healthHandler.Readiness)

	// --- Auth ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/validate", authHandler.Validate, middleware.Auth(svc.Auth, middleware.Lenient))

	// --- Orders ---
	orders := api.Group("/orders", requireAuth)
	orders.GET("", orderHandler.List, requireAdmin)
	orders.POST("", orderHandler.Create)
	orders.GET("/user/:identifier", orderHandler.ListForUser)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus, requireAdmin)
	orders.PATCH("/:id/payment", orderHandler.UpdatePayment, requireAdmin)
	orders.DELETE("/:id", orderHandler.Delete, requireAdmin)

	// --- Users ---
	users := api.Group("/users", requireAuth)
	users.GET("/profile", userHandler.GetProfile)
	users.PUT("/profile", userHandler.UpdateProfile)
	users.GET("", userHandler.List, requireAdmin)
	users.PATCH("/:id/status", userHandler.UpdateStatus, requireAdmin)
	users.DELETE("/:id", userHandler.Delete, requireAdmin)

	// --- Payments ---
	api.POST("/mpesa/callback", paymentHandler.Callback)
	mpesa := api.Group("/mpesa", requireAuth)
	mpesa.POST("/stkpush", paymentHandler.STKPush)
	mpesa.POST("/status", paymentHandler.Status)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

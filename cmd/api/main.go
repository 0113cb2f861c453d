package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/welzyne/courier-system/docs"
	"github.com/welzyne/courier-system/internal/api"
	"github.com/welzyne/courier-system/internal/api/handler"
	"github.com/welzyne/courier-system/internal/core/ports"
	"github.com/welzyne/courier-system/internal/core/service"
	"github.com/welzyne/courier-system/internal/infrastructure/config"
	mongodb "github.com/welzyne/courier-system/internal/infrastructure/db/mongo"
	redisdb "github.com/welzyne/courier-system/internal/infrastructure/db/redis"
	"github.com/welzyne/courier-system/internal/infrastructure/email"
	"github.com/welzyne/courier-system/internal/infrastructure/mpesa"
	"github.com/welzyne/courier-system/internal/infrastructure/queue"
	"github.com/welzyne/courier-system/internal/infrastructure/realtime"
	"github.com/welzyne/courier-system/internal/infrastructure/sms"
	"github.com/welzyne/courier-system/internal/infrastructure/storage"
	"github.com/welzyne/courier-system/internal/infrastructure/telegram"
	"github.com/welzyne/courier-system/pkg/logger"
)

// @title                       Welzyne Courier API
// @version                     1.0
// @description                 Courier booking, tracking and payment API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("courier api stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "courier-api",
		Env:     cfg.Env,
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
		AppName:  "courier-api",
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, orderRepo); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "courier-api",
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable: realtime events stay local and logins are not throttled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	photos, err := storage.NewDiskPhotoStore(cfg.Uploads.Dir, cfg.Uploads.MaxPhotoSize)
	if err != nil {
		return err
	}

	// --- Realtime ---
	hub := realtime.NewHub(logger.Component("realtime"))
	var relay *realtime.RedisRelay
	if rdb != nil {
		relay = realtime.NewRedisRelay(rdb, cfg.Redis.Channel, hub, logger.Component("realtime"))
		hub.SetRelay(relay)
	}

	// --- Transports ---
	notifyOpts := []service.NotificationOption{service.WithCountryCode(cfg.Notifications.CountryCode)}
	paymentOpts := []service.PaymentOption{service.WithPaymentCountryCode(cfg.Notifications.CountryCode)}

	var smsSender ports.SMSSender = sms.NewDisabledSender(logger.Component("sms"))
	if cfg.Twilio.Enabled() {
		smsSender = sms.NewTwilioSender(sms.Config{
			AccountSID:     cfg.Twilio.AccountSID,
			AuthToken:      cfg.Twilio.AuthToken,
			From:           cfg.Twilio.PhoneNumber,
			StatusCallback: cfg.Twilio.StatusCallback,
		})
	} else {
		log.Warn().Msg("twilio not configured: sms notifications will be logged as failed")
	}

	if cfg.EmailJS.Enabled() {
		notifyOpts = append(notifyOpts, service.WithEmailSender(email.NewEmailJSSender(email.Config{
			ServiceID:  cfg.EmailJS.ServiceID,
			TemplateID: cfg.EmailJS.TemplateID,
			PublicKey:  cfg.EmailJS.PublicKey,
			PrivateKey: cfg.EmailJS.PrivateKey,
		})))
	}

	if cfg.Telegram.Enabled() {
		alerter, err := telegram.NewAlerter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerts disabled")
		} else {
			notifyOpts = append(notifyOpts, service.WithAlerter(alerter))
			paymentOpts = append(paymentOpts, service.WithPaymentAlerter(alerter))
		}
	}

	var gateway ports.PaymentGateway
	if cfg.Mpesa.Enabled() {
		baseURL := mpesa.SandboxURL
		if cfg.Mpesa.Env == "production" {
			baseURL = mpesa.ProductionURL
		}
		gateway = mpesa.NewClient(ctx, mpesa.Config{
			BaseURL:         baseURL,
			ConsumerKey:     cfg.Mpesa.ConsumerKey,
			ConsumerSecret:  cfg.Mpesa.ConsumerSecret,
			ShortCode:       cfg.Mpesa.ShortCode,
			PassKey:         cfg.Mpesa.PassKey,
			CallbackBaseURL: cfg.Mpesa.CallbackURL,
			Timeout:         cfg.Mpesa.Timeout,
		})
	} else {
		log.Warn().Msg("mpesa not configured: payment endpoints return 503")
	}

	// --- Services ---
	notifications := service.NewNotificationService(orderRepo, smsSender, logger.Component("notifications"), notifyOpts...)
	dispatcher := queue.NewDispatcher(cfg.Notifications.Workers, cfg.Notifications.QueueSize, notifications, logger.Component("dispatcher"))

	authOpts := []service.AuthOption{}
	if rdb != nil {
		authOpts = append(authOpts, service.WithLoginLimiter(
			redisdb.NewLoginLimiter(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow),
		))
	}
	authService := service.NewAuthService(userRepo, hub, service.AdminAccount{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Phone:    cfg.Admin.Phone,
		Password: cfg.Admin.Password,
	}, cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, logger.Component("auth"), authOpts...)

	if err := authService.EnsureAdmin(ctx); err != nil {
		return err
	}

	orderService := service.NewOrderService(orderRepo, dispatcher, hub, logger.Component("orders"),
		service.WithStrictTransitions(cfg.Orders.StrictTransitions))
	userService := service.NewUserService(userRepo, photos, hub, logger.Component("users"))
	paymentService := service.NewPaymentService(gateway, orderRepo, dispatcher, hub, logger.Component("payments"), paymentOpts...)

	// --- HTTP ---
	checks := map[string]handler.Check{"mongodb": handler.MongoCheck(db)}
	if rdb != nil {
		checks["redis"] = handler.RedisCheck(rdb)
	}

	e := api.NewRouter(api.Options{
		Environment:  cfg.Env,
		PublicURL:    cfg.PublicURL,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		BodyLimit:    cfg.HTTP.BodyLimit,
		SoftRefresh:  cfg.Auth.SoftRefresh,
		UploadDir:    cfg.Uploads.Dir,
		HealthChecks: checks,
		Realtime:     realtime.NewHandler(hub, cfg.HTTP.CORSOrigins, logger.Component("websocket")),
		Metrics:      true,
	}, api.Services{
		Auth:     authService,
		Orders:   orderService,
		Users:    userService,
		Payments: paymentService,
	}, log)

	// --- Lifecycle ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, redis.ErrClosed) {
				return err
			}
			return nil
		})
	}

	dispatcher.Start()

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		return shutdown(e.Shutdown, dispatcher, cfg.HTTP.ShutdownTimeout, log)
	})

	return g.Wait()
}

// shutdown stops accepting requests, then stops the notification dispatcher
// so jobs raised by the last requests are drained before the deadline.
func shutdown(stopHTTP func(context.Context) error, dispatcher *queue.Dispatcher, timeout time.Duration, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := stopHTTP(ctx)

	if derr := dispatcher.Stop(ctx); derr != nil {
		log.Warn().Err(derr).Msg("notification workers did not drain before the shutdown deadline")
	}
	return err
}

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const devJWTSecret = "dev-only-secret-change-me"

type Config struct {
	Port     string `env:"PORT,      default=7001"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// PublicURL is the externally visible origin, used for photo URLs and
	// payment callbacks. Derived from the request when empty.
	PublicURL string `env:"PUBLIC_URL"`

	HTTP          HTTPConfig
	Auth          AuthConfig
	Admin         AdminConfig
	Orders        OrderConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	Twilio        TwilioConfig
	EmailJS       EmailJSConfig
	Mpesa         MpesaConfig
	Telegram      TelegramConfig
	Notifications NotificationConfig
	Uploads       UploadConfig
}

type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS,     default=*"`
	BodyLimit       string        `env:"BODY_LIMIT,       default=10M"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTTTL           time.Duration `env:"JWT_TTL,             default=1h"`
	SoftRefresh      bool          `env:"AUTH_SOFT_REFRESH,   default=false"`
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS,  default=5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,        default=15m"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=welzyneadmin"`
	Password string `env:"ADMIN_PASSWORD, default=welzynecourier"`
	Email    string `env:"ADMIN_EMAIL,    default=admin@welzyne.co.ke"`
	Phone    string `env:"ADMIN_PHONE"`
}

type OrderConfig struct {
	StrictTransitions bool `env:"STRICT_STATUS_TRANSITIONS, default=false"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=courier"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Channel  string `env:"REDIS_CHANNEL,  default=courier:events"`
}

type TwilioConfig struct {
	AccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	PhoneNumber    string `env:"TWILIO_PHONE_NUMBER"`
	StatusCallback string `env:"TWILIO_STATUS_CALLBACK"`
}

// Enabled reports whether every credential needed to send SMS is present.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.PhoneNumber != ""
}

type EmailJSConfig struct {
	ServiceID  string `env:"EMAILJS_SERVICE_ID"`
	TemplateID string `env:"EMAILJS_TEMPLATE_ID"`
	PublicKey  string `env:"EMAILJS_PUBLIC_KEY"`
	PrivateKey string `env:"EMAILJS_PRIVATE_KEY"`
}

func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

type MpesaConfig struct {
	Env            string        `env:"MPESA_ENV,             default=sandbox"`
	ConsumerKey    string        `env:"MPESA_CONSUMER_KEY"`
	ConsumerSecret string        `env:"MPESA_CONSUMER_SECRET"`
	ShortCode      string        `env:"MPESA_SHORTCODE"`
	PassKey        string        `env:"MPESA_PASSKEY"`
	CallbackURL    string        `env:"MPESA_CALLBACK_URL"`
	Timeout        time.Duration `env:"MPESA_TIMEOUT,         default=15s"`
}

func (c MpesaConfig) Enabled() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.ShortCode != "" && c.PassKey != ""
}

type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type NotificationConfig struct {
	Workers     int    `env:"NOTIFY_WORKERS,     default=4"`
	QueueSize   int    `env:"NOTIFY_QUEUE_SIZE,  default=256"`
	CountryCode string `env:"PHONE_COUNTRY_CODE, default=254"`
}

type UploadConfig struct {
	Dir          string `env:"UPLOAD_DIR,            default=uploads"`
	MaxPhotoSize int64  `env:"MAX_PHOTO_SIZE_BYTES,  default=5242880"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env.<ENV> and .env when present, then processes the
// environment. Variables already set in the process win over dotenv files.
func Load(ctx context.Context) (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	for _, f := range []string{".env." + env, ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process builds a Config from lookuper and applies cross-field defaults.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("config: JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Mpesa.CallbackURL == "" {
		cfg.Mpesa.CallbackURL = cfg.PublicURL
	}
	return &cfg, nil
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestProcess_Defaults(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if cfg.Port != "7001" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.Auth.JWTTTL != time.Hour || cfg.Auth.SoftRefresh {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Orders.StrictTransitions {
		t.Fatalf("transitions must be permissive by default")
	}
	if cfg.Notifications.CountryCode != "254" || cfg.Notifications.Workers != 4 {
		t.Fatalf("unexpected notification defaults: %+v", cfg.Notifications)
	}
	if cfg.Admin.Username != "welzyneadmin" || cfg.Admin.Password != "welzynecourier" {
		t.Fatalf("unexpected admin defaults: %+v", cfg.Admin)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Fatalf("expected development jwt secret")
	}
	if cfg.Mpesa.Timeout != 15*time.Second || cfg.Mpesa.Enabled() || cfg.Twilio.Enabled() {
		t.Fatalf("unexpected mpesa/twilio defaults")
	}
}

func TestProcess_ProductionRequiresSecret(t *testing.T) {
	_, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	if err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestProcess_Overrides(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                       "production",
		"JWT_SECRET":                "s3cret",
		"AUTH_SOFT_REFRESH":         "true",
		"STRICT_STATUS_TRANSITIONS": "true",
		"CORS_ORIGINS":              "https://welzyne.co.ke,https://admin.welzyne.co.ke",
		"PUBLIC_URL":                "https://api.welzyne.co.ke",
		"TELEGRAM_BOT_TOKEN":        "123:abc",
		"TELEGRAM_CHAT_ID":          "-100200",
	}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !cfg.Auth.SoftRefresh || !cfg.Orders.StrictTransitions {
		t.Fatalf("flags not applied")
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Mpesa.CallbackURL != "https://api.welzyne.co.ke" {
		t.Fatalf("callback url should default to the public url, got %q", cfg.Mpesa.CallbackURL)
	}
	if !cfg.Telegram.Enabled() || cfg.Telegram.ChatID != -100200 {
		t.Fatalf("unexpected telegram config: %+v", cfg.Telegram)
	}
}

package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

const (
	provider        = "emailjs"
	defaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
	defaultTimeout  = 10 * time.Second
)

// Config identifies the EmailJS service and template used for order emails.
type Config struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
}

// EmailJSSender implements ports.EmailSender over the EmailJS REST API.
type EmailJSSender struct {
	cfg    Config
	client *http.Client
}

func NewEmailJSSender(cfg Config) *EmailJSSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &EmailJSSender{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams map[string]any `json:"template_params"`
}

func (s *EmailJSSender) SendEmail(ctx context.Context, msg ports.EmailMessage) error {
	params := make(map[string]any, len(msg.Params)+1)
	for k, v := range msg.Params {
		params[k] = v
	}
	params["to_email"] = msg.To

	body, err := json.Marshal(sendRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.PublicKey,
		AccessToken:    s.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.TransportError{Provider: provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.TransportError{Provider: provider, Code: resp.StatusCode, Message: string(bytes.TrimSpace(text))}
	}
	return nil
}

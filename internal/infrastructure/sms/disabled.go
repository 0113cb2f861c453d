package sms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// ErrNotConfigured is reported for every send when no SMS provider is set up.
var ErrNotConfigured = &domain.TransportError{Provider: "sms", Message: "SMS transport not configured"}

// DisabledSender stands in for Twilio when credentials are absent. Sends fail
// so the notification log records that nothing was delivered.
type DisabledSender struct {
	log zerolog.Logger
}

func NewDisabledSender(log zerolog.Logger) *DisabledSender {
	return &DisabledSender{log: log}
}

func (s *DisabledSender) SendSMS(_ context.Context, to, body string) (string, error) {
	s.log.Debug().Str("to", to).Int("length", len(body)).Msg("sms skipped: transport not configured")
	return "", ErrNotConfigured
}

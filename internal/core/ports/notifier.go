package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// Notifier triggers an external notification for an order lifecycle event.
// Implementations never report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, kind domain.NotificationKind, order domain.Order)
}

// SMSSender delivers a text message to an E.164 number. Provider failures are
// returned as *domain.TransportError.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (messageID string, err error)
}

// EmailMessage is a templated email addressed to one recipient.
type EmailMessage struct {
	To     string
	Params map[string]any
}

// EmailSender delivers a templated email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// Alerter posts operational alerts to staff.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

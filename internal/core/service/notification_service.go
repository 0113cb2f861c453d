package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// MaxSMSLength is the longest body the SMS provider accepts.
const MaxSMSLength = 1600

var errMessageTooLong = fmt.Errorf("message too long (max %d characters)", MaxSMSLength)

// NotificationService formats lifecycle messages for both parties of an order,
// sends them and appends the outcome to the order's notification log. It is
// the synchronous worker behind the queued Notifier.
type NotificationService struct {
	orders      ports.OrderRepository
	sms         ports.SMSSender
	email       ports.EmailSender
	alerter     ports.Alerter
	countryCode string
	logger      zerolog.Logger
	now         func() time.Time
}

// NotificationOption customises a NotificationService.
type NotificationOption func(*NotificationService)

// WithEmailSender enables booking and payment emails.
func WithEmailSender(e ports.EmailSender) NotificationOption {
	return func(s *NotificationService) { s.email = e }
}

// WithAlerter enables staff alerts for new bookings.
func WithAlerter(a ports.Alerter) NotificationOption {
	return func(s *NotificationService) { s.alerter = a }
}

// WithCountryCode sets the calling code used to normalise phone numbers.
func WithCountryCode(cc string) NotificationOption {
	return func(s *NotificationService) { s.countryCode = cc }
}

// WithNotificationClock overrides the log entry timestamp source.
func WithNotificationClock(now func() time.Time) NotificationOption {
	return func(s *NotificationService) { s.now = now }
}

func NewNotificationService(
	orders ports.OrderRepository,
	sms ports.SMSSender,
	logger zerolog.Logger,
	opts ...NotificationOption,
) *NotificationService {
	s := &NotificationService{
		orders:      orders,
		sms:         sms,
		countryCode: DefaultCountryCode,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify implements ports.Notifier. Failures are logged and recorded on the
// order, never returned.
func (s *NotificationService) Notify(ctx context.Context, kind domain.NotificationKind, order domain.Order) {
	if _, err := s.Send(ctx, kind, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Str("kind", string(kind)).Msg("notification log append failed")
	}
}

// Send dispatches one notification and appends exactly one log entry to the
// order. The returned error only reports a failure to persist the entry.
func (s *NotificationService) Send(ctx context.Context, kind domain.NotificationKind, order domain.Order) (domain.NotificationLogEntry, error) {
	entry := domain.NotificationLogEntry{Type: kind}

	senderMsg, recipientMsg := FormatMessages(kind, order)

	var g errgroup.Group
	g.Go(func() error {
		entry.Sender = s.sendSMS(ctx, order.ID, "sender", order.Phone, senderMsg)
		return nil
	})
	g.Go(func() error {
		entry.Recipient = s.sendSMS(ctx, order.ID, "recipient", order.RecipientPhone, recipientMsg)
		return nil
	})
	_ = g.Wait()

	if s.email != nil && order.Email != "" && (kind == domain.NotifyBooking || kind == domain.NotifyPaymentConfirmed) {
		outcome := s.sendEmail(ctx, kind, order)
		entry.Email = &outcome
	}

	if s.alerter != nil && kind == domain.NotifyBooking {
		if err := s.alerter.Alert(ctx, bookingAlert(order)); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("ops alert failed")
		}
	}

	entry.Success = entry.Sender.Success && entry.Recipient.Success
	entry.Timestamp = s.now().UTC()

	if err := s.orders.AppendNotification(ctx, order.ID, entry); err != nil {
		return entry, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("kind", string(kind)).
		Bool("sender", entry.Sender.Success).
		Bool("recipient", entry.Recipient.Success).
		Msg("notification dispatched")

	return entry, nil
}

func (s *NotificationService) sendSMS(ctx context.Context, orderID, party, phone, body string) domain.DeliveryOutcome {
	to := NormalizePhone(phone, s.countryCode)
	out := domain.DeliveryOutcome{Attempted: true, To: to}

	if to == "" {
		out.Error = "missing phone number"
		return out
	}
	if len(body) > MaxSMSLength {
		out.Error = errMessageTooLong.Error()
		return out
	}

	id, err := s.sms.SendSMS(ctx, to, body)
	if err != nil {
		out.Error = err.Error()
		var te *domain.TransportError
		if errors.As(err, &te) {
			out.ErrorCode = te.Code
			out.Error = te.Message
		}
		s.logger.Warn().
			Err(err).
			Str("order_id", orderID).
			Str("party", party).
			Int("code", out.ErrorCode).
			Msg("sms delivery failed")
		return out
	}

	out.Success = true
	out.MessageID = id
	return out
}

func (s *NotificationService) sendEmail(ctx context.Context, kind domain.NotificationKind, order domain.Order) domain.DeliveryOutcome {
	out := domain.DeliveryOutcome{Attempted: true, To: order.Email}
	if err := s.email.SendEmail(ctx, ports.EmailMessage{To: order.Email, Params: EmailParams(kind, order)}); err != nil {
		out.Error = err.Error()
		s.logger.Warn().Err(err).Str("order_id", order.ID).Str("party", "email").Msg("email delivery failed")
		return out
	}
	out.Success = true
	return out
}

// FormatMessages renders the sender and recipient texts for kind.
func FormatMessages(kind domain.NotificationKind, o domain.Order) (sender, recipient string) {
	switch kind {
	case domain.NotifyBooking:
		sender = fmt.Sprintf("Dear %s, your courier (#%s) from %s to %s has been booked. Recipient: %s (%s). Status: %s. Thank you for choosing us!",
			o.Customer, o.ID, o.PickupLocation, o.Destination, o.RecipientName, o.RecipientPhone, o.Status)
		recipient = fmt.Sprintf("Hello %s, a package (#%s) from %s (%s) is on its way to you at %s. Current status: %s.",
			o.RecipientName, o.ID, o.Customer, o.Phone, o.Destination, o.Status)
	case domain.NotifyPaymentConfirmed:
		sender = fmt.Sprintf("Dear %s, payment of KES %s for courier #%s has been confirmed. Thank you!",
			o.Customer, formatAmount(o.Amount), o.ID)
		recipient = fmt.Sprintf("Hello %s, the package (#%s) from %s has been paid for and will be dispatched to %s.",
			o.RecipientName, o.ID, o.Customer, o.Destination)
	default:
		sender = fmt.Sprintf("Update for courier #%s: Your package to %s is now %q.",
			o.ID, o.RecipientName, string(o.Status))
		recipient = fmt.Sprintf("Update for package #%s from %s: Status changed to %q.",
			o.ID, o.Customer, string(o.Status))
	}
	return sender, recipient
}

// EmailParams builds the template variables of the booking/payment email.
func EmailParams(kind domain.NotificationKind, o domain.Order) map[string]any {
	payment := "Pending"
	if kind == domain.NotifyPaymentConfirmed {
		payment = "Confirmed (Manual M-Pesa Verification)"
	}
	whole := "No"
	if o.WholeBooking {
		whole = "Yes"
	}
	return map[string]any{
		"parcelNumber": o.ID,
		"userName":     o.Customer,
		"userEmail":    o.Email,
		"payment":      payment,
		"mpesa":        o.MpesaNumber,
		"price":        o.Amount,
		"pickup":       o.PickupLocation,
		"delivery":     o.Destination,
		"details":      o.PackageDetails,
		"type":         o.CourierType,
		"wholeBooking": whole,
	}
}

func bookingAlert(o domain.Order) string {
	return fmt.Sprintf("New booking %s\n%s (%s)\n%s -> %s\n%s, KES %s",
		o.ID, o.Customer, o.Phone, o.PickupLocation, o.Destination, o.CourierType, formatAmount(o.Amount))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

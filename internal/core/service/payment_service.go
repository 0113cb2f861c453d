package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// PaymentService drives M-Pesa STK push payments for orders.
type PaymentService struct {
	gateway     ports.PaymentGateway
	orders      ports.OrderRepository
	notifier    ports.Notifier
	broadcaster ports.Broadcaster
	alerter     ports.Alerter
	countryCode string
	logger      zerolog.Logger
}

// PaymentOption customises a PaymentService.
type PaymentOption func(*PaymentService)

// WithPaymentAlerter posts failed payments to the ops channel.
func WithPaymentAlerter(a ports.Alerter) PaymentOption {
	return func(s *PaymentService) { s.alerter = a }
}

// WithPaymentCountryCode sets the calling code used for MSISDNs.
func WithPaymentCountryCode(cc string) PaymentOption {
	return func(s *PaymentService) { s.countryCode = cc }
}

// NewPaymentService builds the service. gateway may be nil, in which case
// every operation fails with domain.ErrPaymentUnavailable.
func NewPaymentService(
	gateway ports.PaymentGateway,
	orders ports.OrderRepository,
	notifier ports.Notifier,
	broadcaster ports.Broadcaster,
	logger zerolog.Logger,
	opts ...PaymentOption,
) *PaymentService {
	s := &PaymentService{
		gateway:     gateway,
		orders:      orders,
		notifier:    notifier,
		broadcaster: broadcaster,
		countryCode: DefaultCountryCode,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitiateSTKPush prompts phone to pay amount for orderID and remembers the
// checkout request on the order.
func (s *PaymentService) InitiateSTKPush(ctx context.Context, orderID, phone string, amount int64) (*ports.STKPushResponse, error) {
	if s.gateway == nil {
		return nil, domain.ErrPaymentUnavailable
	}

	var missing []string
	if orderID == "" {
		missing = append(missing, "orderId")
	}
	if phone == "" {
		missing = append(missing, "phoneNumber")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		amount = int64(math.Ceil(order.Amount))
	}
	if amount <= 0 {
		return nil, domain.NewValidationError("amount must be greater than zero")
	}

	resp, err := s.gateway.STKPush(ctx, ports.STKPushRequest{
		PhoneNumber: MSISDN(phone, s.countryCode),
		Amount:      amount,
		Reference:   order.ID,
		Description: fmt.Sprintf("Courier payment %s", order.ID),
	})
	if err != nil {
		return nil, err
	}

	checkout := resp.CheckoutRequestID
	if _, err := s.orders.UpdatePayment(ctx, order.ID, ports.PaymentUpdate{
		MpesaCheckoutRequestID: &checkout,
	}); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("checkout_request_id", checkout).
		Int64("amount", amount).
		Msg("stk push initiated")

	return resp, nil
}

// HandleCallback applies the gateway's final result to the matching order.
func (s *PaymentService) HandleCallback(ctx context.Context, cb ports.PaymentCallback) (*domain.Order, error) {
	if cb.CheckoutRequestID == "" {
		return nil, &domain.ValidationError{Fields: []string{"CheckoutRequestID"}}
	}

	order, err := s.orders.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		return nil, err
	}

	if cb.ResultCode != 0 {
		status := domain.PaymentFailed
		msg := cb.ResultDesc
		updated, err := s.orders.UpdatePayment(ctx, order.ID, ports.PaymentUpdate{
			Status:  &status,
			Message: &msg,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Warn().
			Str("order_id", order.ID).
			Int("result_code", cb.ResultCode).
			Str("result_desc", cb.ResultDesc).
			Msg("mpesa payment failed")
		s.broadcaster.Publish(ctx, domain.PaymentFailedEvent(order.ID, cb.ResultDesc))
		if s.alerter != nil {
			text := fmt.Sprintf("Payment failed for %s: %s", order.ID, cb.ResultDesc)
			if err := s.alerter.Alert(ctx, text); err != nil {
				s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("ops alert failed")
			}
		}
		return updated, nil
	}

	confirmed := true
	status := domain.PaymentCompleted
	verifiedBy := "mpesa"
	msg := cb.ResultDesc
	receipt := cb.ReceiptNumber
	txDate := cb.TransactionDate
	updated, err := s.orders.UpdatePayment(ctx, order.ID, ports.PaymentUpdate{
		Confirmed:            &confirmed,
		Status:               &status,
		VerifiedBy:           &verifiedBy,
		MpesaReceiptNumber:   &receipt,
		MpesaTransactionDate: &txDate,
		Message:              &msg,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("receipt", receipt).
		Msg("mpesa payment confirmed")

	s.notifier.Notify(ctx, domain.NotifyPaymentConfirmed, *updated)
	s.broadcaster.Publish(ctx, domain.OrderUpdated(updated))
	return updated, nil
}

func (s *PaymentService) QueryStatus(ctx context.Context, checkoutRequestID string) (*ports.STKQueryResponse, error) {
	if s.gateway == nil {
		return nil, domain.ErrPaymentUnavailable
	}
	if checkoutRequestID == "" {
		return nil, &domain.ValidationError{Fields: []string{"checkoutRequestId"}}
	}
	return s.gateway.QueryStatus(ctx, checkoutRequestID)
}

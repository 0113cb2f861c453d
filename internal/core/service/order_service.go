package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// OrderService implements booking, tracking and admin order operations.
type OrderService struct {
	repo              ports.OrderRepository
	notifier          ports.Notifier
	broadcaster       ports.Broadcaster
	strictTransitions bool
	logger            zerolog.Logger
	now               func() time.Time
}

// OrderOption customises an OrderService.
type OrderOption func(*OrderService)

// WithStrictTransitions rejects status changes that skip lifecycle steps.
func WithStrictTransitions(strict bool) OrderOption {
	return func(s *OrderService) { s.strictTransitions = strict }
}

// WithOrderClock overrides the time source for booking dates.
func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(
	repo ports.OrderRepository,
	notifier ports.Notifier,
	broadcaster ports.Broadcaster,
	logger zerolog.Logger,
	opts ...OrderOption,
) *OrderService {
	s := &OrderService{
		repo:        repo,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates and stores a booking, then queues the booking
// notification and broadcasts NEW_ORDER.
func (s *OrderService) CreateOrder(ctx context.Context, caller ports.Caller, in ports.CreateOrderInput) (*domain.Order, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" && !caller.IsAdmin() {
		email = caller.Email
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:             strings.TrimSpace(in.ID),
		Customer:       strings.TrimSpace(in.Customer),
		Email:          email,
		Phone:          strings.TrimSpace(in.Phone),
		RecipientName:  strings.TrimSpace(in.RecipientName),
		RecipientPhone: strings.TrimSpace(in.RecipientPhone),
		PickupLocation: strings.TrimSpace(in.PickupLocation),
		Destination:    strings.TrimSpace(in.Destination),
		PackageDetails: in.PackageDetails,
		Amount:         in.Amount,
		CourierType:    in.CourierType,
		WholeBooking:   in.WholeBooking,
		Status:         domain.StatusOrderPlaced,
		Date:           now,
		Payment: domain.Payment{
			Mode:        in.PaymentMode,
			MpesaNumber: in.MpesaNumber,
			Status:      domain.PaymentPending,
		},
		Notifications: []domain.NotificationLogEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if order.CourierType == "" {
		order.CourierType = domain.CourierStandard
	}
	if order.Payment.Mode == "" {
		order.Payment.Mode = domain.PaymentModeMpesa
	}

	if missing := order.MissingFields(); len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing}
	}
	if order.Amount < 0 {
		return nil, domain.NewValidationError("amount must not be negative")
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("courier_type", order.CourierType).
		Msg("order created")

	s.notifier.Notify(ctx, domain.NotifyBooking, *order)
	s.broadcaster.Publish(ctx, domain.OrderCreated(order))

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// ListOrdersForUser returns the orders booked with identifier as email or
// phone. Non-admins may only ask for their own identifier.
func (s *OrderService) ListOrdersForUser(ctx context.Context, caller ports.Caller, identifier string) ([]*domain.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &domain.ValidationError{Fields: []string{"identifier"}}
	}
	if !caller.IsAdmin() && !caller.Owns(identifier) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListByIdentifier(ctx, identifier)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateStatus moves an order to status, queues a status_update notification
// and broadcasts ORDER_UPDATED.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, &domain.ValidationError{Fields: []string{"status"}}
	}
	next := domain.OrderStatus(status)
	if !next.Valid() {
		return nil, domain.NewValidationError("invalid status %q", status)
	}

	if s.strictTransitions {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.Status.CanTransitionTo(next) {
			return nil, domain.ErrInvalidTransition
		}
	}

	order, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", id).Str("status", status).Msg("order status updated")

	s.notifier.Notify(ctx, domain.NotifyStatusUpdate, *order)
	s.broadcaster.Publish(ctx, domain.OrderUpdated(order))

	return order, nil
}

// UpdatePayment records a manual payment verification by caller.
func (s *OrderService) UpdatePayment(ctx context.Context, caller ports.Caller, id string, in ports.UpdatePaymentInput) (*domain.Order, error) {
	status := in.Status
	if status == "" {
		status = domain.PaymentPending
		if in.Confirmed {
			status = domain.PaymentCompleted
		}
	}
	switch status {
	case domain.PaymentPending, domain.PaymentCompleted, domain.PaymentFailed:
	default:
		return nil, domain.NewValidationError("invalid payment status %q", in.Status)
	}

	verifiedBy := ""
	if in.Confirmed {
		verifiedBy = caller.ID
	}
	confirmed := in.Confirmed
	msg := in.ConfirmationMessage

	order, err := s.repo.UpdatePayment(ctx, id, ports.PaymentUpdate{
		Confirmed:           &confirmed,
		Status:              &status,
		ConfirmationMessage: &msg,
		VerifiedBy:          &verifiedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id).
		Bool("confirmed", confirmed).
		Str("verified_by", verifiedBy).
		Msg("order payment updated")

	if confirmed {
		s.notifier.Notify(ctx, domain.NotifyPaymentConfirmed, *order)
	}
	s.broadcaster.Publish(ctx, domain.OrderUpdated(order))

	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("order_id", id).Msg("order deleted")
	s.broadcaster.Publish(ctx, domain.OrderDeleted(id))
	return nil
}

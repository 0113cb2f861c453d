package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// PaymentUpdate carries the fields written by a manual or gateway payment
// confirmation. Nil pointers are left untouched.
type PaymentUpdate struct {
	Confirmed              *bool
	Status                 *string
	ConfirmationMessage    *string
	VerifiedBy             *string
	MpesaCheckoutRequestID *string
	MpesaReceiptNumber     *string
	MpesaTransactionDate   *string
	Message                *string
}

// OrderRepository defines persistence operations for orders. All mutations
// are single-document writes.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]*domain.Order, error)
	// ListByIdentifier returns orders whose email or phone equals identifier, newest first.
	ListByIdentifier(ctx context.Context, identifier string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, update PaymentUpdate) (*domain.Order, error)
	AppendNotification(ctx context.Context, id string, entry domain.NotificationLogEntry) error
	Delete(ctx context.Context, id string) error
}

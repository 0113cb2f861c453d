package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// Caller identifies the authenticated actor of a request.
type Caller struct {
	ID    string
	Role  string
	Email string
	Phone string
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// Owns reports whether identifier refers to the caller.
func (c Caller) Owns(identifier string) bool {
	return identifier != "" && (identifier == c.Email || identifier == c.Phone)
}

// CreateOrderInput carries a booking submission.
type CreateOrderInput struct {
	ID             string
	Customer       string
	Email          string
	Phone          string
	RecipientName  string
	RecipientPhone string
	PickupLocation string
	Destination    string
	PackageDetails string
	Amount         float64
	CourierType    string
	WholeBooking   bool
	PaymentMode    string
	MpesaNumber    string
}

// UpdatePaymentInput carries a manual payment confirmation.
type UpdatePaymentInput struct {
	Confirmed           bool
	Status              string
	ConfirmationMessage string
}

type OrderService interface {
	CreateOrder(ctx context.Context, caller Caller, in CreateOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersForUser(ctx context.Context, caller Caller, identifier string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, caller Caller, id string, in UpdatePaymentInput) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

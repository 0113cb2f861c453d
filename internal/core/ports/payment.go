package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// STKPushRequest asks the gateway to prompt a phone for payment.
type STKPushRequest struct {
	PhoneNumber string
	Amount      int64
	Reference   string
	Description string
}

// STKPushResponse is the gateway acknowledgment of a push request.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKQueryResponse reports the state of a previously pushed request.
type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// PaymentGateway is the mobile-money provider.
type PaymentGateway interface {
	STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error)
}

// PaymentCallback is the normalised gateway result for one checkout.
type PaymentCallback struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	TransactionDate   string
	PhoneNumber       string
}

type PaymentService interface {
	InitiateSTKPush(ctx context.Context, orderID, phone string, amount int64) (*STKPushResponse, error)
	HandleCallback(ctx context.Context, cb PaymentCallback) (*domain.Order, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error)
}

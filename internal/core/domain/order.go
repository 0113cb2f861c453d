package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// OrderStatus represents the lifecycle stage of an order.
type OrderStatus string

const (
	StatusOrderPlaced    OrderStatus = "Order Placed"
	StatusProcessing     OrderStatus = "Processing"
	StatusInTransit      OrderStatus = "In Transit"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

const (
	CourierStandard = "standard"
	CourierExpress  = "express"
	CourierSameDay  = "same-day"
)

const (
	PaymentModeMpesa = "mpesa"
	PaymentModeCash  = "cash"
)

const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
)

// CarrierCode prefixes every parcel number.
const CarrierCode = "WELZYNE"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrderID  = errors.New("order with this ID already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var statuses = []OrderStatus{
	StatusOrderPlaced,
	StatusProcessing,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// validTransitions is consulted only when strict transitions are enabled.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusOrderPlaced:    {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusInTransit, StatusCancelled},
	StatusInTransit:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
}

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next directly follows s. Setting the same
// status again is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func (s OrderStatus) NextStatuses() []OrderStatus {
	return append([]OrderStatus(nil), validTransitions[s]...)
}

// Order is a single courier booking.
type Order struct {
	ID             string      `json:"id" bson:"id"`
	Customer       string      `json:"customer" bson:"customer"`
	Email          string      `json:"email" bson:"email"`
	Phone          string      `json:"phone" bson:"phone"`
	RecipientName  string      `json:"recipientName" bson:"recipientName"`
	RecipientPhone string      `json:"recipientPhone" bson:"recipientPhone"`
	PickupLocation string      `json:"pickupLocation" bson:"pickupLocation"`
	Destination    string      `json:"destination" bson:"destination"`
	PackageDetails string      `json:"packageDetails" bson:"packageDetails"`
	Amount         float64     `json:"amount" bson:"amount"`
	CourierType    string      `json:"courierType" bson:"courierType"`
	WholeBooking   bool        `json:"wholeBooking" bson:"wholeBooking"`
	Status         OrderStatus `json:"status" bson:"status"`
	Date           time.Time   `json:"date" bson:"date"`

	Payment `bson:",inline"`

	Notifications []NotificationLogEntry `json:"notifications" bson:"notifications"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Payment holds the commercial settlement fields of an order.
type Payment struct {
	Mode                   string     `json:"paymentMode" bson:"paymentMode"`
	MpesaNumber            string     `json:"mpesaNumber,omitempty" bson:"mpesaNumber,omitempty"`
	Status                 string     `json:"paymentStatus" bson:"paymentStatus"`
	Confirmed              bool       `json:"paymentConfirmed" bson:"paymentConfirmed"`
	ConfirmationMessage    string     `json:"mpesaConfirmationMessage,omitempty" bson:"mpesaConfirmationMessage,omitempty"`
	VerificationDate       *time.Time `json:"paymentVerificationDate,omitempty" bson:"paymentVerificationDate,omitempty"`
	VerifiedBy             string     `json:"paymentVerifiedBy,omitempty" bson:"paymentVerifiedBy,omitempty"`
	MpesaCheckoutRequestID string     `json:"mpesaCheckoutRequestId,omitempty" bson:"mpesaCheckoutRequestId,omitempty"`
	MpesaReceiptNumber     string     `json:"mpesaReceiptNumber,omitempty" bson:"mpesaReceiptNumber,omitempty"`
	MpesaTransactionDate   string     `json:"mpesaTransactionDate,omitempty" bson:"mpesaTransactionDate,omitempty"`
	Message                string     `json:"paymentMessage,omitempty" bson:"paymentMessage,omitempty"`
}

// MissingFields returns the json names of required fields that are empty.
func (o *Order) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"id", o.ID},
		{"customer", o.Customer},
		{"email", o.Email},
		{"phone", o.Phone},
		{"recipientName", o.RecipientName},
		{"recipientPhone", o.RecipientPhone},
		{"pickupLocation", o.PickupLocation},
		{"destination", o.Destination},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// GenerateParcelNumber returns an id in the CARRIER-TYPE-NNNN format,
// e.g. WELZYNE-EXPRESS-4821.
func GenerateParcelNumber(courierType string) string {
	if courierType == "" {
		courierType = CourierStandard
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(1000)
	if err == nil {
		suffix += n.Int64()
	} else {
		suffix += time.Now().UnixNano() % 9000
	}
	return fmt.Sprintf("%s-%s-%d", CarrierCode, strings.ToUpper(courierType), suffix)
}

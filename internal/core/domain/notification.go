package domain

import "time"

// NotificationKind identifies which lifecycle moment triggered a dispatch.
type NotificationKind string

const (
	NotifyBooking          NotificationKind = "booking"
	NotifyStatusUpdate     NotificationKind = "status_update"
	NotifyPaymentConfirmed NotificationKind = "payment_confirmed"
)

// DeliveryOutcome is the result of one message send to one party.
type DeliveryOutcome struct {
	Attempted bool   `json:"attempted" bson:"attempted"`
	Success   bool   `json:"success" bson:"success"`
	To        string `json:"to,omitempty" bson:"to,omitempty"`
	MessageID string `json:"messageId,omitempty" bson:"messageId,omitempty"`
	ErrorCode int    `json:"errorCode,omitempty" bson:"errorCode,omitempty"`
	Error     string `json:"error,omitempty" bson:"error,omitempty"`
}

// NotificationLogEntry is one append-only audit record of a dispatch attempt.
type NotificationLogEntry struct {
	Type      NotificationKind `json:"type" bson:"type"`
	Success   bool             `json:"success" bson:"success"`
	Sender    DeliveryOutcome  `json:"sender" bson:"sender"`
	Recipient DeliveryOutcome  `json:"recipient" bson:"recipient"`
	Email     *DeliveryOutcome `json:"email,omitempty" bson:"email,omitempty"`
	Timestamp time.Time        `json:"timestamp" bson:"timestamp"`
}

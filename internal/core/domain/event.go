package domain

import "encoding/json"

// EventType discriminates broadcast payloads.
type EventType string

const (
	EventNewOrder      EventType = "NEW_ORDER"
	EventOrderUpdated  EventType = "ORDER_UPDATED"
	EventOrderDeleted  EventType = "ORDER_DELETED"
	EventNewUser       EventType = "NEW_USER"
	EventUserUpdated   EventType = "USER_UPDATED"
	EventUserDeleted   EventType = "USER_DELETED"
	EventPaymentFailed EventType = "PAYMENT_FAILED"
)

// Event is a state-change notification pushed to real-time clients.
// Exactly one of the payload fields is set, depending on Type.
type Event struct {
	Type    EventType `json:"type"`
	Order   *Order    `json:"order,omitempty"`
	OrderID string    `json:"orderId,omitempty"`
	User    *User     `json:"user,omitempty"`
	UserID  string    `json:"userId,omitempty"`
	Message string    `json:"message,omitempty"`
}

func OrderCreated(o *Order) Event { return Event{Type: EventNewOrder, Order: o} }

func OrderUpdated(o *Order) Event { return Event{Type: EventOrderUpdated, Order: o} }

func OrderDeleted(id string) Event { return Event{Type: EventOrderDeleted, OrderID: id} }

func UserCreated(u *User) Event { return Event{Type: EventNewUser, User: u} }

func UserUpdated(u *User) Event { return Event{Type: EventUserUpdated, User: u} }

func UserDeleted(id string) Event { return Event{Type: EventUserDeleted, UserID: id} }

func PaymentFailedEvent(orderID, message string) Event {
	return Event{Type: EventPaymentFailed, OrderID: orderID, Message: message}
}

// Encode renders the event envelope sent over the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Package courierclient is a Go client for the courier API. It keeps a
// persisted session, follows token refreshes issued by the server and
// exposes the route guard used by dashboards.
package courierclient

import (
	"fmt"
	"time"
)

// Roles understood by the API.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	PhotoURL       string `json:"photoUrl,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Address        string `json:"address,omitempty"`
	MembershipType string `json:"membershipType,omitempty"`
}

type Order struct {
	ID               string    `json:"id"`
	Customer         string    `json:"customer"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	RecipientName    string    `json:"recipientName"`
	RecipientPhone   string    `json:"recipientPhone"`
	PickupLocation   string    `json:"pickupLocation"`
	Destination      string    `json:"destination"`
	PackageDetails   string    `json:"packageDetails"`
	Amount           float64   `json:"amount"`
	CourierType      string    `json:"courierType"`
	WholeBooking     bool      `json:"wholeBooking"`
	Status           string    `json:"status"`
	Date             time.Time `json:"date"`
	PaymentMode      string    `json:"paymentMode"`
	PaymentStatus    string    `json:"paymentStatus"`
	PaymentConfirmed bool      `json:"paymentConfirmed"`
}

// BookingRequest is the payload for booking a courier.
type BookingRequest struct {
	ID             string  `json:"id"`
	Customer       string  `json:"customer"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone"`
	RecipientName  string  `json:"recipientName"`
	RecipientPhone string  `json:"recipientPhone"`
	PickupLocation string  `json:"pickupLocation"`
	Destination    string  `json:"destination"`
	PackageDetails string  `json:"packageDetails"`
	Amount         float64 `json:"amount"`
	CourierType    string  `json:"courierType"`
	WholeBooking   bool    `json:"wholeBooking"`
	PaymentMode    string  `json:"paymentMode,omitempty"`
	MpesaNumber    string  `json:"mpesaNumber,omitempty"`
}

// APIError is a non-2xx response carrying the server's message envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("courier api: %d %s", e.Status, e.Message)
}

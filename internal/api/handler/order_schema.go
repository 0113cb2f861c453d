package handler

// createOrderRequest is the booking payload. Required fields are checked by
// the order service so that a missing email can default to the caller's.
type createOrderRequest struct {
	ID             string  `json:"id"`
	Customer       string  `json:"customer"`
	Email          string  `json:"email"          validate:"omitempty,email"`
	Phone          string  `json:"phone"`
	RecipientName  string  `json:"recipientName"`
	RecipientPhone string  `json:"recipientPhone"`
	PickupLocation string  `json:"pickupLocation"`
	Destination    string  `json:"destination"`
	PackageDetails string  `json:"packageDetails"`
	Amount         float64 `json:"amount"         validate:"gte=0"`
	CourierType    string  `json:"courierType"    validate:"omitempty,oneof=standard express same-day"`
	WholeBooking   bool    `json:"wholeBooking"`
	PaymentMode    string  `json:"paymentMode"    validate:"omitempty,oneof=mpesa cash"`
	MpesaNumber    string  `json:"mpesaNumber"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updatePaymentRequest struct {
	PaymentConfirmed         bool   `json:"paymentConfirmed"`
	PaymentStatus            string `json:"paymentStatus"            validate:"omitempty,oneof=Pending Completed Failed"`
	MpesaConfirmationMessage string `json:"mpesaConfirmationMessage"`
}

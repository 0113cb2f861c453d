package handler

import (
	"encoding/json"
	"strconv"

	"github.com/welzyne/courier-system/internal/core/ports"
)

type stkPushRequest struct {
	PhoneNumber string  `json:"phoneNumber" validate:"required"`
	Amount      float64 `json:"amount"      validate:"gte=0"`
	OrderID     string  `json:"orderId"     validate:"required"`
}

type stkStatusRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId" validate:"required"`
}

type paymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// stkCallbackEnvelope is the body Daraja posts to the callback URL.
type stkCallbackEnvelope struct {
	Body *struct {
		STKCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []callbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// callbackItem values arrive as numbers or strings depending on the field.
type callbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

func (i callbackItem) text() string {
	var s string
	if err := json.Unmarshal(i.Value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(i.Value, &n); err == nil {
		return n.String()
	}
	return ""
}

// toPaymentCallback flattens the Daraja callback into the service type.
func (cb *stkCallback) toPaymentCallback() ports.PaymentCallback {
	out := ports.PaymentCallback{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	if cb.CallbackMetadata == nil {
		return out
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			out.Amount, _ = strconv.ParseFloat(item.text(), 64)
		case "MpesaReceiptNumber":
			out.ReceiptNumber = item.text()
		case "TransactionDate":
			out.TransactionDate = item.text()
		case "PhoneNumber":
			out.PhoneNumber = item.text()
		}
	}
	return out
}

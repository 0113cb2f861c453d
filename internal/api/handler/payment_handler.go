package handler

import (
	"errors"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/api/metrics"
	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// PaymentHandler exposes M-Pesa STK push initiation, status queries and the
// gateway callback.
type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// STKPush handles POST /api/mpesa/stkpush.
//
// @Summary      Prompt a phone to pay for an order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      stkPushRequest  true  "Payment request"
// @Success      200   {object}  paymentResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/mpesa/stkpush [post]
func (h *PaymentHandler) STKPush(c echo.Context) error {
	var req stkPushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.service.InitiateSTKPush(c.Request().Context(), req.OrderID, req.PhoneNumber, int64(math.Ceil(req.Amount)))
	if err != nil {
		metrics.PaymentInitiationsTotal.WithLabelValues(initiationResult(err)).Inc()
		return err
	}

	metrics.PaymentInitiationsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusOK, paymentResponse{Success: true, Message: "STK push initiated", Data: resp})
}

// Status handles POST /api/mpesa/status.
//
// @Summary      Query an STK push
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      stkStatusRequest  true  "Checkout request"
// @Success      200   {object}  paymentResponse
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/mpesa/status [post]
func (h *PaymentHandler) Status(c echo.Context) error {
	var req stkStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.service.QueryStatus(c.Request().Context(), req.CheckoutRequestID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentResponse{Success: true, Data: resp})
}

// Callback handles POST /api/mpesa/callback. Called by Daraja, not by users.
//
// @Summary      M-Pesa result callback
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  paymentResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/mpesa/callback [post]
func (h *PaymentHandler) Callback(c echo.Context) error {
	var env stkCallbackEnvelope
	if err := c.Bind(&env); err != nil || env.Body == nil || env.Body.STKCallback == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid callback data")
	}

	cb := env.Body.STKCallback.toPaymentCallback()
	if _, err := h.service.HandleCallback(c.Request().Context(), cb); err != nil {
		return err
	}

	result := "completed"
	if cb.ResultCode != 0 {
		result = "failed"
	}
	metrics.PaymentCallbacksTotal.WithLabelValues(result).Inc()
	return c.JSON(http.StatusOK, paymentResponse{Success: true})
}

func initiationResult(err error) string {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return "rejected"
	}
	return "error"
}

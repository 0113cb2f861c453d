package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/welzyne/courier-system/internal/api/metrics"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// OrderHandler handles HTTP requests for courier bookings.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /api/orders.
//
// @Summary      Book a courier
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Booking details"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.service.CreateOrder(c.Request().Context(), caller, ports.CreateOrderInput{
		ID:             req.ID,
		Customer:       req.Customer,
		Email:          req.Email,
		Phone:          req.Phone,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		PickupLocation: req.PickupLocation,
		Destination:    req.Destination,
		PackageDetails: req.PackageDetails,
		Amount:         req.Amount,
		CourierType:    req.CourierType,
		WholeBooking:   req.WholeBooking,
		PaymentMode:    req.PaymentMode,
		MpesaNumber:    req.MpesaNumber,
	})
	if err != nil {
		return err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(order.CourierType).Inc()
	return c.JSON(http.StatusCreated, order)
}

// List handles GET /api/orders (admin).
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Order
// @Failure      403  {object}  errorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.service.ListOrders(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// ListForUser handles GET /api/orders/user/:identifier. The identifier is
// matched against the order's email or phone.
//
// @Summary      List orders for a customer
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        identifier  path      string  true  "Customer email or phone"
// @Success      200         {array}   domain.Order
// @Failure      403         {object}  errorResponse
// @Router       /api/orders/user/{identifier} [get]
func (h *OrderHandler) ListForUser(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrdersForUser(c.Request().Context(), caller, c.Param("identifier"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id.
//
// @Summary      Get an order by id
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id (e.g. WELZYNE-EXPRESS-4821)"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  errorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.service.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/:id/status (admin).
//
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Order id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	metrics.OrderStatusUpdatesTotal.WithLabelValues(string(order.Status)).Inc()
	return c.JSON(http.StatusOK, order)
}

// UpdatePayment handles PATCH /api/orders/:id/payment (admin).
//
// @Summary      Record a manual payment verification
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Order id"
// @Param        body  body      updatePaymentRequest  true  "Payment verification"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/orders/{id}/payment [patch]
func (h *OrderHandler) UpdatePayment(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.service.UpdatePayment(c.Request().Context(), caller, c.Param("id"), ports.UpdatePaymentInput{
		Confirmed:           req.PaymentConfirmed,
		Status:              req.PaymentStatus,
		ConfirmationMessage: req.MpesaConfirmationMessage,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Delete handles DELETE /api/orders/:id (admin).
//
// @Summary      Delete an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteOrder(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Order deleted successfully"})
}

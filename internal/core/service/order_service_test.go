package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

var (
	adminCaller = ports.Caller{ID: "admin-1", Role: domain.RoleAdmin, Email: "admin@welzyne.test"}
	userCaller  = ports.Caller{ID: "u1", Role: domain.RoleUser, Email: "jane@example.com", Phone: "0712345678"}
)

func newTestOrderService(opts ...OrderOption) (*OrderService, *stubOrderRepo, *stubNotifier, *stubBroadcaster) {
	repo := newStubOrderRepo()
	n := &stubNotifier{}
	b := &stubBroadcaster{}
	return NewOrderService(repo, n, b, zerolog.Nop(), opts...), repo, n, b
}

func TestOrderService_CreateOrder_Defaults(t *testing.T) {
	svc, _, n, b := newTestOrderService()

	order, err := svc.CreateOrder(context.Background(), userCaller, sampleOrderInput("WELZYNE-STANDARD-1234"))
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.Status != domain.StatusOrderPlaced {
		t.Fatalf("expected Order Placed, got %s", order.Status)
	}
	if order.CourierType != domain.CourierStandard || order.Payment.Mode != domain.PaymentModeMpesa || order.Payment.Status != domain.PaymentPending {
		t.Fatalf("unexpected defaults: %+v", order)
	}
	if order.Date.IsZero() {
		t.Fatalf("expected booking date")
	}
	if len(n.calls) != 1 || n.calls[0].kind != domain.NotifyBooking {
		t.Fatalf("expected one booking notification, got %+v", n.calls)
	}
	if got := b.types(); len(got) != 1 || got[0] != domain.EventNewOrder {
		t.Fatalf("expected NEW_ORDER broadcast, got %v", got)
	}
}

func TestOrderService_CreateOrder_MissingFields(t *testing.T) {
	svc, _, n, b := newTestOrderService()

	in := sampleOrderInput("W-1")
	in.RecipientPhone = ""
	in.Destination = " "
	_, err := svc.CreateOrder(context.Background(), adminCaller, in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 || verr.Fields[0] != "recipientPhone" || verr.Fields[1] != "destination" {
		t.Fatalf("unexpected missing fields: %v", verr.Fields)
	}
	if len(n.calls) != 0 || len(b.types()) != 0 {
		t.Fatalf("rejected orders must not notify or broadcast")
	}
}

func TestOrderService_CreateOrder_FillsCallerEmail(t *testing.T) {
	svc, _, _, _ := newTestOrderService()

	in := sampleOrderInput("W-2")
	in.Email = ""
	order, err := svc.CreateOrder(context.Background(), userCaller, in)
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.Email != userCaller.Email {
		t.Fatalf("expected caller email, got %q", order.Email)
	}

	in.ID = "W-3"
	if _, err := svc.CreateOrder(context.Background(), adminCaller, in); err == nil {
		t.Fatalf("admin bookings must carry an explicit email")
	}
}

func TestOrderService_CreateOrder_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestOrderService()
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-9")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-9")); !errors.Is(err, domain.ErrDuplicateOrderID) {
		t.Fatalf("expected ErrDuplicateOrderID, got %v", err)
	}
}

func TestOrderService_ListOrdersForUser(t *testing.T) {
	svc, _, _, _ := newTestOrderService()
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-10")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	other := sampleOrderInput("W-11")
	other.Email = "someone@example.com"
	other.Phone = "0700111222"
	if _, err := svc.CreateOrder(ctx, adminCaller, other); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	for _, id := range []string{userCaller.Email, userCaller.Phone} {
		orders, err := svc.ListOrdersForUser(ctx, userCaller, id)
		if err != nil {
			t.Fatalf("ListOrdersForUser(%q) returned error: %v", id, err)
		}
		if len(orders) != 1 || orders[0].ID != "W-10" {
			t.Fatalf("unexpected orders for %q: %+v", id, orders)
		}
	}

	if _, err := svc.ListOrdersForUser(ctx, userCaller, "someone@example.com"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if orders, err := svc.ListOrdersForUser(ctx, adminCaller, "someone@example.com"); err != nil || len(orders) != 1 {
		t.Fatalf("admin listing failed: %v %d", err, len(orders))
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	svc, _, n, b := newTestOrderService()
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-20")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	order, err := svc.UpdateStatus(ctx, "W-20", string(domain.StatusDelivered))
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if order.Status != domain.StatusDelivered {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if len(n.calls) != 2 || n.calls[1].kind != domain.NotifyStatusUpdate {
		t.Fatalf("expected a status_update notification, got %+v", n.calls)
	}
	if got := b.types(); got[len(got)-1] != domain.EventOrderUpdated {
		t.Fatalf("expected ORDER_UPDATED broadcast, got %v", got)
	}

	var verr *domain.ValidationError
	if _, err := svc.UpdateStatus(ctx, "W-20", "Lost"); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", string(domain.StatusProcessing)); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderService_UpdateStatus_Strict(t *testing.T) {
	svc, _, _, _ := newTestOrderService(WithStrictTransitions(true))
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-21")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, "W-21", string(domain.StatusDelivered)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	for _, s := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusInTransit, domain.StatusOutForDelivery, domain.StatusDelivered} {
		if _, err := svc.UpdateStatus(ctx, "W-21", string(s)); err != nil {
			t.Fatalf("UpdateStatus(%s) returned error: %v", s, err)
		}
	}
}

func TestOrderService_UpdateStatus_AppendsOneLogEntry(t *testing.T) {
	repo := newStubOrderRepo()
	notifier := NewNotificationService(repo, newStubSMS(), zerolog.Nop())
	svc := NewOrderService(repo, notifier, &stubBroadcaster{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-22")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "W-22", string(domain.StatusInTransit)); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	stored, _ := repo.FindByID(ctx, "W-22")
	var updates int
	for _, e := range stored.Notifications {
		if e.Type == domain.NotifyStatusUpdate {
			updates++
		}
	}
	if updates != 1 {
		t.Fatalf("expected exactly one status_update entry, got %d", updates)
	}
}

func TestOrderService_UpdatePayment(t *testing.T) {
	svc, _, n, _ := newTestOrderService()
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-30")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	order, err := svc.UpdatePayment(ctx, adminCaller, "W-30", ports.UpdatePaymentInput{
		Confirmed:           true,
		ConfirmationMessage: "QFX12ABC Confirmed",
	})
	if err != nil {
		t.Fatalf("UpdatePayment returned error: %v", err)
	}
	if !order.Confirmed || order.Payment.Status != domain.PaymentCompleted {
		t.Fatalf("unexpected payment: %+v", order.Payment)
	}
	if order.VerifiedBy != adminCaller.ID || order.VerificationDate == nil {
		t.Fatalf("expected verification details, got %+v", order.Payment)
	}
	if last := n.calls[len(n.calls)-1]; last.kind != domain.NotifyPaymentConfirmed {
		t.Fatalf("expected payment_confirmed notification, got %s", last.kind)
	}

	order, err = svc.UpdatePayment(ctx, adminCaller, "W-30", ports.UpdatePaymentInput{Status: domain.PaymentFailed})
	if err != nil {
		t.Fatalf("UpdatePayment returned error: %v", err)
	}
	if order.Confirmed || order.VerificationDate != nil || order.VerifiedBy != "" {
		t.Fatalf("expected verification cleared, got %+v", order.Payment)
	}

	var verr *domain.ValidationError
	if _, err := svc.UpdatePayment(ctx, adminCaller, "W-30", ports.UpdatePaymentInput{Status: "Refunded"}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestOrderService_DeleteOrder(t *testing.T) {
	svc, _, _, b := newTestOrderService()
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, userCaller, sampleOrderInput("W-40")); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if err := svc.DeleteOrder(ctx, "W-40"); err != nil {
		t.Fatalf("DeleteOrder returned error: %v", err)
	}
	last := b.events[len(b.events)-1]
	if last.Type != domain.EventOrderDeleted || last.OrderID != "W-40" {
		t.Fatalf("unexpected broadcast: %+v", last)
	}
	if _, err := svc.GetOrder(ctx, "W-40"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound after delete, got %v", err)
	}
	if err := svc.DeleteOrder(ctx, "W-40"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

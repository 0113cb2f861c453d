package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/core/domain"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, sub *Subscription) domain.Event {
	t.Helper()
	select {
	case msg, ok := <-sub.C:
		if !ok {
			t.Fatalf("subscription closed")
		}
		var e domain.Event
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return domain.Event{}
}

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	h, _ := startHub(t)
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(context.Background(), domain.OrderDeleted("W-1"))

	for _, sub := range []*Subscription{a, b} {
		e := receive(t, sub)
		if e.Type != domain.EventOrderDeleted || e.OrderID != "W-1" {
			t.Fatalf("unexpected event: %+v", e)
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h, _ := startHub(t)
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed")
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h, _ := startHub(t)
	slow := h.Subscribe()
	waitClients(t, h, 1)

	for i := 0; i <= subscriptionBuffer; i++ {
		h.Publish(context.Background(), domain.OrderDeleted("W-slow"))
	}
	waitClients(t, h, 0)

	received := 0
	for range slow.C {
		received++
	}
	if received != subscriptionBuffer {
		t.Fatalf("expected %d buffered events before drop, got %d", subscriptionBuffer, received)
	}
}

type failingRelay struct{ calls int }

func (r *failingRelay) Publish(context.Context, []byte) error {
	r.calls++
	return errors.New("redis down")
}

func TestHub_RelayFailureFallsBackToLocal(t *testing.T) {
	h, _ := startHub(t)
	relay := &failingRelay{}
	h.SetRelay(relay)
	sub := h.Subscribe()

	h.Publish(context.Background(), domain.PaymentFailedEvent("W-2", "cancelled"))

	e := receive(t, sub)
	if e.Type != domain.EventPaymentFailed || e.Message != "cancelled" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if relay.calls != 1 {
		t.Fatalf("expected relay to be tried once, got %d", relay.calls)
	}
}

func TestHub_SubscribeAfterStop(t *testing.T) {
	h, cancel := startHub(t)
	cancel()
	<-h.closed
	if sub := h.Subscribe(); sub != nil {
		t.Fatalf("expected nil subscription after stop")
	}
}

func TestHandler_StreamsEvents(t *testing.T) {
	h, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(h, nil, zerolog.Nop()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitClients(t, h, 1)

	h.Publish(ctx, domain.OrderCreated(&domain.Order{ID: "W-3"}))

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("expected text frame, got %v", typ)
	}
	var e domain.Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Type != domain.EventNewOrder || e.Order == nil || e.Order.ID != "W-3" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

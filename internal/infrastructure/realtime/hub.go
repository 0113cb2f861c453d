package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/api/metrics"
	"github.com/welzyne/courier-system/internal/core/domain"
)

const (
	broadcastBuffer    = 256
	subscriptionBuffer = 64
)

// Relay forwards encoded events to every hub instance, this one included.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
}

// Subscription is one connected client's view of the event stream. C is
// closed when the subscription ends, either on Unsubscribe or because the
// client fell behind.
type Subscription struct {
	ID string
	C  <-chan []byte

	send chan []byte
}

// Hub fans encoded events out to every subscription. All membership changes
// and deliveries happen on the Run goroutine.
type Hub struct {
	clients    map[string]*Subscription
	broadcast  chan []byte
	register   chan *Subscription
	unregister chan *Subscription
	relay      Relay
	log        zerolog.Logger

	mu     sync.RWMutex
	count  int
	closed chan struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Subscription),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		log:        log,
		closed:     make(chan struct{}),
	}
}

// SetRelay routes publishes through r instead of delivering locally. The
// relay is expected to hand received payloads back through Deliver.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = r
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every remaining subscription.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.closed)
	for {
		select {
		case <-ctx.Done():
			for id, sub := range h.clients {
				close(sub.send)
				delete(h.clients, id)
			}
			h.setCount(0)
			return

		case sub := <-h.register:
			h.clients[sub.ID] = sub
			h.setCount(len(h.clients))
			h.log.Debug().Str("client_id", sub.ID).Msg("realtime client registered")

		case sub := <-h.unregister:
			if _, ok := h.clients[sub.ID]; ok {
				delete(h.clients, sub.ID)
				close(sub.send)
				h.setCount(len(h.clients))
				h.log.Debug().Str("client_id", sub.ID).Msg("realtime client unregistered")
			}

		case msg := <-h.broadcast:
			for id, sub := range h.clients {
				select {
				case sub.send <- msg:
				default:
					close(sub.send)
					delete(h.clients, id)
					metrics.RealtimeClientsDroppedTotal.Inc()
					h.log.Warn().Str("client_id", id).Msg("realtime client too slow, dropped")
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// Subscribe registers a new client. It returns nil once the hub has stopped.
func (h *Hub) Subscribe() *Subscription {
	send := make(chan []byte, subscriptionBuffer)
	sub := &Subscription{ID: uuid.NewString(), C: send, send: send}
	select {
	case h.register <- sub:
		return sub
	case <-h.closed:
		return nil
	}
}

// Unsubscribe removes sub. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	select {
	case h.unregister <- sub:
	case <-h.closed:
	}
}

// Publish implements ports.Broadcaster. Delivery is best-effort: encoding or
// relay failures are logged and never reach the caller.
func (h *Hub) Publish(ctx context.Context, event domain.Event) {
	payload, err := event.Encode()
	if err != nil {
		h.log.Error().Err(err).Str("type", string(event.Type)).Msg("failed to encode event")
		return
	}
	metrics.BroadcastEventsTotal.WithLabelValues(string(event.Type)).Inc()

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		err := relay.Publish(ctx, payload)
		if err == nil {
			return
		}
		h.log.Warn().Err(err).Str("type", string(event.Type)).Msg("relay publish failed, delivering locally")
	}
	h.Deliver(payload)
}

// Deliver queues an already encoded event for local subscribers. Events are
// dropped when the broadcast buffer is full.
func (h *Hub) Deliver(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn().Msg("broadcast buffer full, event dropped")
	}
}

// Clients returns the number of registered subscriptions.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
}

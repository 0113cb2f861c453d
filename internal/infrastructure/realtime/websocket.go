package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler upgrades HTTP requests to WebSocket connections and streams every
// hub event to the client as a text frame.
type Handler struct {
	hub            *Hub
	originPatterns []string
	log            zerolog.Logger
}

// NewHandler builds the /ws endpoint. originPatterns follows
// websocket.AcceptOptions; an empty list only accepts same-origin requests.
func NewHandler(hub *Hub, originPatterns []string, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	sub := h.hub.Subscribe()
	if sub == nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.Unsubscribe(sub)

	h.log.Info().Str("client_id", sub.ID).Str("remote", r.RemoteAddr).Msg("realtime client connected")

	// Clients only listen; CloseRead discards their frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	if err := h.stream(ctx, conn, sub); err != nil {
		h.log.Debug().Err(err).Str("client_id", sub.ID).Msg("realtime client disconnected")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) stream(ctx context.Context, conn *websocket.Conn, sub *Subscription) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := write(ctx, conn, msg); err != nil {
				return err
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

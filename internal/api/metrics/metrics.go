// Package metrics defines the custom Prometheus metrics of the courier API.
// All metrics are registered with the default registry through promauto at
// package initialisation and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts accepted bookings.
// Label:
//   - courier_type: "standard", "express" or "same-day"
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders booked, by courier type.",
	},
	[]string{"courier_type"},
)

// OrderStatusUpdatesTotal counts status changes applied by admins.
// Label:
//   - status: the new order status (e.g. "In Transit")
var OrderStatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_updates_total",
		Help:      "Total number of order status updates, by resulting status.",
	},
	[]string{"status"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts individual message sends.
// Labels:
//   - kind: "booking", "status_update" or "payment_confirmed"
//   - party: "sender", "recipient" or "email"
//   - result: "success" or "failure"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notification sends, by kind, party and result.",
	},
	[]string{"kind", "party", "result"},
)

// NotificationQueueDepth tracks jobs waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notification jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationsDroppedTotal counts jobs discarded because a worker queue was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notification jobs dropped on a full queue.",
	},
)

// NotificationDuration measures one dispatch from dequeue to log append.
var NotificationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of a notification dispatch, by kind.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// BroadcastEventsTotal counts events fanned out by the hub.
// Label:
//   - type: event type (e.g. "NEW_ORDER")
var BroadcastEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_events_total",
		Help:      "Total number of events broadcast to realtime clients, by type.",
	},
	[]string{"type"},
)

// RealtimeClients is the number of currently connected realtime clients.
var RealtimeClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_clients",
		Help:      "Number of connected realtime clients.",
	},
)

// RealtimeClientsDroppedTotal counts subscribers disconnected for being too slow.
var RealtimeClientsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_clients_dropped_total",
		Help:      "Total number of realtime clients dropped because their buffer was full.",
	},
)

// ── Payment and auth metrics ──────────────────────────────────────────────────

// PaymentInitiationsTotal counts STK push requests.
// Label:
//   - result: "accepted", "rejected" or "error"
var PaymentInitiationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_initiations_total",
		Help:      "Total number of M-Pesa STK push initiations, by result.",
	},
	[]string{"result"},
)

// PaymentCallbacksTotal counts gateway callbacks.
// Label:
//   - result: "completed" or "failed"
var PaymentCallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_callbacks_total",
		Help:      "Total number of M-Pesa callbacks received, by result.",
	},
	[]string{"result"},
)

// LoginThrottledTotal counts logins rejected by the attempt limiter.
var LoginThrottledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_throttled_total",
		Help:      "Total number of login attempts rejected for exceeding the failure limit.",
	},
)

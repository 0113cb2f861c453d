package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/welzyne/courier-system/internal/api/metrics"
	"github.com/welzyne/courier-system/internal/core/domain"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	jobTimeout     = 30 * time.Second
)

// Sender performs one notification dispatch synchronously.
type Sender interface {
	Send(ctx context.Context, kind domain.NotificationKind, order domain.Order) (domain.NotificationLogEntry, error)
}

type job struct {
	kind  domain.NotificationKind
	order domain.Order
}

// Dispatcher routes notification jobs to a fixed set of workers using
// consistent hashing on the order id, so notifications for one order are sent
// in the order they were raised. It implements ports.Notifier.
type Dispatcher struct {
	workers []chan job
	sender  Sender
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// with a queue of buffer jobs. Non-positive values fall back to defaults.
func NewDispatcher(numWorkers, buffer int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers run until Stop closes their
// queues and every queued job has been processed.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan job) {
			defer d.wg.Done()
			d.runWorker(id, ch)
		}(i, ch)
	}
}

// Stop refuses new jobs, lets the workers drain their queues and waits for
// them until ctx is done. Call it after the HTTP server has stopped so jobs
// raised by in-flight requests are still sent.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify queues a notification without blocking. When the worker queue for
// the order is full, or the dispatcher is stopped, the job is dropped and
// logged.
func (d *Dispatcher) Notify(_ context.Context, kind domain.NotificationKind, order domain.Order) {
	idx := d.shardIndex(order.ID)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Error().
			Str("order_id", order.ID).
			Str("kind", string(kind)).
			Msg("dispatcher stopped, job dropped")
		return
	}

	select {
	case d.workers[idx] <- job{kind: kind, order: order}:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Warn().
			Str("order_id", order.ID).
			Str("kind", string(kind)).
			Int("worker_id", idx).
			Msg("notification queue full, job dropped")
	}
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan job) {
	label := strconv.Itoa(id)
	for j := range ch {
		metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.process(id, j)
	}
}

// process runs each job on its own deadline, detached from process shutdown,
// so the notification log entry is written even while the server stops.
func (d *Dispatcher) process(id int, j job) {
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry, err := d.sender.Send(jobCtx, j.kind, j.order)
	metrics.NotificationDuration.WithLabelValues(string(j.kind)).Observe(time.Since(start).Seconds())

	recordOutcome(j.kind, "sender", entry.Sender)
	recordOutcome(j.kind, "recipient", entry.Recipient)
	if entry.Email != nil {
		recordOutcome(j.kind, "email", *entry.Email)
	}

	if err != nil {
		d.log.Error().Err(err).
			Str("order_id", j.order.ID).
			Str("kind", string(j.kind)).
			Int("worker_id", id).
			Msg("notification processing failed")
	}
}

func recordOutcome(kind domain.NotificationKind, party string, o domain.DeliveryOutcome) {
	if !o.Attempted {
		return
	}
	result := "failure"
	if o.Success {
		result = "success"
	}
	metrics.NotificationsSentTotal.WithLabelValues(string(kind), party, result).Inc()
}

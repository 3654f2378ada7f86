package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/platform/metrics"
)

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

const sendTimeout = 5 * time.Second

// Dispatcher queues notifications and delivers them from a fixed pool of
// workers. Notify never blocks: when the queue is full or the dispatcher is
// closed the notification is dropped and counted.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
	queue  chan domain.Notification
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ portssvc.Notifier = (*Dispatcher)(nil)

// NewDispatcher starts workers goroutines draining a queue of queueSize.
func NewDispatcher(sender Sender, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan domain.Notification, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Notify enqueues n for delivery.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}
	select {
	case d.queue <- n:
		metrics.NotificationQueueDepth.Inc()
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		metrics.NotificationQueueDepth.Dec()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, n); err != nil {
			metrics.NotificationsDropped.Inc()
			d.logger.Warn("Notification delivery failed",
				slog.String("kind", string(n.Kind)),
				slog.String("user_id", n.UserID),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}

func (d *Dispatcher) drop(n domain.Notification, reason string) {
	metrics.NotificationsDropped.Inc()
	d.logger.Warn("Notification dropped",
		slog.String("kind", string(n.Kind)),
		slog.String("user_id", n.UserID),
		slog.String("reason", reason))
}

// Close stops accepting notifications and waits for queued ones to be
// delivered, or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
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
		return errors.Join(errors.New("notification queue not drained"), ctx.Err())
	}
}

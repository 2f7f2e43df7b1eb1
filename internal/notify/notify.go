package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kbine/internal/logger"
	"kbine/internal/model"
)

// Event describes a terminal payment event staff should hear about.
type Event struct {
	PaymentID      string
	OrderReference string
	Method         model.PaymentMethod
	Status         model.PaymentStatus
	Amount         decimal.Decimal
	OccurredAt     time.Time
}

// Notifier delivers payment events to staff. Delivery is best effort:
// failures never affect payment state.
type Notifier interface {
	NotifyPaymentEvent(ctx context.Context, event Event) error
}

// LogNotifier records events in the application log. It stands in for
// the push-notification transport, which is owned by a collaborator.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logger.Get().Named("notify")}
}

// NotifyPaymentEvent logs the event.
func (n *LogNotifier) NotifyPaymentEvent(ctx context.Context, event Event) error {
	n.logger.Info("payment event",
		zap.String("payment_id", event.PaymentID),
		zap.String("order_reference", event.OrderReference),
		zap.String("method", string(event.Method)),
		zap.String("status", string(event.Status)),
		zap.String("amount", event.Amount.String()))
	return nil
}

// Dispatcher fans events out to a Notifier asynchronously so webhook
// handlers can acknowledge providers without waiting on delivery.
type Dispatcher struct {
	notifier Notifier
	events   chan Event
	done     chan struct{}
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher and starts its worker.
func NewDispatcher(notifier Notifier) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		events:   make(chan Event, 100),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("notify"),
	}
	go d.worker()
	return d
}

// Enqueue hands an event to the worker without blocking. When the
// buffer is full the event is delivered inline as a fallback.
func (d *Dispatcher) Enqueue(ctx context.Context, event Event) {
	select {
	case d.events <- event:
	default:
		if err := d.notifier.NotifyPaymentEvent(ctx, event); err != nil {
			d.logger.Warn("notification delivery failed", zap.Error(err))
		}
	}
}

// Close drains pending events and stops the worker.
func (d *Dispatcher) Close() {
	close(d.events)
	<-d.done
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for event := range d.events {
		if err := d.notifier.NotifyPaymentEvent(context.Background(), event); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("payment_id", event.PaymentID),
				zap.Error(err))
		}
	}
}

// Package worker turns bill events from the broker into customer notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"powerbill/internal/amqp"
	"powerbill/internal/log"
	"powerbill/internal/metrics"
)

// DefaultDedupWindow is how many recent event ids the worker remembers to
// drop redelivered events.
const DefaultDedupWindow = 1024

var ErrUnknownEventType = errors.New("unknown event type")

// Notification is a customer-facing message derived from one bill event.
type Notification struct {
	EventID   string
	BillID    int64
	Vendor    string
	Message   string
	Timestamp time.Time
}

// Notifier delivers notifications to customers.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier delivers notifications as structured log records.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentWorker)}
}

func (n *LogNotifier) Notify(ctx context.Context, notif Notification) error {
	n.logger.InfoContext(ctx, "Customer notification",
		log.FieldEventID, notif.EventID,
		log.FieldBillID, notif.BillID,
		log.FieldVendor, notif.Vendor,
		"message", notif.Message)
	return nil
}

// NotificationWorker handles bill events consumed from the broker. Delivery
// is at least once, so recently seen event ids are skipped.
type NotificationWorker struct {
	notifier Notifier

	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSeen int
}

func NewNotificationWorker(notifier Notifier, dedupWindow int) *NotificationWorker {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &NotificationWorker{
		notifier: notifier,
		seen:     make(map[string]struct{}),
		maxSeen:  dedupWindow,
	}
}

// HandleBillEvent notifies the customer about evt. Malformed and duplicate
// events are dropped without error so the broker does not redeliver them;
// delivery failures are returned so the message is requeued.
func (w *NotificationWorker) HandleBillEvent(ctx context.Context, evt *amqp.BillEvent) error {
	if evt == nil || evt.ID == "" || evt.BillID < 1 {
		slog.WarnContext(ctx, "Dropping malformed bill event", log.FieldComponent, log.ComponentWorker)
		metrics.EventsConsumed.WithLabelValues("unknown", "invalid").Inc()
		return nil
	}
	eventType := string(evt.Type)

	if w.isDuplicate(evt.ID) {
		slog.DebugContext(ctx, "Skipping duplicate bill event",
			log.FieldComponent, log.ComponentWorker,
			log.FieldEventID, evt.ID)
		metrics.EventsConsumed.WithLabelValues(eventType, "duplicate").Inc()
		return nil
	}

	msg, err := Compose(evt)
	if err != nil {
		slog.WarnContext(ctx, "Dropping bill event",
			log.FieldComponent, log.ComponentWorker,
			log.FieldEventID, evt.ID,
			log.FieldEventType, eventType,
			log.FieldError, err)
		metrics.EventsConsumed.WithLabelValues(eventType, "invalid").Inc()
		return nil
	}

	err = w.notifier.Notify(ctx, Notification{
		EventID:   evt.ID,
		BillID:    evt.BillID,
		Vendor:    evt.Vendor,
		Message:   msg,
		Timestamp: evt.Timestamp,
	})
	if err != nil {
		metrics.EventsConsumed.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("notify bill %d: %w", evt.BillID, err)
	}

	w.markSeen(evt.ID)
	metrics.EventsConsumed.WithLabelValues(eventType, "ok").Inc()
	return nil
}

func (w *NotificationWorker) isDuplicate(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[id]
	return ok
}

func (w *NotificationWorker) markSeen(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return
	}
	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
	if len(w.order) > w.maxSeen {
		delete(w.seen, w.order[0])
		w.order = w.order[1:]
	}
}

// Compose renders the customer message for evt.
func Compose(evt *amqp.BillEvent) (string, error) {
	switch evt.Type {
	case amqp.EventBillCreated:
		if evt.DueDate == "" {
			return fmt.Sprintf("Deposit of RS.%s received.", evt.Amount), nil
		}
		return fmt.Sprintf("New %s bill #%d from %s for RS.%s, due %s.",
			evt.Category, evt.BillID, evt.Vendor, evt.Amount, evt.DueDate), nil

	case amqp.EventBillPaid:
		if evt.Fine != "" {
			return fmt.Sprintf("Bill #%d from %s paid: RS.%s including a late fine of RS.%s (%d days late).",
				evt.BillID, evt.Vendor, evt.Amount, evt.Fine, evt.DaysLate), nil
		}
		return fmt.Sprintf("Bill #%d from %s paid: RS.%s.", evt.BillID, evt.Vendor, evt.Amount), nil

	case amqp.EventBillReminder:
		msg := fmt.Sprintf("Reminder: bill #%d from %s for RS.%s. %s.",
			evt.BillID, evt.Vendor, evt.Amount, evt.Notice)
		if evt.Fine != "" {
			msg += fmt.Sprintf(" Paying today adds a late fine of RS.%s.", evt.Fine)
		}
		return msg, nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, evt.Type)
	}
}

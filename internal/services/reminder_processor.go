package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"powerbill/internal/amqp"
	"powerbill/internal/core"
	"powerbill/internal/log"
	"powerbill/internal/metrics"
)

// ReminderProcessorConfig holds configuration for the reminder scanner
type ReminderProcessorConfig struct {
	// Interval is how often unpaid bills are scanned (default: 1h)
	Interval time.Duration
}

// DefaultReminderProcessorConfig returns sensible defaults
func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		Interval: time.Hour,
	}
}

// ReminderProcessor periodically scans unpaid bills and announces the ones
// that are due soon or overdue. Each bill is reminded at most once per day.
type ReminderProcessor struct {
	billing *BillingService
	events  EventPublisher
	config  ReminderProcessorConfig

	sentMu   sync.Mutex
	lastSent map[int64]core.Date

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReminderProcessor creates a reminder scanner. events may be nil, in which
// case reminders are only logged.
func NewReminderProcessor(billing *BillingService, events EventPublisher, config ReminderProcessorConfig) *ReminderProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderProcessorConfig().Interval
	}
	return &ReminderProcessor{
		billing:  billing,
		events:   events,
		config:   config,
		lastSent: make(map[int64]core.Date),
	}
}

// ProcessDueReminders emits one reminder per unpaid bill that is due within
// DueSoonWindow days or already overdue. Returns the number of reminders sent.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context) (int, error) {
	if p.billing == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	bills, err := p.billing.ListBills(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list unpaid bills: %w", err)
	}

	p.forgetSettled(bills)

	now := p.billing.clock.Now()
	today := core.DateOf(now)
	sent := 0

	for _, b := range bills {
		notice := DueNoticeFor(b, today)
		if notice.Kind != NoticeDueSoon && notice.Kind != NoticeOverdue {
			continue
		}
		if p.alreadySent(b.ID, today) {
			continue
		}

		evt := amqp.NewBillEvent(amqp.EventBillReminder, b, now)
		evt.Notice = notice.String()
		if notice.Kind == NoticeOverdue {
			fine, days := ComputeFine(b, today)
			evt.Fine = core.FormatAmount(fine)
			evt.DaysLate = days
		}

		if p.events != nil {
			if err := p.events.PublishBillEvent(ctx, evt); err != nil {
				slog.WarnContext(ctx, "Failed to publish reminder",
					log.FieldComponent, log.ComponentReminder,
					log.FieldBillID, b.ID,
					log.FieldError, err)
				continue
			}
		}

		p.markSent(b.ID, today)
		sent++
		metrics.Reminders.WithLabelValues(string(notice.Kind)).Inc()
		slog.InfoContext(ctx, "Bill reminder",
			log.FieldComponent, log.ComponentReminder,
			log.FieldBillID, b.ID,
			log.FieldVendor, b.Vendor,
			log.FieldAmount, core.FormatAmount(b.Amount),
			log.FieldDueDate, b.DueDate.String(),
			"notice", evt.Notice)
	}

	slog.InfoContext(ctx, "Reminder scan complete",
		log.FieldComponent, log.ComponentReminder,
		"unpaid", len(bills),
		"sent", sent,
		"scan_date", today.String())

	return sent, nil
}

func (p *ReminderProcessor) alreadySent(id int64, today core.Date) bool {
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	last, ok := p.lastSent[id]
	return ok && last.Equal(today.Time)
}

// forgetSettled drops reminder history for bills no longer in unpaid.
func (p *ReminderProcessor) forgetSettled(unpaid []core.Bill) {
	open := make(map[int64]struct{}, len(unpaid))
	for _, b := range unpaid {
		open[b.ID] = struct{}{}
	}
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	for id := range p.lastSent {
		if _, ok := open[id]; !ok {
			delete(p.lastSent, id)
		}
	}
}

func (p *ReminderProcessor) markSent(id int64, today core.Date) {
	p.sentMu.Lock()
	p.lastSent[id] = today
	p.sentMu.Unlock()
}

// Start begins the scan loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		log.FieldComponent, log.ComponentReminder,
		"interval", p.config.Interval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.scan(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *ReminderProcessor) scan(ctx context.Context) {
	if _, err := p.ProcessDueReminders(ctx); err != nil {
		slog.ErrorContext(ctx, "Reminder scan failed",
			log.FieldComponent, log.ComponentReminder,
			log.FieldError, err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"powerbill/internal/amqp"
	"powerbill/internal/clock"
	"powerbill/internal/core"
	"powerbill/internal/log"
	"powerbill/internal/metrics"
)

// BillingService is the billing engine. It is the only writer of the store
// and serialises every write so id order matches ledger order. Events are
// published after the lock is released, so a slow broker never stalls writes.
type BillingService struct {
	mu     sync.Mutex
	store  BillStore
	clock  clock.Clock
	events EventPublisher
}

// Payment is the outcome of MarkPaid.
type Payment struct {
	Bill        core.Bill
	DaysLate    int
	Fine        decimal.Decimal
	FineApplied bool
	AlreadyPaid bool
}

// NewBillingService wires the engine. events may be nil to disable publishing.
func NewBillingService(store BillStore, clk clock.Clock, events EventPublisher) *BillingService {
	if clk == nil {
		clk = clock.System{}
	}
	return &BillingService{
		store:  store,
		clock:  clk,
		events: events,
	}
}

// Today returns the engine's current calendar date.
func (s *BillingService) Today() core.Date {
	return core.DateOf(s.clock.Now())
}

// CreateBill records a new bill due DueAfterDays from today.
// A bill for the Deposit vendor is always settled and carries no due date.
func (s *BillingService) CreateBill(ctx context.Context, vendor string, amount decimal.Decimal, status core.Status, category core.Category) (core.Bill, error) {
	b := core.Bill{
		Vendor:   strings.TrimSpace(vendor),
		Amount:   amount,
		Status:   status,
		Category: category,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}

	b, evt, err := s.insert(ctx, b)
	if err != nil {
		return core.Bill{}, err
	}
	s.publish(ctx, evt)
	return b, nil
}

// insert allocates an id and stores b under the engine lock. The returned
// event is published by the caller after the lock is released.
func (s *BillingService) insert(ctx context.Context, b core.Bill) (core.Bill, *amqp.BillEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.NextID(ctx)
	if err != nil {
		return core.Bill{}, nil, fmt.Errorf("allocate bill id: %w", err)
	}

	now := s.clock.Now()
	b.ID = id
	b.DueDate = core.DateOf(now).AddDays(core.DueAfterDays)
	kind := core.EntryCharge
	if b.IsDeposit() {
		b.Status = core.StatusPaid
		b.DueDate = core.Date{}
		kind = core.EntryDeposit
	}
	b.Ledger = []core.TransactionEntry{{Amount: b.Amount, Kind: kind, Timestamp: now}}

	if err := s.store.Append(ctx, b); err != nil {
		return core.Bill{}, nil, fmt.Errorf("store bill %d: %w", id, err)
	}

	metricKind := "bill"
	if b.IsDeposit() {
		metricKind = "deposit"
	}
	metrics.BillsCreated.WithLabelValues(string(b.Category), metricKind).Inc()

	slog.InfoContext(ctx, "Bill created", log.NewFields().
		WithComponent(log.ComponentBilling).
		WithOperation(log.OpCreate).
		WithBill(b.ID, b.Vendor, core.FormatAmount(b.Amount), string(b.Category), string(b.Status)).
		ToSlice()...)

	return b.Clone(), amqp.NewBillEvent(amqp.EventBillCreated, b, now), nil
}

// RecordDeposit records money received from the customer as a settled Deposit bill.
func (s *BillingService) RecordDeposit(ctx context.Context, amount decimal.Decimal, category core.Category) (core.Bill, error) {
	if !amount.IsPositive() {
		return core.Bill{}, core.ErrInvalidAmount
	}
	return s.CreateBill(ctx, core.DepositVendor, amount, core.StatusPaid, category)
}

// MarkPaid settles a bill, first applying the late fine if its due date has passed.
// Paying a settled bill is a no-op.
func (s *BillingService) MarkPaid(ctx context.Context, id int64) (Payment, error) {
	p, evt, err := s.settle(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if evt != nil {
		s.publish(ctx, evt)
	}
	return p, nil
}

// settle applies the fine and marks the bill paid under the engine lock.
// The event is nil when the bill was already paid.
func (s *BillingService) settle(ctx context.Context, id int64) (Payment, *amqp.BillEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Payment{}, nil, err
	}
	if b.Status == core.StatusPaid {
		return Payment{Bill: b, Fine: decimal.Zero, AlreadyPaid: true}, nil, nil
	}

	now := s.clock.Now()
	fine, daysLate := ComputeFine(b, core.DateOf(now))
	p := Payment{DaysLate: max(daysLate, 0), Fine: fine}

	var added []core.TransactionEntry
	if fine.IsPositive() {
		b.Amount = b.Amount.Add(fine)
		entry := core.TransactionEntry{Amount: fine, Kind: core.EntryFine, Timestamp: now}
		b.Ledger = append(b.Ledger, entry)
		added = append(added, entry)
		p.FineApplied = true
	}
	b.Status = core.StatusPaid

	if err := s.store.Update(ctx, b, added...); err != nil {
		return Payment{}, nil, fmt.Errorf("settle bill %d: %w", id, err)
	}
	p.Bill = b.Clone()

	metrics.BillsPaid.Inc()
	fields := log.NewFields().
		WithComponent(log.ComponentBilling).
		WithOperation(log.OpPay).
		WithBill(b.ID, b.Vendor, core.FormatAmount(b.Amount), string(b.Category), string(b.Status))
	if p.FineApplied {
		metrics.FinesApplied.Inc()
		metrics.FineAmount.Add(fine.InexactFloat64())
		fields = fields.WithFine(core.FormatAmount(fine), p.DaysLate)
	}
	slog.InfoContext(ctx, "Bill paid", fields.ToSlice()...)

	evt := amqp.NewBillEvent(amqp.EventBillPaid, b, now)
	if p.FineApplied {
		evt.Fine = core.FormatAmount(fine)
		evt.DaysLate = p.DaysLate
	}
	return p, evt, nil
}

// PreviewFine reports the fine MarkPaid would apply to bill id today.
func (s *BillingService) PreviewFine(ctx context.Context, id int64) (decimal.Decimal, int, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return decimal.Zero, 0, err
	}
	fine, daysLate := ComputeFine(b, s.Today())
	return fine, max(daysLate, 0), nil
}

// FindBill returns a copy of bill id.
func (s *BillingService) FindBill(ctx context.Context, id int64) (core.Bill, error) {
	return s.store.FindByID(ctx, id)
}

// ListBills returns bills in creation order, optionally only the unpaid ones.
func (s *BillingService) ListBills(ctx context.Context, unpaidOnly bool) ([]core.Bill, error) {
	bills, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	if !unpaidOnly {
		return bills, nil
	}
	out := bills[:0]
	for _, b := range bills {
		if b.Status == core.StatusUnpaid {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListTransactions flattens every ledger, bill order then ledger order.
func (s *BillingService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	bills, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Transactions(bills), nil
}

// Summary aggregates the current bills.
func (s *BillingService) Summary(ctx context.Context) (core.Summary, error) {
	bills, err := s.store.List(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize bills: %w", err)
	}
	return core.Summarize(bills), nil
}

func (s *BillingService) publish(ctx context.Context, evt *amqp.BillEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBillEvent(ctx, evt); err != nil {
		slog.WarnContext(ctx, "Failed to publish bill event",
			log.FieldComponent, log.ComponentBilling,
			log.FieldEventType, evt.Type,
			log.FieldBillID, evt.BillID,
			log.FieldError, err)
	}
}

// Close releases the store.
func (s *BillingService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close bill store: %w", err)
	}
	return nil
}

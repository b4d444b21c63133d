package services

import (
	"context"

	"powerbill/internal/amqp"
	"powerbill/internal/core"
)

// BillStore holds bills in creation order and issues their ids.
// Implementations return copies; mutations go through Update.
type BillStore interface {
	NextID(ctx context.Context) (int64, error)
	Append(ctx context.Context, b core.Bill) error
	FindByID(ctx context.Context, id int64) (core.Bill, error)
	// Update persists b, whose ledger is the stored ledger followed by newEntries.
	Update(ctx context.Context, b core.Bill, newEntries ...core.TransactionEntry) error
	List(ctx context.Context) ([]core.Bill, error)
	Close() error
}

// EventPublisher announces bill lifecycle events to other processes.
type EventPublisher interface {
	PublishBillEvent(ctx context.Context, evt *amqp.BillEvent) error
}

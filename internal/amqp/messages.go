package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"powerbill/internal/core"
)

// EventType names a bill lifecycle event.
type EventType string

const (
	EventBillCreated  EventType = "bill.created"
	EventBillPaid     EventType = "bill.paid"
	EventBillReminder EventType = "bill.reminder"
)

// BillEvent is a self-contained snapshot of a bill at the moment of an event.
// Consumers do not need access to the bill store.
type BillEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BillID    int64     `json:"bill_id"`
	Vendor    string    `json:"vendor"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	DueDate   string    `json:"due_date,omitempty"`
	Fine      string    `json:"fine,omitempty"`
	DaysLate  int       `json:"days_late,omitempty"`
	Notice    string    `json:"notice,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBillEvent snapshots b for an event of type t occurring at ts.
func NewBillEvent(t EventType, b core.Bill, ts time.Time) *BillEvent {
	return &BillEvent{
		ID:        uuid.NewString(),
		Type:      t,
		BillID:    b.ID,
		Vendor:    b.Vendor,
		Category:  string(b.Category),
		Status:    string(b.Status),
		Amount:    core.FormatAmount(b.Amount),
		DueDate:   b.DueDate.String(),
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *BillEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillEventFromJSON creates a message from JSON bytes
func BillEventFromJSON(data []byte) (*BillEvent, error) {
	var msg BillEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

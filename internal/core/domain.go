package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusUnpaid Status = "Unpaid"
	StatusPaid   Status = "Paid"
)

const (
	Domestic   Category = "Domestic"
	Commercial Category = "Commercial"
)

const (
	EntryCharge  EntryKind = "charge"
	EntryDeposit EntryKind = "deposit"
	EntryFine    EntryKind = "fine"
)

// DepositVendor is the vendor name that marks a bill as a settled deposit.
const DepositVendor = "Deposit"

// DueAfterDays is the grace period between bill creation and its due date.
const DueAfterDays = 10

// FineRate is the share of the outstanding amount charged per day late.
var FineRate = decimal.RequireFromString("0.02")

type (
	Status    string
	Category  string
	EntryKind string

	// Date is a calendar date without time of day. The zero value means "no date".
	Date struct {
		time.Time
	}

	// TransactionEntry is one amount movement on a bill's ledger.
	TransactionEntry struct {
		Amount    decimal.Decimal
		Kind      EntryKind
		Timestamp time.Time
	}

	Bill struct {
		ID       int64
		Vendor   string
		Amount   decimal.Decimal
		DueDate  Date
		Status   Status
		Category Category
		Ledger   []TransactionEntry
	}

	// Transaction is a flattened ledger row used for history listings.
	Transaction struct {
		BillID    int64
		Vendor    string
		Amount    decimal.Decimal
		Kind      EntryKind
		Timestamp time.Time
	}
)

var (
	ErrBillNotFound    = errors.New("bill not found")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyVendor     = errors.New("empty vendor name")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidUnits    = errors.New("invalid unit count")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (s Status) Validate() error {
	switch s {
	case StatusUnpaid, StatusPaid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (c Category) Validate() error {
	switch c {
	case Domestic, Commercial:
		return nil
	default:
		return ErrInvalidCategory
	}
}

// ClassifyCategory maps a menu selector to a category.
// Unrecognised selectors fall back to Domestic.
func ClassifyCategory(choice int) Category {
	switch choice {
	case 2:
		return Commercial
	default:
		return Domestic
	}
}

// IsDeposit reports whether the bill records a customer deposit.
func (b Bill) IsDeposit() bool {
	return b.Vendor == DepositVendor
}

// Clone returns a copy that shares no ledger storage with b.
func (b Bill) Clone() Bill {
	out := b
	out.Ledger = append([]TransactionEntry(nil), b.Ledger...)
	return out
}

// Validate checks the fields supplied by a caller creating a bill.
func (b Bill) Validate() error {
	if strings.TrimSpace(b.Vendor) == "" {
		return ErrEmptyVendor
	}
	if len(b.Vendor) > 200 {
		return errors.New("vendor name too long (max 200 characters)")
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := b.Status.Validate(); err != nil {
		return err
	}
	return b.Category.Validate()
}

// Transactions flattens the ledger of each bill, preserving bill order then ledger order.
func Transactions(bills []Bill) []Transaction {
	var out []Transaction
	for _, b := range bills {
		for _, e := range b.Ledger {
			out = append(out, Transaction{
				BillID:    b.ID,
				Vendor:    b.Vendor,
				Amount:    e.Amount,
				Kind:      e.Kind,
				Timestamp: e.Timestamp,
			})
		}
	}
	return out
}

// Package services provides business logic and orchestration services.
//
// This file holds the date arithmetic of the billing engine: days late, the
// late fine and the customer-facing due notice.
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"powerbill/internal/core"
)

// NoticeKind classifies how close an unpaid bill is to its due date.
type NoticeKind string

const (
	NoticeNone     NoticeKind = ""
	NoticeDueSoon  NoticeKind = "due_soon"
	NoticeDueLater NoticeKind = "due_later"
	NoticeOverdue  NoticeKind = "overdue"
)

// DueSoonWindow is the number of days within which a bill counts as due soon.
const DueSoonWindow = 10

// DueNotice is the nudge shown next to an unpaid bill.
type DueNotice struct {
	Kind NoticeKind
	Days int // days remaining, or days overdue for NoticeOverdue
}

func (n DueNotice) String() string {
	switch n.Kind {
	case NoticeDueSoon:
		return fmt.Sprintf("Due in %d days", n.Days)
	case NoticeDueLater:
		return fmt.Sprintf("Due in more than %d days", DueSoonWindow)
	case NoticeOverdue:
		return fmt.Sprintf("Overdue by %d days", n.Days)
	default:
		return ""
	}
}

// DaysUntilDue returns whole days from today to the bill's due date.
// Negative values mean the due date has passed. Bills without a due date report 0.
func DaysUntilDue(b core.Bill, today core.Date) int {
	if b.DueDate.IsEmpty() {
		return 0
	}
	return today.DaysUntil(b.DueDate)
}

// ComputeFine returns the late fine MarkPaid would apply today and the days late.
// Only unpaid bills whose due date is strictly in the past attract a fine:
// amount × FineRate × daysLate, rounded to two places.
func ComputeFine(b core.Bill, today core.Date) (decimal.Decimal, int) {
	if b.Status != core.StatusUnpaid || b.DueDate.IsEmpty() {
		return decimal.Zero, 0
	}
	daysLate := -DaysUntilDue(b, today)
	if daysLate <= 0 {
		return decimal.Zero, daysLate
	}
	fine := b.Amount.Mul(core.FineRate).Mul(decimal.NewFromInt(int64(daysLate)))
	return fine.Round(2), daysLate
}

// DueNoticeFor returns the notice for an unpaid, non-deposit bill.
// Settled bills and deposits get NoticeNone.
func DueNoticeFor(b core.Bill, today core.Date) DueNotice {
	if b.Status != core.StatusUnpaid || b.IsDeposit() || b.DueDate.IsEmpty() {
		return DueNotice{}
	}
	days := DaysUntilDue(b, today)
	switch {
	case days < 0:
		return DueNotice{Kind: NoticeOverdue, Days: -days}
	case days <= DueSoonWindow:
		return DueNotice{Kind: NoticeDueSoon, Days: days}
	default:
		return DueNotice{Kind: NoticeDueLater, Days: days}
	}
}

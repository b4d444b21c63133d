package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"powerbill/internal/core"
)

func TestComputeFine(t *testing.T) {
	today := core.NewDate(2026, 3, 20)
	tests := []struct {
		name     string
		bill     core.Bill
		wantFine string
		wantDays int
	}{
		{
			name:     "five days late",
			bill:     core.Bill{Amount: amount("1000"), Status: core.StatusUnpaid, DueDate: core.NewDate(2026, 3, 15)},
			wantFine: "100",
			wantDays: 5,
		},
		{
			name:     "rounded to two places",
			bill:     core.Bill{Amount: amount("333.33"), Status: core.StatusUnpaid, DueDate: core.NewDate(2026, 3, 19)},
			wantFine: "6.67",
			wantDays: 1,
		},
		{
			name:     "due today",
			bill:     core.Bill{Amount: amount("1000"), Status: core.StatusUnpaid, DueDate: today},
			wantFine: "0",
			wantDays: 0,
		},
		{
			name:     "future due date",
			bill:     core.Bill{Amount: amount("1000"), Status: core.StatusUnpaid, DueDate: core.NewDate(2026, 3, 25)},
			wantFine: "0",
			wantDays: -5,
		},
		{
			name:     "already paid",
			bill:     core.Bill{Amount: amount("1000"), Status: core.StatusPaid, DueDate: core.NewDate(2026, 3, 1)},
			wantFine: "0",
			wantDays: 0,
		},
		{
			name:     "no due date",
			bill:     core.Bill{Amount: amount("1000"), Status: core.StatusUnpaid},
			wantFine: "0",
			wantDays: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fine, days := ComputeFine(tt.bill, today)
			if !fine.Equal(decimal.RequireFromString(tt.wantFine)) {
				t.Errorf("fine = %s, want %s", fine, tt.wantFine)
			}
			if days != tt.wantDays {
				t.Errorf("days = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestDaysUntilDue(t *testing.T) {
	today := core.NewDate(2026, 2, 25)
	tests := []struct {
		due  core.Date
		want int
	}{
		{core.NewDate(2026, 3, 7), 10},
		{core.NewDate(2026, 2, 25), 0},
		{core.NewDate(2026, 2, 20), -5},
		{core.Date{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.due.String(), func(t *testing.T) {
			if got := DaysUntilDue(core.Bill{DueDate: tt.due}, today); got != tt.want {
				t.Errorf("DaysUntilDue = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDueNoticeFor(t *testing.T) {
	today := core.NewDate(2026, 3, 1)
	unpaid := func(due core.Date) core.Bill {
		return core.Bill{Vendor: "Acme", Status: core.StatusUnpaid, DueDate: due}
	}

	tests := []struct {
		name     string
		bill     core.Bill
		wantKind NoticeKind
		wantText string
	}{
		{"due in three days", unpaid(core.NewDate(2026, 3, 4)), NoticeDueSoon, "Due in 3 days"},
		{"due today", unpaid(today), NoticeDueSoon, "Due in 0 days"},
		{"due in ten days", unpaid(core.NewDate(2026, 3, 11)), NoticeDueSoon, "Due in 10 days"},
		{"due in eleven days", unpaid(core.NewDate(2026, 3, 12)), NoticeDueLater, "Due in more than 10 days"},
		{"overdue", unpaid(core.NewDate(2026, 2, 27)), NoticeOverdue, "Overdue by 2 days"},
		{"paid", core.Bill{Vendor: "Acme", Status: core.StatusPaid, DueDate: core.NewDate(2026, 2, 27)}, NoticeNone, ""},
		{"deposit", core.Bill{Vendor: core.DepositVendor, Status: core.StatusUnpaid}, NoticeNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := DueNoticeFor(tt.bill, today)
			if n.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", n.Kind, tt.wantKind)
			}
			if n.String() != tt.wantText {
				t.Errorf("String() = %q, want %q", n.String(), tt.wantText)
			}
		})
	}
}

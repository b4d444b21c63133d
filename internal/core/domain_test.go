package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClassifyCategory(t *testing.T) {
	cases := []struct {
		choice int
		want   Category
	}{
		{1, Domestic},
		{2, Commercial},
		{0, Domestic},
		{-3, Domestic},
		{99, Domestic},
	}
	for _, tc := range cases {
		if got := ClassifyCategory(tc.choice); got != tc.want {
			t.Fatalf("ClassifyCategory(%d) = %s, want %s", tc.choice, got, tc.want)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 2, 25)
	if got := d.AddDays(10).String(); got != "2024-03-06" {
		t.Fatalf("AddDays across leap February = %s", got)
	}
	if got := d.DaysUntil(NewDate(2024, 3, 1)); got != 5 {
		t.Fatalf("DaysUntil = %d, want 5", got)
	}
	if got := NewDate(2024, 3, 1).DaysUntil(d); got != -5 {
		t.Fatalf("DaysUntil backwards = %d, want -5", got)
	}
	if (Date{}).String() != "" {
		t.Fatal("zero date should format as empty string")
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got := DateOf(time.Date(2024, 7, 1, 23, 59, 0, 0, loc))
	if got.String() != "2024-07-01" {
		t.Fatalf("DateOf = %s, want 2024-07-01", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-31")
	if err != nil || d.String() != "2025-01-31" {
		t.Fatalf("ParseDate = %v, %v", d, err)
	}
	d, err = ParseDate("")
	if err != nil || !d.IsEmpty() {
		t.Fatalf("empty ParseDate = %v, %v", d, err)
	}
	if _, err := ParseDate("31/01/2025"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestBillValidate(t *testing.T) {
	good := Bill{
		Vendor:   "Acme",
		Amount:   decimal.NewFromInt(1000),
		Status:   StatusUnpaid,
		Category: Domestic,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		bill Bill
		want error
	}{
		{Bill{Vendor: " ", Amount: decimal.Zero, Status: StatusUnpaid, Category: Domestic}, ErrEmptyVendor},
		{Bill{Vendor: "a", Amount: decimal.NewFromInt(-1), Status: StatusUnpaid, Category: Domestic}, ErrInvalidAmount},
		{Bill{Vendor: "a", Amount: decimal.Zero, Status: "Overdue", Category: Domestic}, ErrInvalidStatus},
		{Bill{Vendor: "a", Amount: decimal.Zero, Status: StatusPaid, Category: "Industrial"}, ErrInvalidCategory},
	}
	for i, tc := range bads {
		if err := tc.bill.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestBillCloneIsolatesLedger(t *testing.T) {
	b := Bill{Ledger: []TransactionEntry{{Amount: decimal.NewFromInt(1)}}}
	c := b.Clone()
	c.Ledger[0].Amount = decimal.NewFromInt(2)
	c.Ledger = append(c.Ledger, TransactionEntry{})
	if !b.Ledger[0].Amount.Equal(decimal.NewFromInt(1)) || len(b.Ledger) != 1 {
		t.Fatal("Clone shared ledger storage with the original")
	}
}

func TestTransactionsKeepsBillThenLedgerOrder(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	bills := []Bill{
		{ID: 1, Vendor: "Acme", Ledger: []TransactionEntry{
			{Amount: decimal.NewFromInt(1000), Kind: EntryCharge, Timestamp: ts},
			{Amount: decimal.NewFromInt(100), Kind: EntryFine, Timestamp: ts.Add(time.Hour)},
		}},
		{ID: 2, Vendor: DepositVendor, Ledger: []TransactionEntry{
			{Amount: decimal.NewFromInt(500), Kind: EntryDeposit, Timestamp: ts},
		}},
	}
	got := Transactions(bills)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].BillID != 1 || got[1].Kind != EntryFine || got[2].Vendor != DepositVendor {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	bills := []Bill{
		{ID: 1, Vendor: "Acme", Amount: decimal.NewFromInt(1100), Status: StatusPaid, Category: Domestic,
			Ledger: []TransactionEntry{{Amount: decimal.NewFromInt(1000), Kind: EntryCharge}, {Amount: decimal.NewFromInt(100), Kind: EntryFine}}},
		{ID: 2, Vendor: "Electricity", Amount: decimal.NewFromInt(670), Status: StatusUnpaid, Category: Commercial,
			Ledger: []TransactionEntry{{Amount: decimal.NewFromInt(670), Kind: EntryCharge}}},
		{ID: 3, Vendor: DepositVendor, Amount: decimal.NewFromInt(500), Status: StatusPaid, Category: Domestic,
			Ledger: []TransactionEntry{{Amount: decimal.NewFromInt(500), Kind: EntryDeposit}}},
	}
	s := Summarize(bills)
	if s.Bills != 3 || s.Unpaid != 1 {
		t.Fatalf("counts = %d/%d", s.Bills, s.Unpaid)
	}
	if !s.Outstanding.Equal(decimal.NewFromInt(670)) {
		t.Errorf("Outstanding = %s", s.Outstanding)
	}
	if !s.Deposited.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Deposited = %s", s.Deposited)
	}
	if !s.Fines.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Fines = %s", s.Fines)
	}
	if s.ByCategory[1].Category != Commercial || !s.ByCategory[1].Amount.Equal(decimal.NewFromInt(670)) {
		t.Errorf("ByCategory = %+v", s.ByCategory)
	}
}

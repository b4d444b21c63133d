package http

import (
	"time"

	"powerbill/internal/core"
	"powerbill/internal/services"
	"powerbill/internal/tariff"
)

type EntryView struct {
	Amount    string    `json:"amount"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

type BillView struct {
	ID       int64       `json:"id"`
	Vendor   string      `json:"vendor"`
	Amount   string      `json:"amount"`
	DueDate  string      `json:"due_date,omitempty"`
	Status   string      `json:"status"`
	Category string      `json:"category"`
	Notice   string      `json:"notice,omitempty"`
	Ledger   []EntryView `json:"ledger"`
}

type TransactionView struct {
	BillID    int64     `json:"bill_id"`
	Vendor    string    `json:"vendor"`
	Amount    string    `json:"amount"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentView struct {
	Bill        BillView `json:"bill"`
	DaysLate    int      `json:"days_late"`
	Fine        string   `json:"fine"`
	FineApplied bool     `json:"fine_applied"`
	AlreadyPaid bool     `json:"already_paid"`
}

type CategoryAmountView struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type SummaryView struct {
	Bills       int                  `json:"bills"`
	Unpaid      int                  `json:"unpaid"`
	Outstanding string               `json:"outstanding"`
	Deposited   string               `json:"deposited"`
	Fines       string               `json:"fines"`
	ByCategory  []CategoryAmountView `json:"by_category"`
}

type DomesticQuoteView struct {
	Units  int    `json:"units"`
	Rate   string `json:"rate"`
	Charge string `json:"charge"`
}

type PersonChargeView struct {
	Person int    `json:"person"`
	Units  int    `json:"units"`
	Charge string `json:"charge"`
}

type RosterView struct {
	People   []PersonChargeView `json:"people"`
	Total    string             `json:"total"`
	Heaviest PersonChargeView   `json:"heaviest"`
	Lightest PersonChargeView   `json:"lightest"`
}

func newBillView(b core.Bill, today core.Date) BillView {
	v := BillView{
		ID:       b.ID,
		Vendor:   b.Vendor,
		Amount:   core.FormatAmount(b.Amount),
		DueDate:  b.DueDate.String(),
		Status:   string(b.Status),
		Category: string(b.Category),
		Notice:   services.DueNoticeFor(b, today).String(),
		Ledger:   make([]EntryView, 0, len(b.Ledger)),
	}
	for _, e := range b.Ledger {
		v.Ledger = append(v.Ledger, EntryView{
			Amount:    core.FormatAmount(e.Amount),
			Kind:      string(e.Kind),
			Timestamp: e.Timestamp,
		})
	}
	return v
}

func newBillViews(bills []core.Bill, today core.Date) []BillView {
	out := make([]BillView, 0, len(bills))
	for _, b := range bills {
		out = append(out, newBillView(b, today))
	}
	return out
}

func newTransactionViews(txs []core.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionView{
			BillID:    t.BillID,
			Vendor:    t.Vendor,
			Amount:    core.FormatAmount(t.Amount),
			Kind:      string(t.Kind),
			Timestamp: t.Timestamp,
		})
	}
	return out
}

func newPaymentView(p services.Payment, today core.Date) PaymentView {
	return PaymentView{
		Bill:        newBillView(p.Bill, today),
		DaysLate:    p.DaysLate,
		Fine:        core.FormatAmount(p.Fine),
		FineApplied: p.FineApplied,
		AlreadyPaid: p.AlreadyPaid,
	}
}

func newSummaryView(s core.Summary) SummaryView {
	v := SummaryView{
		Bills:       s.Bills,
		Unpaid:      s.Unpaid,
		Outstanding: core.FormatAmount(s.Outstanding),
		Deposited:   core.FormatAmount(s.Deposited),
		Fines:       core.FormatAmount(s.Fines),
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, CategoryAmountView{Category: string(c.Category), Amount: core.FormatAmount(c.Amount)})
	}
	return v
}

func newPersonChargeView(p tariff.PersonCharge) PersonChargeView {
	return PersonChargeView{Person: p.Person, Units: p.Units, Charge: core.FormatAmount(p.Charge)}
}

func newRosterView(r tariff.Roster) RosterView {
	v := RosterView{
		Total:    core.FormatAmount(r.Total),
		Heaviest: newPersonChargeView(r.Heaviest),
		Lightest: newPersonChargeView(r.Lightest),
	}
	for _, p := range r.People {
		v.People = append(v.People, newPersonChargeView(p))
	}
	return v
}

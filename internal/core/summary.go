package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// Summary is a compact roll-up of a set of bills.
type Summary struct {
	Bills       int
	Unpaid      int
	Outstanding decimal.Decimal // sum of unpaid, non-deposit amounts
	Deposited   decimal.Decimal
	Fines       decimal.Decimal
	ByCategory  []CategoryAmount // outstanding per category, Domestic first
}

// Summarize aggregates bills into a Summary.
func Summarize(bills []Bill) Summary {
	s := Summary{
		Outstanding: decimal.Zero,
		Deposited:   decimal.Zero,
		Fines:       decimal.Zero,
	}
	perCategory := map[Category]decimal.Decimal{Domestic: decimal.Zero, Commercial: decimal.Zero}

	for _, b := range bills {
		s.Bills++
		for _, e := range b.Ledger {
			switch e.Kind {
			case EntryDeposit:
				s.Deposited = s.Deposited.Add(e.Amount)
			case EntryFine:
				s.Fines = s.Fines.Add(e.Amount)
			}
		}
		if b.IsDeposit() || b.Status != StatusUnpaid {
			continue
		}
		s.Unpaid++
		s.Outstanding = s.Outstanding.Add(b.Amount)
		perCategory[b.Category] = perCategory[b.Category].Add(b.Amount)
	}

	for _, c := range []Category{Domestic, Commercial} {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Category: c, Amount: perCategory[c]})
	}
	return s
}

// Package tariff computes electricity charges from unit consumption.
//
// Domestic consumption is billed at a single per-unit rate chosen by the tier
// the whole unit count falls into. Commercial consumption is billed at a flat
// per-unit rate summed across a roster of persons.
package tariff

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"powerbill/internal/core"
)

// Tier applies Rate to unit counts up to and including MaxUnits.
// MaxUnits of zero marks the open-ended top tier.
type Tier struct {
	MaxUnits int
	Rate     decimal.Decimal
}

type Schedule struct {
	Domestic       []Tier
	CommercialRate decimal.Decimal
}

// PersonCharge is one roster line of a commercial bill. Person is 1-based.
type PersonCharge struct {
	Person int
	Units  int
	Charge decimal.Decimal
}

// Roster is the result of a commercial calculation.
type Roster struct {
	People   []PersonCharge
	Total    decimal.Decimal
	Heaviest PersonCharge
	Lightest PersonCharge
}

// Default returns the standard rate schedule.
func Default() Schedule {
	return Schedule{
		Domestic: []Tier{
			{MaxUnits: 100, Rate: decimal.RequireFromString("4.80")},
			{MaxUnits: 200, Rate: decimal.RequireFromString("5.80")},
			{MaxUnits: 0, Rate: decimal.RequireFromString("6.50")},
		},
		CommercialRate: decimal.RequireFromString("6.70"),
	}
}

// DomesticRate returns the per-unit rate for a unit count.
func (s Schedule) DomesticRate(units int) (decimal.Decimal, error) {
	if units < 0 {
		return decimal.Zero, core.ErrInvalidUnits
	}
	for _, t := range s.Domestic {
		if t.MaxUnits == 0 || units <= t.MaxUnits {
			return t.Rate, nil
		}
	}
	return decimal.Zero, errors.New("tariff schedule has no tier for unit count")
}

// DomesticCharge bills every unit at the rate of the tier the total falls into.
func (s Schedule) DomesticCharge(units int) (decimal.Decimal, error) {
	if units == 0 {
		return decimal.Zero, nil
	}
	rate, err := s.DomesticRate(units)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Mul(decimal.NewFromInt(int64(units))), nil
}

// CommercialCharge bills each person's units at the flat commercial rate.
// On ties the first person wins both the heaviest and lightest slot.
func (s Schedule) CommercialCharge(units []int) (Roster, error) {
	if len(units) == 0 {
		return Roster{}, fmt.Errorf("%w: empty roster", core.ErrInvalidUnits)
	}

	r := Roster{Total: decimal.Zero}
	for i, u := range units {
		if u < 0 {
			return Roster{}, fmt.Errorf("%w: person %d has %d units", core.ErrInvalidUnits, i+1, u)
		}
		pc := PersonCharge{
			Person: i + 1,
			Units:  u,
			Charge: s.CommercialRate.Mul(decimal.NewFromInt(int64(u))),
		}
		r.People = append(r.People, pc)
		r.Total = r.Total.Add(pc.Charge)

		if i == 0 || u > r.Heaviest.Units {
			r.Heaviest = pc
		}
		if i == 0 || u < r.Lightest.Units {
			r.Lightest = pc
		}
	}
	return r, nil
}

// Validate checks that domestic tiers ascend and end with an open tier.
func (s Schedule) Validate() error {
	if len(s.Domestic) == 0 {
		return errors.New("tariff: at least one domestic tier is required")
	}
	prev := 0
	for i, t := range s.Domestic {
		if t.Rate.IsNegative() {
			return fmt.Errorf("tariff: tier %d has negative rate", i+1)
		}
		last := i == len(s.Domestic)-1
		if last {
			if t.MaxUnits != 0 {
				return fmt.Errorf("tariff: last tier must be open-ended (max_units = 0)")
			}
			break
		}
		if t.MaxUnits <= prev {
			return fmt.Errorf("tariff: tier %d max_units %d must exceed %d", i+1, t.MaxUnits, prev)
		}
		prev = t.MaxUnits
	}
	if s.CommercialRate.IsNegative() {
		return errors.New("tariff: negative commercial rate")
	}
	return nil
}

// fileSchema mirrors the TOML layout. Rates are strings so they stay exact.
//
//	commercial_rate = "6.70"
//
//	[[domestic]]
//	max_units = 100
//	rate = "4.80"
type fileSchema struct {
	CommercialRate string `toml:"commercial_rate"`
	Domestic       []struct {
		MaxUnits int    `toml:"max_units"`
		Rate     string `toml:"rate"`
	} `toml:"domestic"`
}

// LoadFile reads a TOML tariff file. Missing sections keep their defaults.
func LoadFile(path string) (Schedule, error) {
	var raw fileSchema
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return Schedule{}, fmt.Errorf("decode tariff file: %w", err)
	}
	return fromSchema(raw)
}

// Parse reads a TOML tariff document from a string.
func Parse(doc string) (Schedule, error) {
	var raw fileSchema
	if _, err := toml.Decode(doc, &raw); err != nil {
		return Schedule{}, fmt.Errorf("decode tariff: %w", err)
	}
	return fromSchema(raw)
}

func fromSchema(raw fileSchema) (Schedule, error) {
	s := Default()

	if raw.CommercialRate != "" {
		rate, err := decimal.NewFromString(raw.CommercialRate)
		if err != nil {
			return Schedule{}, fmt.Errorf("tariff: commercial_rate: %w", err)
		}
		s.CommercialRate = rate
	}

	if len(raw.Domestic) > 0 {
		s.Domestic = nil
		for i, t := range raw.Domestic {
			rate, err := decimal.NewFromString(t.Rate)
			if err != nil {
				return Schedule{}, fmt.Errorf("tariff: domestic tier %d rate: %w", i+1, err)
			}
			s.Domestic = append(s.Domestic, Tier{MaxUnits: t.MaxUnits, Rate: rate})
		}
	}

	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

package engine

import (
	"log/slog"

	"github.com/talgya/main-street/internal/economy"
)

// processDay is the once-per-day treasury pass: savings interest, property
// tax and upkeep, then wages.
func (s *Simulation) processDay(day int) {
	t := &s.g.Treasury

	if interest, ok := t.ApplyDailyInterest(day); ok {
		s.emitEvent(CategoryBank, "", "Earned %s interest on savings", economy.Format(interest))
	}

	tax, upkeep := s.dailyCharges()
	if t.ApplyDailyCharges(day, tax+upkeep) && tax+upkeep > 0 {
		s.emitEvent(CategoryTax, "", "Paid %s property tax and %s maintenance",
			economy.Format(tax), economy.Format(upkeep))
	}

	wages := s.payWages(day)

	if t.InDebt() {
		s.emitEvent(CategoryDebt, "", "Cash is negative at %s; income is needed to cover taxes and wages",
			economy.Format(t.Cash))
	}

	occupied, units := s.occupancy()
	slog.Info("daily report",
		"day", day,
		"time", s.g.Clock.SimTime(),
		"cash", t.Cash,
		"bank", t.BankBalance,
		"loan", t.LoanAmount,
		"tax", tax,
		"upkeep", upkeep,
		"wages", wages,
		"buildings", s.g.Registry.Len(),
		"occupied_units", occupied,
		"units", units,
		"applications", len(s.g.Mailbox),
	)
}

// dailyCharges sums property tax and maintenance over every building.
func (s *Simulation) dailyCharges() (tax, upkeep float64) {
	for _, b := range s.g.Registry.All() {
		tax += s.g.Treasury.PropertyTax(b.Value)
		if def, err := s.definition(b); err == nil {
			upkeep += def.Maintenance
		}
	}
	return tax, upkeep
}

func (s *Simulation) occupancy() (occupied, units int) {
	for _, b := range s.g.Registry.All() {
		occupied += b.OccupiedUnits()
		units += len(b.Units)
	}
	return occupied, units
}

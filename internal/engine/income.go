package engine

import (
	"fmt"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
)

// parkBoost sums the boosts of recreation buildings on b's street whose
// radius reaches b. Boosts add up.
func (s *Simulation) parkBoost(b *buildings.Building) float64 {
	boost := 0.0
	for _, p := range s.g.Registry.OnStreet(b.Street) {
		if p.ID == b.ID {
			continue
		}
		def, ok := s.catalog.Get(p.Kind)
		if !ok || !def.IsRecreation() || !def.Boosts(b.Category) {
			continue
		}
		d := p.Position - b.Position
		if d < 0 {
			d = -d
		}
		if d <= def.BoostRadius {
			boost += def.BoostAmount
		}
	}
	return boost
}

// totalBonus is the combined income multiplier of b.
func (s *Simulation) totalBonus(b *buildings.Building) float64 {
	return economy.TotalBonus(b.DistrictBonus, s.parkBoost(b), b.ClusterBonus)
}

// accrue grows b's balances for the simulated minutes since its last
// update.
func (s *Simulation) accrue(b *buildings.Building, def buildings.Definition, now float64) error {
	bonus := s.totalBonus(b)

	switch {
	case def.AccruesFlat():
		b.AccumulatedIncome = economy.Accrue(b.AccumulatedIncome, now-b.LastIncomeAt, def.IncomeRate, def.MaxIncome, bonus)

	case def.HasUnits():
		for i, u := range b.Units {
			if u.Rented != (u.Tenant != nil) {
				return fmt.Errorf("unit %d: rented=%v with tenant=%v", i, u.Rented, u.Tenant != nil)
			}
			if u.Rented {
				u.AccumulatedIncome = economy.Accrue(u.AccumulatedIncome, now-u.LastIncomeAt, u.Tenant.RentRate, def.MaxIncome, bonus)
			}
			u.LastIncomeAt = now
		}

	case def.IsProducer():
		p := b.Producer
		if p == nil {
			return fmt.Errorf("producer storage missing")
		}
		p.Stored = economy.Regenerate(p.Stored, now-p.LastResourceAt, p.RegenRate, p.MaxStorage)
		p.LastResourceAt = now

	default:
		// Event-driven income only needs holding under its cap.
		if def.MaxIncome > 0 {
			b.AccumulatedIncome = economy.Award(b.AccumulatedIncome, 0, def.MaxIncome, bonus)
		}
	}
	b.LastIncomeAt = now
	return nil
}

// award adds event income (nights, meals, purchases) to b's pool.
func (s *Simulation) award(b *buildings.Building, def buildings.Definition, amount float64) {
	b.AccumulatedIncome = economy.Award(b.AccumulatedIncome, amount, def.MaxIncome, s.totalBonus(b))
}

// autoCollect sweeps b's balance into cash when its category policy fires.
func (s *Simulation) autoCollect(b *buildings.Building, now float64) {
	pol, ok := s.policies.For(b.Category)
	if !ok {
		return
	}
	if !pol.ShouldCollect(b.CollectableIncome(), now, b.LastAutoCollectAt) {
		return
	}
	amount := economy.Floor(b.DrainIncome())
	s.g.Treasury.Credit(amount)
	b.LastAutoCollectAt = now
	s.emitEvent(CategoryIncome, b.ID, "Auto-collected %s from %s", economy.Format(amount), s.label(b))
}

// label names a building in notifications, e.g. "House (street 1, lot 3)".
func (s *Simulation) label(b *buildings.Building) string {
	def, ok := s.catalog.Get(b.Kind)
	name := b.Kind.String()
	if ok {
		name = def.Label
	}
	return fmt.Sprintf("%s (street %d, lot %d)", name, b.Street, b.Lot)
}

package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
)

// HireEmployee hires role at a building. Hiring an already filled role is
// a no-op. Wages start at the next day boundary.
func (s *Simulation) HireEmployee(buildingID string, role buildings.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return err
	}
	if !def.CanHire(role) {
		return fmt.Errorf("%s cannot employ a %s: %w", def.Label, role, ErrInvalidRole)
	}
	if b.HasRole(role) {
		return nil
	}
	b.SetRole(role, true)
	if b.Shop != nil {
		b.Shop.IsOpen = s.shopOpen(b)
	}
	s.emitEvent(CategoryWages, b.ID, "Hired a %s at %s for %s/day", role, s.label(b), economy.Format(def.DailyWage))
	slog.Info("employee hired", "building", b.ID, "role", role.String())
	return nil
}

// FireEmployee lets a role go.
func (s *Simulation) FireEmployee(buildingID string, role buildings.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return err
	}
	if !def.CanHire(role) {
		return fmt.Errorf("%s cannot employ a %s: %w", def.Label, role, ErrInvalidRole)
	}
	if !b.HasRole(role) {
		return nil
	}
	b.SetRole(role, false)
	if b.Shop != nil {
		b.Shop.IsOpen = false
	}
	s.emitEvent(CategoryWages, b.ID, "Let the %s at %s go", role, s.label(b))
	return nil
}

// payWages debits each building's staff once for day and returns the total.
func (s *Simulation) payWages(day int) float64 {
	total := 0.0
	for _, b := range s.g.Registry.All() {
		def, err := s.definition(b)
		if err != nil {
			continue
		}
		if inv := b.Shop; inv != nil {
			if inv.LastWageCheckDay < day {
				inv.LastWageCheckDay = day
				if inv.HasEmployee {
					total += inv.DailyWage
				}
			}
			continue
		}
		if b.LastWageDay < day {
			b.LastWageDay = day
			total += def.DailyWage * float64(b.Staff.Count())
		}
	}
	if total > 0 {
		s.g.Treasury.Charge(total)
		s.emitEvent(CategoryWages, "", "Paid %s in wages", economy.Format(total))
	}
	return total
}

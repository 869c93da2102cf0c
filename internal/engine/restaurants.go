package engine

import (
	"fmt"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/entropy"
)

// waiterOnDuty reports whether the hired waiter for the current shift is
// present.
func (s *Simulation) waiterOnDuty(b *buildings.Building, hour int) bool {
	rc := s.cfg.Restaurants
	if hour >= rc.DayShiftStart && hour < rc.DayShiftEnd {
		return b.Staff.DayWaiter
	}
	return b.Staff.NightWaiter
}

// processRestaurant finishes meals that have run their course and lets the
// on-duty waiter clean one table per cleaning interval.
func (s *Simulation) processRestaurant(b *buildings.Building, def buildings.Definition, now float64) {
	for _, t := range b.Tables {
		if t.Status != buildings.TableOccupied || now < t.MealStartAt+t.MealDuration {
			continue
		}
		t.Status = buildings.TableDirty
		t.CustomerRef = ""
		s.award(b, def, t.Bill)
		t.Bill = 0
	}

	if !s.waiterOnDuty(b, HourOf(now)) || now-b.LastTableCleanAt < s.cfg.Restaurants.CleanIntervalMinutes {
		return
	}
	for _, t := range b.Tables {
		if t.Status == buildings.TableDirty {
			t.Status = buildings.TableAvailable
			b.LastTableCleanAt = now
			return
		}
	}
}

// SeatCustomer seats a visiting customer at the first available table and
// returns the table index.
func (s *Simulation) SeatCustomer(buildingID, customerRef string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return -1, err
	}
	if !def.HasTables() {
		return -1, fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}
	rc := s.cfg.Restaurants
	for i, t := range b.Tables {
		if t.Status != buildings.TableAvailable {
			continue
		}
		t.Status = buildings.TableOccupied
		t.CustomerRef = customerRef
		t.MealStartAt = s.g.Clock.Minutes
		t.MealDuration = entropy.Uniform(s.rng, rc.MealMinMinutes, rc.MealMaxMinutes)
		t.Bill = def.MealPrice * s.totalBonus(b)
		return i, nil
	}
	return -1, fmt.Errorf("%s: %w", b.ID, ErrNoTableAvailable)
}

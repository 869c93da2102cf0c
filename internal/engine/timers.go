package engine

import (
	"github.com/talgya/main-street/internal/entropy"
)

// PendingFill is a scheduled auto-fill of one apartment unit. It fires on
// unpaused wall time and is re-validated when it fires.
type PendingFill struct {
	BuildingID string  `json:"building_id"`
	Unit       int     `json:"unit"`
	FireAt     float64 `json:"fire_at"` // Clock.RealSeconds
}

// scheduleFill queues an auto-fill for a unit unless one is pending.
func (s *Simulation) scheduleFill(buildingID string, unit int) {
	for _, t := range s.g.Timers {
		if t.BuildingID == buildingID && t.Unit == unit {
			return
		}
	}
	a := s.cfg.Apartments
	delay := entropy.Uniform(s.rng, a.AutoFillMinSeconds, a.AutoFillMaxSeconds)
	s.g.Timers = append(s.g.Timers, PendingFill{
		BuildingID: buildingID,
		Unit:       unit,
		FireAt:     s.g.Clock.RealSeconds + delay,
	})
}

// cancelFills drops pending fills for a building; unit < 0 drops all of them.
func (s *Simulation) cancelFills(buildingID string, unit int) {
	kept := s.g.Timers[:0]
	for _, t := range s.g.Timers {
		if t.BuildingID == buildingID && (unit < 0 || t.Unit == unit) {
			continue
		}
		kept = append(kept, t)
	}
	s.g.Timers = kept
}

// fireTimers runs every due fill in schedule order.
func (s *Simulation) fireTimers() {
	now := s.g.Clock.RealSeconds
	var due []PendingFill
	kept := s.g.Timers[:0]
	for _, t := range s.g.Timers {
		if t.FireAt <= now {
			due = append(due, t)
			continue
		}
		kept = append(kept, t)
	}
	s.g.Timers = kept

	for _, t := range due {
		s.fillVacancy(t)
	}
}

// fillVacancy commits a fired timer if the unit is still there and vacant.
// With auto-fill off the vacancy instead advertises to the mailbox.
func (s *Simulation) fillVacancy(t PendingFill) {
	b, ok := s.g.Registry.Get(t.BuildingID)
	if !ok || t.Unit < 0 || t.Unit >= len(b.Units) {
		return
	}
	u := b.Units[t.Unit]
	if u.Rented {
		return
	}
	def, err := s.definition(b)
	if err != nil {
		return
	}
	now := s.g.Clock.Minutes

	if !s.g.AutoFill {
		n := entropy.Between(s.rng, 1, 3)
		for i := 0; i < n; i++ {
			s.deliver(s.tenants.Generate(b.ID, def.BaseRent, now))
		}
		s.emitEvent(CategoryTenant, b.ID, "%d rental application(s) arrived for %s", n, s.label(b))
		return
	}

	app := s.tenants.Generate(b.ID, def.BaseRent, now)
	u.MoveIn(app.Tenant(), now)
	s.emitEvent(CategoryTenant, b.ID, "%s (%s, credit %d) moved into unit %d of %s",
		app.Name, app.Job, app.CreditScore, t.Unit+1, s.label(b))
}

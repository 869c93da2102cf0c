package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/entropy"
	"github.com/talgya/main-street/internal/tenants"
)

// checkTenantRisk rolls each rented unit's daily default chance. A unit is
// rolled at most once per simulated day.
func (s *Simulation) checkTenantRisk(b *buildings.Building, now float64) error {
	today := DayOf(now)
	for i, u := range b.Units {
		if !u.Rented {
			continue
		}
		if DayOf(u.LastRiskCheckAt) >= today {
			continue
		}
		u.LastRiskCheckAt = now

		if !entropy.Chance(s.rng, tenants.SkipChance(u.Tenant.CreditScore)) {
			continue
		}
		name := u.Tenant.Name
		lost := u.AccumulatedIncome
		u.Vacate(now)
		s.emitEvent(CategoryTenant, b.ID, "%s skipped out on unit %d of %s, forfeiting %s in rent",
			name, i+1, s.label(b), economy.Format(lost))
		s.scheduleFill(b.ID, i)
	}
	return nil
}

// deliver puts an application in the mailbox, dropping the oldest when full.
func (s *Simulation) deliver(app tenants.Application) {
	capacity := s.cfg.Apartments.MailboxCapacity
	s.g.Mailbox = append(s.g.Mailbox, app)
	if capacity > 0 && len(s.g.Mailbox) > capacity {
		s.g.Mailbox = s.g.Mailbox[len(s.g.Mailbox)-capacity:]
	}
}

func (s *Simulation) findApplication(id string) (int, bool) {
	for i, a := range s.g.Mailbox {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Simulation) dropApplication(i int) {
	s.g.Mailbox = append(s.g.Mailbox[:i], s.g.Mailbox[i+1:]...)
}

// dropApplicationsFor removes every queued application for a building.
func (s *Simulation) dropApplicationsFor(buildingID string) {
	kept := s.g.Mailbox[:0]
	for _, a := range s.g.Mailbox {
		if a.BuildingID != buildingID {
			kept = append(kept, a)
		}
	}
	s.g.Mailbox = kept
}

// AcceptApplication moves a queued applicant into the first vacant unit of
// their building and returns the unit index.
func (s *Simulation) AcceptApplication(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findApplication(id)
	if !ok {
		return -1, fmt.Errorf("application %s: %w", id, ErrApplicationNotFound)
	}
	app := s.g.Mailbox[i]
	b, ok := s.g.Registry.Get(app.BuildingID)
	if !ok {
		s.dropApplication(i)
		return -1, fmt.Errorf("application %s for building %s: %w", id, app.BuildingID, ErrBuildingNotFound)
	}
	vacant := b.VacantUnits()
	if len(vacant) == 0 {
		return -1, fmt.Errorf("%s: %w", b.ID, ErrNoVacancy)
	}

	unit := vacant[0]
	b.Units[unit].MoveIn(app.Tenant(), s.g.Clock.Minutes)
	s.cancelFills(b.ID, unit)
	s.dropApplication(i)
	s.emitEvent(CategoryTenant, b.ID, "Accepted %s (credit %d) into unit %d of %s",
		app.Name, app.CreditScore, unit+1, s.label(b))
	slog.Info("application accepted", "application", id, "building", b.ID, "unit", unit)
	return unit, nil
}

// RejectApplication discards a queued application.
func (s *Simulation) RejectApplication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findApplication(id)
	if !ok {
		return fmt.Errorf("application %s: %w", id, ErrApplicationNotFound)
	}
	s.dropApplication(i)
	return nil
}

// ToggleAutoFill flips automatic tenant placement and returns the new
// setting. Turning it on schedules fills for every vacant unit.
func (s *Simulation) ToggleAutoFill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.g.AutoFill = !s.g.AutoFill
	if s.g.AutoFill {
		for _, b := range s.g.Registry.All() {
			for _, i := range b.VacantUnits() {
				s.scheduleFill(b.ID, i)
			}
		}
	}
	return s.g.AutoFill
}

package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/entropy"
	"github.com/talgya/main-street/internal/street"
)

// facadeVariants is the number of cosmetic facades per kind.
const facadeVariants = 4

// PlaceBuilding builds kind at position on streetN (0 = the active street)
// and returns a copy of the new building. Every check runs before any
// state changes, so a failed placement leaves the game untouched.
func (s *Simulation) PlaceBuilding(kind buildings.Kind, position float64, streetN int) (*buildings.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	def, ok := s.catalog.Get(kind)
	if !ok {
		slog.Warn("place ignored: invalid kind", "kind", int(kind))
		return nil, fmt.Errorf("kind %d: %w", kind, ErrInvalidBuildingKind)
	}
	if streetN == 0 {
		streetN = g.ActiveStreet
	}
	lot, err := g.Registry.CheckLot(streetN, position)
	if err != nil {
		if errors.Is(err, ErrInvalidStreetIndex) {
			slog.Warn("place ignored: invalid street", "street", streetN)
		}
		return nil, err
	}
	if !g.Creative {
		if err := g.Treasury.Spend(def.Cost, def.Wood, def.Bricks); err != nil {
			return nil, err
		}
	}

	c := &g.Clock
	b := buildings.New(def, s.newID(), streetN, position, lot, c.Minutes, c.Day(),
		s.cfg.Hotels.VacancyCooldown, s.cfg.Restaurants.CleanIntervalMinutes)
	b.Facade = entropy.Intn(s.rng, facadeVariants)
	if def.District != buildings.DistrictNone && g.Layout.DistrictAt(streetN, lot) == def.District {
		b.DistrictBonus = s.cfg.DistrictBonus
	}
	if err := g.Registry.Add(b); err != nil {
		// CheckLot passed under the same lock; only a duplicate id lands here.
		if !g.Creative {
			g.Treasury.Credit(def.Cost)
			g.Treasury.AddWood(def.Wood)
			g.Treasury.AddBricks(def.Bricks)
		}
		return nil, err
	}

	if def.Category == buildings.CategoryResidential {
		s.growPopulation(b)
	}
	for _, i := range b.VacantUnits() {
		s.scheduleFill(b.ID, i)
	}
	g.Registry.RecomputeClusters(streetN, s.cluster)

	s.emitEvent(CategoryBuilding, b.ID, "Built %s for %s", s.label(b), economy.Format(def.Cost))
	slog.Info("building placed", "building", b.ID, "kind", kind.String(), "street", streetN, "lot", lot)
	return b.Clone(), nil
}

// growPopulation adds pending citizens for a new home and asks the citizen
// subsystem to move them in.
func (s *Simulation) growPopulation(b *buildings.Building) {
	ac := s.cfg.Apartments
	n := entropy.Between(s.rng, ac.MinPopulation, ac.MaxPopulation)
	s.g.PendingPopulation += n
	c := &s.g.Clock
	s.sink.Spawn(SpawnRequest{
		Event:         EventMoveIn,
		Day:           c.Day(),
		Hour:          c.Hour(),
		Count:         n,
		DestinationID: b.ID,
		TaggedCount:   n,
	})
}

// RemoveBuilding demolishes a building. Its pending fills and queued
// applications go with it and its street's clustering is recomputed.
func (s *Simulation) RemoveBuilding(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	b, ok := g.Registry.Get(id)
	if !ok {
		return fmt.Errorf("building %s: %w", id, ErrBuildingNotFound)
	}
	label := s.label(b)
	b.Release()
	g.Registry.Remove(id)
	s.cancelFills(id, -1)
	s.dropApplicationsFor(id)
	g.Registry.RecomputeClusters(b.Street, s.cluster)

	s.emitEvent(CategoryBuilding, id, "Demolished %s", label)
	slog.Info("building removed", "building", id, "kind", b.Kind.String())
	return nil
}

// SwitchStreet makes n the active street for placements.
func (s *Simulation) SwitchStreet(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !street.ValidStreet(n) {
		slog.Warn("switch street ignored", "street", n)
		return fmt.Errorf("street %d: %w", n, ErrInvalidStreetIndex)
	}
	s.g.ActiveStreet = n
	return nil
}

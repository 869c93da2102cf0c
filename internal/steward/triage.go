package steward

import "github.com/talgya/main-street/internal/buildings"

// Health holds derived signals computed from an Observation. Levels run
// "DEBT", "TIGHT", "VACANT", "HEALTHY" in order of urgency.
type Health struct {
	Cash          float64
	Uncollected   float64 // Income waiting in buildings
	VacantUnits   int
	Units         int
	Occupancy     float64 // Rented share of apartment units, 1 with none
	EmptyShops    int
	UnstaffedWork int // Shops and lodgings with nobody hired
	Level         string
}

// Triage computes the Health of an Observation.
func Triage(obs *Observation, reserve float64) *Health {
	h := &Health{Cash: obs.Status.Cash, Occupancy: 1}
	for _, b := range obs.Buildings {
		if b.Building == nil {
			continue
		}
		h.Uncollected += b.CollectableIncome
		for _, u := range b.Units {
			h.Units++
			if !u.Rented {
				h.VacantUnits++
			}
		}
		if b.Shop != nil && b.Shop.Stock == 0 {
			h.EmptyShops++
		}
		if (b.Category == buildings.CategoryShop || b.Category == buildings.CategoryLodging) && b.StaffCount() == 0 {
			h.UnstaffedWork++
		}
	}
	if h.Units > 0 {
		h.Occupancy = float64(h.Units-h.VacantUnits) / float64(h.Units)
	}

	switch {
	case obs.Status.InDebt:
		h.Level = "DEBT"
	case h.Cash < reserve/2:
		h.Level = "TIGHT"
	case h.Occupancy < 0.5:
		h.Level = "VACANT"
	default:
		h.Level = "HEALTHY"
	}
	return h
}

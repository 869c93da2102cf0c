package engine

import (
	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/tenants"
)

// Status is the HUD summary of a game.
type Status struct {
	Time    string  `json:"time"`
	Day     int     `json:"day"`
	Hour    int     `json:"hour"`
	Minutes float64 `json:"minutes"`
	Night   bool    `json:"night"`
	Speed   int     `json:"speed"`
	Paused  bool    `json:"paused"`

	Cash        float64 `json:"cash"`
	Wood        int     `json:"wood"`
	Bricks      int     `json:"bricks"`
	BankBalance float64 `json:"bank_balance"`
	LoanAmount  float64 `json:"loan_amount"`
	InDebt      bool    `json:"in_debt"`

	AutoCollect  bool `json:"auto_collect"`
	AutoFill     bool `json:"auto_fill"`
	Creative     bool `json:"creative"`
	ActiveStreet int  `json:"active_street"`

	Buildings         int `json:"buildings"`
	OccupiedUnits     int `json:"occupied_units"`
	Units             int `json:"units"`
	Applications      int `json:"applications"`
	PendingPopulation int `json:"pending_population"`
	PendingFills      int `json:"pending_fills"`
}

// BuildingView is a read-only copy of a building plus derived figures.
type BuildingView struct {
	*buildings.Building
	KindName          string  `json:"kind_name"`
	CategoryName      string  `json:"category_name"`
	Label             string  `json:"label"`
	CollectableIncome float64 `json:"collectable_income"`
	IncomeCap         float64 `json:"income_cap"` // -1 when uncapped
	ParkBoost         float64 `json:"park_boost"`
	TotalBonus        float64 `json:"total_bonus"`
}

// Status returns the current HUD summary.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	c := &g.Clock
	t := &g.Treasury
	occupied, units := s.occupancy()
	return Status{
		Time:              c.SimTime(),
		Day:               c.Day(),
		Hour:              c.Hour(),
		Minutes:           c.Minutes,
		Night:             c.IsNight(),
		Speed:             c.Speed,
		Paused:            c.Paused,
		Cash:              t.Cash,
		Wood:              t.Wood,
		Bricks:            t.Bricks,
		BankBalance:       t.BankBalance,
		LoanAmount:        t.LoanAmount,
		InDebt:            t.InDebt(),
		AutoCollect:       g.AutoCollect,
		AutoFill:          g.AutoFill,
		Creative:          g.Creative,
		ActiveStreet:      g.ActiveStreet,
		Buildings:         g.Registry.Len(),
		OccupiedUnits:     occupied,
		Units:             units,
		Applications:      len(g.Mailbox),
		PendingPopulation: g.PendingPopulation,
		PendingFills:      len(g.Timers),
	}
}

// Treasury returns a copy of the treasury.
func (s *Simulation) Treasury() economy.Treasury {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Treasury
}

// Clock returns a copy of the clock.
func (s *Simulation) Clock() Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Clock
}

// Buildings returns views of every building in registry order, optionally
// limited to one street (0 = all).
func (s *Simulation) Buildings(streetN int) []BuildingView {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.g.Registry.All()
	out := make([]BuildingView, 0, len(all))
	for _, b := range all {
		if streetN != 0 && b.Street != streetN {
			continue
		}
		out = append(out, s.view(b))
	}
	return out
}

// Building returns the view of one building.
func (s *Simulation) Building(id string) (BuildingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, _, err := s.building(id)
	if err != nil {
		return BuildingView{}, err
	}
	return s.view(b), nil
}

// Applications returns a copy of the mailbox, oldest first.
func (s *Simulation) Applications() []tenants.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tenants.Application, len(s.g.Mailbox))
	copy(out, s.g.Mailbox)
	return out
}

func (s *Simulation) view(b *buildings.Building) BuildingView {
	v := BuildingView{
		Building:          b.Clone(),
		KindName:          b.Kind.String(),
		CategoryName:      b.Category.String(),
		Label:             s.label(b),
		CollectableIncome: b.CollectableIncome(),
		IncomeCap:         -1,
		ParkBoost:         s.parkBoost(b),
		TotalBonus:        s.totalBonus(b),
	}
	if def, ok := s.catalog.Get(b.Kind); ok {
		v.IncomeCap = economy.Cap(def.MaxIncome, v.TotalBonus)
	}
	return v
}

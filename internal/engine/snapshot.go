package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/street"
	"github.com/talgya/main-street/internal/tenants"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a self-contained copy of a game, safe to serialize and hand
// to another goroutine.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	Clock    Clock            `json:"clock"`
	Treasury economy.Treasury `json:"treasury"`
	Layout   street.Layout    `json:"layout"`

	AutoCollect  bool `json:"auto_collect"`
	AutoFill     bool `json:"auto_fill"`
	Creative     bool `json:"creative"`
	ActiveStreet int  `json:"active_street"`

	Buildings []*buildings.Building `json:"buildings"`
	Mailbox   []tenants.Application `json:"mailbox"`
	Timers    []PendingFill         `json:"timers"`
	Traffic   TrafficState          `json:"traffic"`

	PendingPopulation int `json:"pending_population"`
	LastHourIndex     int `json:"last_hour_index"`
	LastDay           int `json:"last_day"`
}

// Snapshot captures the whole game. The result shares no memory with the
// live state.
func (s *Simulation) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	snap := &Snapshot{
		Version:           SnapshotVersion,
		Seed:              s.seed,
		Clock:             g.Clock,
		Treasury:          g.Treasury,
		Layout:            copyLayout(g.Layout),
		AutoCollect:       g.AutoCollect,
		AutoFill:          g.AutoFill,
		Creative:          g.Creative,
		ActiveStreet:      g.ActiveStreet,
		Mailbox:           append([]tenants.Application(nil), g.Mailbox...),
		Timers:            append([]PendingFill(nil), g.Timers...),
		Traffic:           TrafficState{Fired: make(map[string]int, len(g.Traffic.Fired)), FieldTripDay: g.Traffic.FieldTripDay},
		PendingPopulation: g.PendingPopulation,
		LastHourIndex:     g.LastHourIndex,
		LastDay:           g.LastDay,
	}
	for k, d := range g.Traffic.Fired {
		snap.Traffic.Fired[k] = d
	}
	for _, b := range g.Registry.All() {
		snap.Buildings = append(snap.Buildings, b.Clone())
	}
	return snap
}

// Restore replaces the game with snap. The snapshot is validated in full
// first; on error the running game is left exactly as it was.
func (s *Simulation) Restore(snap *Snapshot) error {
	g, err := s.stateFrom(snap)
	if err != nil {
		slog.Warn("snapshot rejected", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = g
	s.events = nil
	if s.queue != nil {
		s.queue.Drain()
	}
	slog.Info("game restored", "time", g.Clock.SimTime(), "buildings", g.Registry.Len(), "cash", g.Treasury.Cash)
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidSnapshot)
}

// stateFrom builds a GameState from a deep copy of snap.
func (s *Simulation) stateFrom(snap *Snapshot) (*GameState, error) {
	if snap == nil {
		return nil, invalid("nil snapshot")
	}
	if snap.Version != SnapshotVersion {
		return nil, invalid("version %d, want %d", snap.Version, SnapshotVersion)
	}
	c := snap.Clock
	if c.Minutes < 0 || math.IsNaN(c.Minutes) || math.IsInf(c.Minutes, 0) {
		return nil, invalid("clock minutes %v", c.Minutes)
	}
	if c.Speed < 1 || c.Speed > 3 {
		return nil, invalid("clock speed %d", c.Speed)
	}
	if !street.ValidStreet(snap.ActiveStreet) {
		return nil, invalid("active street %d", snap.ActiveStreet)
	}

	g := &GameState{
		Clock:             c,
		Treasury:          snap.Treasury,
		Registry:          street.NewRegistry(s.cfg.LotsPerStreet),
		Layout:            copyLayout(snap.Layout),
		AutoCollect:       snap.AutoCollect,
		AutoFill:          snap.AutoFill,
		Creative:          snap.Creative,
		ActiveStreet:      snap.ActiveStreet,
		Mailbox:           append([]tenants.Application(nil), snap.Mailbox...),
		Traffic:           TrafficState{Fired: make(map[string]int), FieldTripDay: snap.Traffic.FieldTripDay},
		PendingPopulation: snap.PendingPopulation,
		LastHourIndex:     snap.LastHourIndex,
		LastDay:           snap.LastDay,
	}
	for k, d := range snap.Traffic.Fired {
		g.Traffic.Fired[k] = d
	}

	for i, src := range snap.Buildings {
		if src == nil {
			return nil, invalid("building %d is nil", i)
		}
		b := src.Clone()
		if err := s.checkBuilding(b); err != nil {
			return nil, err
		}
		if err := g.Registry.Add(b); err != nil {
			if errors.Is(err, street.ErrLotOccupied) || errors.Is(err, street.ErrDuplicateID) ||
				errors.Is(err, street.ErrLotOutOfRange) || errors.Is(err, street.ErrInvalidStreetIndex) {
				return nil, invalid("building %s: %v", b.ID, err)
			}
			return nil, err
		}
	}

	// Timers for demolished buildings are dropped rather than rejected;
	// fillVacancy would discard them anyway.
	for _, t := range snap.Timers {
		b, ok := g.Registry.Get(t.BuildingID)
		if !ok || t.Unit < 0 || t.Unit >= len(b.Units) {
			continue
		}
		g.Timers = append(g.Timers, t)
	}

	for _, a := range g.Mailbox {
		if a.ID == "" {
			return nil, invalid("application without id")
		}
	}

	g.Registry.RecomputeAllClusters(s.cluster)
	return g, nil
}

// checkBuilding rejects a building whose shape does not match its kind.
func (s *Simulation) checkBuilding(b *buildings.Building) error {
	def, ok := s.catalog.Get(b.Kind)
	if !ok {
		return invalid("building %s kind %d", b.ID, b.Kind)
	}
	if b.ID == "" {
		return invalid("building without id")
	}
	if b.Category != def.Category {
		return invalid("building %s category %s, want %s", b.ID, b.Category, def.Category)
	}
	if b.Lot != street.LotIndex(b.Position) {
		return invalid("building %s lot %d does not match position %v", b.ID, b.Lot, b.Position)
	}
	if len(b.Units) != def.Units || len(b.Rooms) != def.Rooms || len(b.Tables) != def.Tables {
		return invalid("building %s sub-entities do not match %s", b.ID, def.Label)
	}
	for i, u := range b.Units {
		if u == nil || u.Rented != (u.Tenant != nil) {
			return invalid("building %s unit %d inconsistent", b.ID, i)
		}
	}
	for i, r := range b.Rooms {
		if r == nil {
			return invalid("building %s room %d is nil", b.ID, i)
		}
	}
	for i, t := range b.Tables {
		if t == nil {
			return invalid("building %s table %d is nil", b.ID, i)
		}
	}
	if def.HasShop() != (b.Shop != nil) {
		return invalid("building %s shop inventory mismatch", b.ID)
	}
	if b.Shop != nil && (b.Shop.Stock < 0 || b.Shop.Stock > b.Shop.MaxStock) {
		return invalid("building %s stock %d outside 0..%d", b.ID, b.Shop.Stock, b.Shop.MaxStock)
	}
	if def.IsProducer() != (b.Producer != nil) {
		return invalid("building %s producer storage mismatch", b.ID)
	}
	if b.AccumulatedIncome < 0 {
		return invalid("building %s negative income", b.ID)
	}
	return nil
}

func copyLayout(l street.Layout) street.Layout {
	out := street.Layout{Streets: make(map[int][]street.Span, len(l.Streets))}
	for n, spans := range l.Streets {
		out.Streets[n] = append([]street.Span(nil), spans...)
	}
	return out
}

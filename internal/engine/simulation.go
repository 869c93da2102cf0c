// Package engine runs the street economy: the simulated clock, per-building
// income and occupancy lifecycles, scheduled traffic, the daily treasury
// pass, and the command surface a UI or API drives it with.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/config"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/entropy"
	"github.com/talgya/main-street/internal/street"
	"github.com/talgya/main-street/internal/tenants"
)

// Catch-up bounds for a single oversized frame.
const (
	maxCatchUpHours = 48
	maxCatchUpDays  = 30
)

// GameState is everything a saved game holds.
type GameState struct {
	Clock    Clock
	Treasury economy.Treasury
	Registry *street.Registry
	Layout   street.Layout

	AutoCollect  bool
	AutoFill     bool
	Creative     bool
	ActiveStreet int

	Mailbox []tenants.Application
	Timers  []PendingFill
	Traffic TrafficState

	PendingPopulation int
	LastHourIndex     int // Last whole hour processed by traffic
	LastDay           int // Last day processed by the daily pass
}

// Options injects the collaborators of a Simulation.
type Options struct {
	Seed    int64
	Source  entropy.Source // nil uses a source seeded with Seed
	Layout  *street.Layout // nil zones streets from the balance and Seed
	Sink    CitizenSink    // nil queues spawn requests for DrainSpawns
	OnEvent func(Event)    // Called with s.mu held; must not block
	NewID   func() string  // nil uses random UUIDs
}

// Simulation owns the GameState. Commands and ticks are serialized by mu,
// so no caller ever sees a half-applied change.
type Simulation struct {
	mu sync.Mutex

	cfg      *config.Balance
	catalog  *buildings.Catalog
	policies economy.Policies
	cluster  street.ClusterRule
	seed     int64
	layout   *street.Layout

	rng     entropy.Source
	tenants *tenants.Generator
	newID   func() string
	sink    CitizenSink
	queue   *SpawnQueue
	onEvent func(Event)

	g      *GameState
	events []Event
}

// TickResult summarizes what one frame did.
type TickResult struct {
	Minutes  float64 `json:"minutes"` // Simulated minutes advanced
	Day      int     `json:"day"`
	NewDay   bool    `json:"new_day"`
	Hours    int     `json:"hours"`    // Hour boundaries crossed
	Failures int     `json:"failures"` // Buildings that failed processing
}

// New creates a simulation with a fresh game.
func New(cfg *config.Balance, opts Options) *Simulation {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Simulation{
		cfg:      cfg,
		catalog:  cfg.Catalog(),
		policies: cfg.Policies(),
		cluster:  cfg.ClusterRule(),
		seed:     opts.Seed,
		layout:   opts.Layout,
		rng:      opts.Source,
		newID:    opts.NewID,
		sink:     opts.Sink,
		onEvent:  opts.OnEvent,
	}
	if s.rng == nil {
		s.rng = entropy.NewSeeded(opts.Seed)
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.sink == nil {
		s.queue = &SpawnQueue{}
		s.sink = s.queue
	}
	s.tenants = tenants.NewGenerator(s.rng)
	s.g = s.freshState()
	return s
}

func (s *Simulation) freshState() *GameState {
	layout := s.cfg.Layout(s.seed)
	if s.layout != nil {
		layout = *s.layout
	}
	clock := NewClock(s.cfg.StartHour)
	return &GameState{
		Clock: clock,
		Treasury: economy.Treasury{
			Cash:                s.cfg.StartingCash,
			Wood:                s.cfg.StartingWood,
			Bricks:              s.cfg.StartingBricks,
			LoanInterestRate:    s.cfg.LoanInterestRate,
			SavingsInterestRate: s.cfg.SavingsInterestRate,
			PropertyTaxRate:     s.cfg.PropertyTaxRate,
			MaxLoan:             s.cfg.MaxLoan,
			LastInterestDay:     clock.Day(),
			LastTaxDay:          clock.Day(),
		},
		Registry:      street.NewRegistry(s.cfg.LotsPerStreet),
		Layout:        layout,
		AutoCollect:   s.cfg.AutoCollect,
		AutoFill:      s.cfg.AutoFill,
		ActiveStreet:  street.MinStreet,
		Traffic:       newTrafficState(),
		LastHourIndex: clock.HourIndex(),
		LastDay:       clock.Day(),
	}
}

// Reset discards the current game and starts a new one.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = s.freshState()
	s.events = nil
	if s.queue != nil {
		s.queue.Drain()
	}
	slog.Info("game reset", "time", s.g.Clock.SimTime())
}

// Catalog returns the building definitions in effect.
func (s *Simulation) Catalog() *buildings.Catalog { return s.catalog }

// Tick advances the game by one frame of wallSeconds.
func (s *Simulation) Tick(wallSeconds float64) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	advanced := g.Clock.Advance(wallSeconds)
	res := TickResult{Minutes: advanced, Day: g.Clock.Day()}
	if advanced <= 0 {
		return res
	}

	s.fireTimers()

	now := g.Clock.Minutes
	for _, b := range g.Registry.All() {
		if err := s.processBuildingSafe(b, now); err != nil {
			res.Failures++
			slog.Error("building processing failed", "building", b.ID, "kind", b.Kind.String(), "error", err)
		}
	}

	res.Hours = s.processHours()
	res.NewDay = s.processDays()
	return res
}

// processBuildingSafe isolates one building: an error or panic is
// returned to the caller instead of aborting the frame.
func (s *Simulation) processBuildingSafe(b *buildings.Building, now float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.processBuilding(b, now)
}

// processBuilding runs accrual, auto-collection and the kind's lifecycle.
func (s *Simulation) processBuilding(b *buildings.Building, now float64) error {
	def, err := s.definition(b)
	if err != nil {
		return err
	}

	if err := s.accrue(b, def, now); err != nil {
		return err
	}
	if s.g.AutoCollect {
		s.autoCollect(b, now)
	}

	switch {
	case def.HasUnits():
		return s.checkTenantRisk(b, now)
	case def.HasRooms():
		s.processHotel(b, def, now)
	case def.HasShop():
		s.processShop(b)
	case def.HasTables():
		s.processRestaurant(b, def, now)
	}
	return nil
}

// processDays runs the daily pass for every day boundary crossed since the
// last frame.
func (s *Simulation) processDays() bool {
	g := s.g
	today := g.Clock.Day()
	if today <= g.LastDay {
		return false
	}
	from := g.LastDay + 1
	if today-from >= maxCatchUpDays {
		slog.Warn("skipping daily passes", "from", from, "to", today-maxCatchUpDays)
		from = today - maxCatchUpDays + 1
	}
	for d := from; d <= today; d++ {
		s.processDay(d)
	}
	g.LastDay = today
	return true
}

// processHours runs traffic for every hour boundary crossed since the last
// frame, in order.
func (s *Simulation) processHours() int {
	g := s.g
	current := g.Clock.HourIndex()
	if current <= g.LastHourIndex {
		return 0
	}
	from := g.LastHourIndex + 1
	if current-from >= maxCatchUpHours {
		from = current - maxCatchUpHours + 1
	}
	n := 0
	for h := from; h <= current; h++ {
		s.processHour(h/24+1, h%24)
		n++
	}
	g.LastHourIndex = current
	return n
}

// definition is a catalog lookup that tolerates a corrupted kind.
func (s *Simulation) definition(b *buildings.Building) (buildings.Definition, error) {
	def, ok := s.catalog.Get(b.Kind)
	if !ok {
		return def, fmt.Errorf("building %s kind %d: %w", b.ID, b.Kind, ErrInvalidBuildingKind)
	}
	return def, nil
}

// building looks up id. Caller holds s.mu.
func (s *Simulation) building(id string) (*buildings.Building, buildings.Definition, error) {
	b, ok := s.g.Registry.Get(id)
	if !ok {
		return nil, buildings.Definition{}, fmt.Errorf("building %s: %w", id, ErrBuildingNotFound)
	}
	def, err := s.definition(b)
	return b, def, err
}

// Package street holds the building registry: lot occupancy along the
// streets, district zoning, clustering bonuses and nearest-building lookup.
package street

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/main-street/internal/buildings"
)

// LotSize is the width of one placement slot along a street axis.
const LotSize = 250.0

// Street indexes are 1-based.
const (
	MinStreet = 1
	MaxStreet = 4
)

// DefaultLotsPerStreet is the street length used when none is configured.
const DefaultLotsPerStreet = 40

var (
	ErrLotOccupied        = errors.New("lot occupied")
	ErrInvalidStreetIndex = errors.New("invalid street index")
	ErrLotOutOfRange      = errors.New("lot out of range")
	ErrDuplicateID        = errors.New("duplicate building id")
)

// LotIndex returns the lot a position falls into.
func LotIndex(position float64) int {
	return int(math.Round(position / LotSize))
}

type lotKey struct {
	street int
	lot    int
}

// Registry is the authoritative set of placed buildings. Iteration order is
// placement order and is stable across ticks.
type Registry struct {
	lotsPerStreet int

	order []*buildings.Building
	byID  map[string]*buildings.Building
	lots  map[lotKey]string
}

// NewRegistry creates an empty registry. lotsPerStreet <= 0 uses the default.
func NewRegistry(lotsPerStreet int) *Registry {
	if lotsPerStreet <= 0 {
		lotsPerStreet = DefaultLotsPerStreet
	}
	return &Registry{
		lotsPerStreet: lotsPerStreet,
		byID:          make(map[string]*buildings.Building),
		lots:          make(map[lotKey]string),
	}
}

// LotsPerStreet returns the number of lots on each street.
func (r *Registry) LotsPerStreet() int { return r.lotsPerStreet }

// ValidStreet reports whether n is a street index.
func ValidStreet(n int) bool { return n >= MinStreet && n <= MaxStreet }

// CheckLot validates a placement without mutating anything and returns the
// lot index the position resolves to.
func (r *Registry) CheckLot(street int, position float64) (int, error) {
	if !ValidStreet(street) {
		return 0, fmt.Errorf("street %d: %w", street, ErrInvalidStreetIndex)
	}
	lot := LotIndex(position)
	if lot < 0 || lot >= r.lotsPerStreet {
		return lot, fmt.Errorf("lot %d on street %d: %w", lot, street, ErrLotOutOfRange)
	}
	if id, taken := r.lots[lotKey{street, lot}]; taken {
		return lot, fmt.Errorf("lot %d on street %d held by %s: %w", lot, street, id, ErrLotOccupied)
	}
	return lot, nil
}

// Add inserts a building whose Street and Lot are already set.
func (r *Registry) Add(b *buildings.Building) error {
	if _, dup := r.byID[b.ID]; dup {
		return fmt.Errorf("building %s: %w", b.ID, ErrDuplicateID)
	}
	if _, err := r.CheckLot(b.Street, b.Position); err != nil {
		return err
	}
	r.order = append(r.order, b)
	r.byID[b.ID] = b
	r.lots[lotKey{b.Street, b.Lot}] = b.ID
	return nil
}

// Remove deletes a building and frees its lot.
func (r *Registry) Remove(id string) (*buildings.Building, bool) {
	b, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	delete(r.lots, lotKey{b.Street, b.Lot})
	for i, o := range r.order {
		if o.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return b, true
}

// Get looks up a building by id.
func (r *Registry) Get(id string) (*buildings.Building, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// LotAt returns the building occupying a lot.
func (r *Registry) LotAt(street, lot int) (*buildings.Building, bool) {
	id, ok := r.lots[lotKey{street, lot}]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// Len returns the number of placed buildings.
func (r *Registry) Len() int { return len(r.order) }

// All returns every building in registry order. The slice is a copy; the
// buildings are not.
func (r *Registry) All() []*buildings.Building {
	out := make([]*buildings.Building, len(r.order))
	copy(out, r.order)
	return out
}

// OnStreet returns the buildings on one street in registry order.
func (r *Registry) OnStreet(street int) []*buildings.Building {
	var out []*buildings.Building
	for _, b := range r.order {
		if b.Street == street {
			out = append(out, b)
		}
	}
	return out
}

// FindNearest returns the closest building on street (any street when
// street is 0) within maxDistance of position that satisfies match. Ties go
// to the building placed first.
func (r *Registry) FindNearest(street int, position, maxDistance float64, match func(*buildings.Building) bool) (*buildings.Building, bool) {
	var best *buildings.Building
	bestDist := math.Inf(1)
	for _, b := range r.order {
		if street != 0 && b.Street != street {
			continue
		}
		if match != nil && !match(b) {
			continue
		}
		d := math.Abs(b.Position - position)
		if d > maxDistance {
			continue
		}
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, best != nil
}

// Reset empties the registry.
func (r *Registry) Reset() {
	r.order = nil
	r.byID = make(map[string]*buildings.Building)
	r.lots = make(map[lotKey]string)
}

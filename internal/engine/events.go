package engine

import (
	"fmt"
	"log/slog"
)

// Event categories.
const (
	CategoryIncome     = "income"
	CategoryWages      = "wages"
	CategoryStock      = "stock"
	CategoryTenant     = "tenant"
	CategoryTax        = "tax"
	CategoryBank       = "bank"
	CategoryHotel      = "hotel"
	CategoryRestaurant = "restaurant"
	CategoryTraffic    = "traffic"
	CategoryBuilding   = "building"
	CategoryDebt       = "debt"
	CategoryResource   = "resource"
)

// maxEvents bounds the recent-events ring.
const maxEvents = 1000

// Event is a human-readable notification for the UI ticker.
type Event struct {
	Day         int     `json:"day"`
	Minute      float64 `json:"minute"`
	Time        string  `json:"time"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	BuildingID  string  `json:"building_id,omitempty"`
}

// emitEvent records a notification and forwards it to the OnEvent hook.
// Caller holds s.mu.
func (s *Simulation) emitEvent(category, buildingID, format string, args ...any) {
	c := &s.g.Clock
	ev := Event{
		Day:         c.Day(),
		Minute:      c.Minutes,
		Time:        c.SimTime(),
		Category:    category,
		Description: fmt.Sprintf(format, args...),
		BuildingID:  buildingID,
	}
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	slog.Debug("event", "category", category, "description", ev.Description)
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]Event, n)
	copy(out, s.events[len(s.events)-n:])
	return out
}

// EventsSince returns events recorded at or after minute.
func (s *Simulation) EventsSince(minute float64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Minute >= minute {
			out = append(out, e)
		}
	}
	return out
}

package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/entropy"
)

// Scheduled traffic event names.
const (
	EventSchoolArrival   = "school_arrival"
	EventSchoolLunch     = "school_lunch"
	EventSchoolDeparture = "school_departure"
	EventOfficeArrival   = "office_arrival"
	EventOfficeLunch     = "office_lunch"
	EventOfficeBreak     = "office_break"
	EventOfficeDeparture = "office_departure"
	EventMovieShowtime   = "movie_showtime"
	EventFieldTrip       = "field_trip"
	EventMoveIn          = "move_in"
)

// Hour each fixed event fires at.
var (
	schoolSchedule = map[int]string{8: EventSchoolArrival, 12: EventSchoolLunch, 15: EventSchoolDeparture}
	officeSchedule = map[int]string{9: EventOfficeArrival, 12: EventOfficeLunch, 15: EventOfficeBreak, 17: EventOfficeDeparture}
)

// nearbyRadius bounds the search for a lunch or break destination.
const nearbyRadius = 1500.0

// SpawnRequest asks the citizen subsystem for a crowd. TaggedCount of the
// crowd head for DestinationID; the rest wander.
type SpawnRequest struct {
	Event         string `json:"event"`
	Day           int    `json:"day"`
	Hour          int    `json:"hour"`
	Count         int    `json:"count"`
	OriginID      string `json:"origin_id,omitempty"`
	DestinationID string `json:"destination_id,omitempty"`
	TaggedCount   int    `json:"tagged_count"`
}

// CitizenSink receives spawn requests. Implementations must not block.
type CitizenSink interface {
	Spawn(SpawnRequest)
}

// SpawnQueue buffers requests until the host drains them.
type SpawnQueue struct {
	mu   sync.Mutex
	reqs []SpawnRequest
}

// maxQueuedSpawns bounds an undrained queue.
const maxQueuedSpawns = 500

func (q *SpawnQueue) Spawn(r SpawnRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, r)
	if len(q.reqs) > maxQueuedSpawns {
		q.reqs = q.reqs[len(q.reqs)-maxQueuedSpawns:]
	}
}

// Drain returns and clears the queued requests.
func (q *SpawnQueue) Drain() []SpawnRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.reqs
	q.reqs = nil
	return out
}

// DrainSpawns returns queued spawn requests when no external sink was
// configured.
func (s *Simulation) DrainSpawns() []SpawnRequest {
	if s.queue == nil {
		return nil
	}
	return s.queue.Drain()
}

// TrafficState remembers which events fired on which day.
type TrafficState struct {
	Fired        map[string]int `json:"fired"` // Event key -> day it last fired
	FieldTripDay int            `json:"field_trip_day"`
}

func newTrafficState() TrafficState {
	return TrafficState{Fired: make(map[string]int)}
}

// fireOnce reports whether key may fire on day and marks it fired.
func (t *TrafficState) fireOnce(key string, day int) bool {
	if t.Fired == nil {
		t.Fired = make(map[string]int)
	}
	if last, ok := t.Fired[key]; ok && last >= day {
		return false
	}
	t.Fired[key] = day
	return true
}

// prune forgets keys that can no longer block anything.
func (t *TrafficState) prune(day int) {
	for k, d := range t.Fired {
		if d < day {
			delete(t.Fired, k)
		}
	}
}

// processHour fires the traffic scheduled for one hour boundary.
func (s *Simulation) processHour(day, hour int) {
	tr := &s.g.Traffic
	tr.prune(day)
	tc := s.cfg.Traffic

	for _, b := range s.g.Registry.All() {
		switch b.Kind {
		case buildings.KindSchool:
			if ev, ok := schoolSchedule[hour]; ok {
				s.fireScheduled(ev, day, hour, b, tc.SchoolMin, tc.SchoolMax)
			}
		case buildings.KindOffice:
			if ev, ok := officeSchedule[hour]; ok {
				s.fireScheduled(ev, day, hour, b, tc.OfficeMin, tc.OfficeMax)
			}
		case buildings.KindMovieTheater:
			def, err := s.definition(b)
			if err != nil {
				continue
			}
			for _, showtime := range def.Showtimes {
				if showtime == hour {
					s.fireScheduled(EventMovieShowtime, day, hour, b, tc.MovieMin, tc.MovieMax)
				}
			}
		}
	}

	s.maybeFieldTrip(day, hour)
}

// fireScheduled sends one crowd for a building's event, at most once per day.
func (s *Simulation) fireScheduled(event string, day, hour int, b *buildings.Building, lo, hi int) {
	key := fmt.Sprintf("%s:%s:%d", event, b.ID, hour)
	if !s.g.Traffic.fireOnce(key, day) {
		return
	}
	count := entropy.Between(s.rng, lo, hi)
	req := SpawnRequest{Event: event, Day: day, Hour: hour, Count: count}

	switch event {
	case EventSchoolArrival, EventOfficeArrival, EventMovieShowtime:
		req.DestinationID = b.ID
	case EventSchoolLunch, EventOfficeLunch:
		req.OriginID = b.ID
		req.DestinationID = s.nearestOf(b, buildings.CategoryRestaurant)
	case EventOfficeBreak:
		req.OriginID = b.ID
		req.DestinationID = s.nearestOf(b, buildings.CategoryShop)
	default:
		req.OriginID = b.ID
	}
	if req.DestinationID != "" {
		req.TaggedCount = int(math.Round(float64(count) * s.cfg.Traffic.TaggedFraction))
		if event == EventSchoolArrival || event == EventOfficeArrival || event == EventMovieShowtime {
			req.TaggedCount = count
		}
	}

	s.sink.Spawn(req)
	s.emitEvent(CategoryTraffic, b.ID, "%s: %d citizens at %s", event, count, s.label(b))
}

// nearestOf finds the closest building of category c on from's street.
func (s *Simulation) nearestOf(from *buildings.Building, c buildings.Category) string {
	match := func(b *buildings.Building) bool { return b.Category == c }
	if b, ok := s.g.Registry.FindNearest(from.Street, from.Position, nearbyRadius, match); ok {
		return b.ID
	}
	return ""
}

// maybeFieldTrip rolls the day's single field trip across the eligible
// hours. It needs a museum or library to visit.
func (s *Simulation) maybeFieldTrip(day, hour int) {
	tc := s.cfg.Traffic
	tr := &s.g.Traffic
	if hour < tc.FieldTripStart || hour >= tc.FieldTripEnd || tr.FieldTripDay >= day {
		return
	}
	var venues []*buildings.Building
	for _, b := range s.g.Registry.All() {
		if b.Kind == buildings.KindMuseum || b.Kind == buildings.KindLibrary {
			venues = append(venues, b)
		}
	}
	if len(venues) == 0 {
		return
	}
	if !entropy.Chance(s.rng, tc.FieldTripChance) {
		return
	}
	tr.FieldTripDay = day
	dest := venues[entropy.Intn(s.rng, len(venues))]
	count := entropy.Between(s.rng, tc.FieldTripMin, tc.FieldTripMax)
	req := SpawnRequest{
		Event:         EventFieldTrip,
		Day:           day,
		Hour:          hour,
		Count:         count,
		DestinationID: dest.ID,
		TaggedCount:   count,
	}
	for _, b := range s.g.Registry.All() {
		if b.Kind == buildings.KindSchool {
			req.OriginID = b.ID
			break
		}
	}
	s.sink.Spawn(req)
	s.emitEvent(CategoryTraffic, dest.ID, "Field trip: %d students visiting %s", count, s.label(dest))
}

package engine

import (
	"fmt"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/entropy"
)

// processHotel runs the housekeeper's daily round and, once per day inside
// the check-in window, the nightly pass.
func (s *Simulation) processHotel(b *buildings.Building, def buildings.Definition, now float64) {
	hc := s.cfg.Hotels
	day, hour := DayOf(now), HourOf(now)

	if b.Staff.Housekeeper && hour >= hc.HousekeepingHour && b.LastHousekeepingDay < day {
		b.LastHousekeepingDay = day
		cleaned := 0
		for _, r := range b.Rooms {
			if r.Status == buildings.RoomDirty {
				r.Status = buildings.RoomClean
				cleaned++
			}
		}
		if cleaned > 0 {
			s.emitEvent(CategoryHotel, b.ID, "Housekeeper cleaned %d room(s) at %s", cleaned, s.label(b))
		}
	}

	if hour < hc.NightStartHour || hour >= hc.NightEndHour || b.LastNightCheckDay >= day {
		return
	}
	b.LastNightCheckDay = day
	s.nightlyPass(b, def, now)
}

// nightlyPass bills occupied rooms, rolls checkouts, then offers clean rooms
// past their vacancy cooldown to new guests.
func (s *Simulation) nightlyPass(b *buildings.Building, def buildings.Definition, now float64) {
	hc := s.cfg.Hotels
	nightly := def.NightlyRate * b.ClusterBonus
	earned, checkouts, checkins := 0.0, 0, 0

	for _, r := range b.Rooms {
		if r.Status != buildings.RoomOccupied {
			continue
		}
		r.NightsOccupied++
		before := b.AccumulatedIncome
		s.award(b, def, nightly)
		if got := b.AccumulatedIncome - before; got > 0 {
			earned += got
		}

		if s.shouldCheckOut(r) {
			s.checkOut(b, r, now)
			checkouts++
		}
	}

	for _, r := range b.Rooms {
		if r.Status != buildings.RoomClean || now-r.LastCheckoutAt < hc.VacancyCooldown {
			continue
		}
		if entropy.Chance(s.rng, hc.OccupancyChance) {
			r.Status = buildings.RoomOccupied
			r.GuestRef = ""
			r.NightsOccupied = 0
			checkins++
		}
	}

	if earned > 0 || checkouts > 0 || checkins > 0 {
		s.emitEvent(CategoryHotel, b.ID, "%s: %s from guests, %d checkout(s), %d check-in(s)",
			s.label(b), economy.Format(earned), checkouts, checkins)
	}
}

// shouldCheckOut decides a guest's departure after a night. Citizen guests
// leave on their own but are forced out at the safety-net night.
func (s *Simulation) shouldCheckOut(r *buildings.HotelRoom) bool {
	hc := s.cfg.Hotels
	if r.GuestRef != "" {
		return r.NightsOccupied >= hc.GuestSafetyNight
	}
	i := r.NightsOccupied - 1
	if i >= len(hc.CheckoutChances) {
		i = len(hc.CheckoutChances) - 1
	}
	if i < 0 {
		return false
	}
	return entropy.Chance(s.rng, hc.CheckoutChances[i])
}

// checkOut empties a room. A hired maid cleans it on the spot.
func (s *Simulation) checkOut(b *buildings.Building, r *buildings.HotelRoom, now float64) {
	r.Status = buildings.RoomDirty
	r.GuestRef = ""
	r.NightsOccupied = 0
	r.LastCheckoutAt = now
	if b.Staff.Maid {
		r.Status = buildings.RoomClean
	}
}

// CheckInGuest puts a citizen guest into a clean room past its cooldown and
// returns the room index.
func (s *Simulation) CheckInGuest(buildingID, guestRef string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return -1, err
	}
	if !def.HasRooms() {
		return -1, fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}
	if guestRef == "" {
		guestRef = s.newID()
	}
	now := s.g.Clock.Minutes
	for i, r := range b.Rooms {
		if r.Status == buildings.RoomClean && now-r.LastCheckoutAt >= s.cfg.Hotels.VacancyCooldown {
			r.Status = buildings.RoomOccupied
			r.GuestRef = guestRef
			r.NightsOccupied = 0
			s.emitEvent(CategoryHotel, b.ID, "Guest checked into room %d of %s", i+1, s.label(b))
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: %w", b.ID, ErrNoRoomAvailable)
}

// CheckOutGuest releases the room held by a citizen guest.
func (s *Simulation) CheckOutGuest(buildingID, guestRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return err
	}
	if !def.HasRooms() {
		return fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}
	for i, r := range b.Rooms {
		if r.Status == buildings.RoomOccupied && r.GuestRef == guestRef && guestRef != "" {
			s.checkOut(b, r, s.g.Clock.Minutes)
			s.emitEvent(CategoryHotel, b.ID, "Guest checked out of room %d of %s", i+1, s.label(b))
			return nil
		}
	}
	return fmt.Errorf("guest %s at %s: %w", guestRef, b.ID, ErrGuestNotFound)
}

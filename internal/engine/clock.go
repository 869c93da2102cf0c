package engine

import (
	"fmt"
	"math"
)

// Clock time constants.
const (
	MinutesPerHour = 60
	MinutesPerDay  = 1440

	NightStartHour = 20 // Night is [20:00, 06:00)
	NightEndHour   = 6

	dayMultiplier   = 2 // Sim-minutes per wall-second at speed 1
	nightMultiplier = 4
)

// Clock converts wall time into simulated minutes. Minutes only grows.
type Clock struct {
	Minutes float64 `json:"minutes"` // 0 = Day 1 00:00
	Speed   int     `json:"speed"`   // 1, 2 or 3
	Paused  bool    `json:"paused"`

	// RealSeconds is unpaused wall time, the base for real-time timers.
	RealSeconds float64 `json:"real_seconds"`
	// WallSeconds is every sampled wall second, paused or not.
	WallSeconds float64 `json:"wall_seconds"`
}

// NewClock starts a clock on Day 1 at startHour.
func NewClock(startHour int) Clock {
	return Clock{Minutes: float64(startHour * MinutesPerHour), Speed: 1}
}

// Advance applies a wall-clock delta and returns the simulated minutes
// that passed. The multiplier is taken from the hour at the start of the
// delta. Non-positive deltas are ignored.
func (c *Clock) Advance(wallSeconds float64) float64 {
	if wallSeconds <= 0 || math.IsNaN(wallSeconds) || math.IsInf(wallSeconds, 0) {
		return 0
	}
	c.WallSeconds += wallSeconds
	if c.Paused {
		return 0
	}
	mult := dayMultiplier
	if c.IsNight() {
		mult = nightMultiplier
	}
	speed := c.Speed
	if speed < 1 {
		speed = 1
	}
	d := wallSeconds * float64(speed*mult)
	c.Minutes += d
	c.RealSeconds += wallSeconds
	return d
}

// SetSpeed changes the speed multiplier.
func (c *Clock) SetSpeed(n int) error {
	if n < 1 || n > 3 {
		return fmt.Errorf("speed %d: %w", n, ErrInvalidSpeed)
	}
	c.Speed = n
	return nil
}

// Day is 1-based.
func (c *Clock) Day() int { return DayOf(c.Minutes) }

// Hour is 0..23.
func (c *Clock) Hour() int { return HourOf(c.Minutes) }

// Minute is 0..59.
func (c *Clock) Minute() int { return int(math.Floor(c.Minutes)) % MinutesPerHour }

// IsNight reports whether the current hour is in the night window.
func (c *Clock) IsNight() bool { return IsNightHour(c.Hour()) }

// HourIndex counts whole hours since Day 1 00:00.
func (c *Clock) HourIndex() int { return int(math.Floor(c.Minutes / MinutesPerHour)) }

// SimTime renders the clock, e.g. "Day 3, 07:45".
func (c *Clock) SimTime() string { return SimTime(c.Minutes) }

// DayOf returns the 1-based day containing a simulated minute.
func DayOf(minutes float64) int {
	return int(math.Floor(minutes/MinutesPerDay)) + 1
}

// HourOf returns the hour of day of a simulated minute.
func HourOf(minutes float64) int {
	return int(math.Floor(minutes/MinutesPerHour)) % 24
}

// IsNightHour reports whether hour h is in [20:00, 06:00).
func IsNightHour(h int) bool {
	return h < NightEndHour || h >= NightStartHour
}

// SimTime returns a human-readable simulation time string.
func SimTime(minutes float64) string {
	m := int(math.Floor(minutes))
	return fmt.Sprintf("Day %d, %02d:%02d", m/MinutesPerDay+1, (m/MinutesPerHour)%24, m%MinutesPerHour)
}

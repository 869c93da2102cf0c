package economy

// DistrictBonus is the multiplier for a building inside its preferred district.
const DistrictBonus = 1.2

// TotalBonus folds the three income multipliers together. park is the
// additive sum of nearby recreation boosts.
func TotalBonus(district, park, cluster float64) float64 {
	return district * (1 + park) * cluster
}

// Cap returns the ceiling of a balance under bonus. A non-positive max
// means uncapped.
func Cap(max, bonus float64) float64 {
	if max <= 0 {
		return -1
	}
	return max * bonus
}

// Accrue grows balance by elapsed minutes at rate, scaled by bonus, and
// clamps the result to max*bonus. A balance already above the cap (after
// a bonus was lost) is pulled down to it.
func Accrue(balance, elapsed, rate, max, bonus float64) float64 {
	if elapsed > 0 && rate > 0 {
		balance += elapsed * rate * bonus
	}
	return clamp(balance, Cap(max, bonus))
}

// Award adds a one-off amount, clamped like Accrue.
func Award(balance, amount, max, bonus float64) float64 {
	return clamp(balance+amount, Cap(max, bonus))
}

// Regenerate grows a resource store by elapsed minutes at rate up to max.
func Regenerate(stored, elapsed, rate, max float64) float64 {
	if elapsed > 0 && rate > 0 {
		stored += elapsed * rate
	}
	return clamp(stored, max)
}

func clamp(v, ceiling float64) float64 {
	if ceiling >= 0 && v > ceiling {
		return ceiling
	}
	if v < 0 {
		return 0
	}
	return v
}

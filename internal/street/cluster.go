package street

import "github.com/talgya/main-street/internal/buildings"

// ClusterRule shapes the same-category street bonus.
type ClusterRule struct {
	Step float64 // Added per extra same-category neighbour
	Cap  float64 // Upper bound of the multiplier
}

// DefaultClusterRule is 5% per neighbour, capped at +25%.
var DefaultClusterRule = ClusterRule{Step: 0.05, Cap: 1.25}

// Bonus returns the multiplier for n same-category buildings on a street,
// the building itself included.
func (c ClusterRule) Bonus(n int) float64 {
	if n <= 1 {
		return 1
	}
	v := 1 + c.Step*float64(n-1)
	if c.Cap > 0 && v > c.Cap {
		v = c.Cap
	}
	return v
}

// RecomputeClusters refreshes ClusterBonus for every building on street.
// Each building is counted against its own street only.
func (r *Registry) RecomputeClusters(street int, rule ClusterRule) {
	members := r.OnStreet(street)
	counts := make(map[buildings.Category]int)
	for _, b := range members {
		counts[b.Category]++
	}
	for _, b := range members {
		b.ClusterBonus = rule.Bonus(counts[b.Category])
	}
}

// RecomputeAllClusters refreshes every street.
func (r *Registry) RecomputeAllClusters(rule ClusterRule) {
	for s := MinStreet; s <= MaxStreet; s++ {
		r.RecomputeClusters(s, rule)
	}
}

package economy

import "github.com/talgya/main-street/internal/buildings"

// CollectionPolicy decides when accumulated income is swept into cash.
type CollectionPolicy struct {
	Threshold       float64 `json:"threshold" yaml:"threshold"`
	IntervalMinutes float64 `json:"interval_minutes" yaml:"interval_minutes"`
	MinimumAmount   float64 `json:"minimum_amount" yaml:"minimum_amount"`
}

// ShouldCollect fires at the threshold, or once the interval has passed
// since the last collection with at least the minimum amount held.
func (p CollectionPolicy) ShouldCollect(balance, now, lastCollected float64) bool {
	if balance <= 0 {
		return false
	}
	if balance >= p.Threshold {
		return true
	}
	return balance >= p.MinimumAmount && now-lastCollected >= p.IntervalMinutes
}

// Policies maps categories to their collection policy. Categories without
// an entry are never auto-collected.
type Policies map[buildings.Category]CollectionPolicy

// DefaultPolicies returns the built-in thresholds.
func DefaultPolicies() Policies {
	return Policies{
		buildings.CategoryResidential:   {Threshold: 50, IntervalMinutes: 5, MinimumAmount: 5},
		buildings.CategoryShop:          {Threshold: 100, IntervalMinutes: 5, MinimumAmount: 10},
		buildings.CategoryLodging:       {Threshold: 150, IntervalMinutes: 5, MinimumAmount: 50},
		buildings.CategoryRestaurant:    {Threshold: 100, IntervalMinutes: 5, MinimumAmount: 15},
		buildings.CategoryEntertainment: {Threshold: 50, IntervalMinutes: 5, MinimumAmount: 10},
		buildings.CategoryService:       {Threshold: 50, IntervalMinutes: 5, MinimumAmount: 10},
	}
}

// For returns the policy for c.
func (p Policies) For(c buildings.Category) (CollectionPolicy, bool) {
	pol, ok := p[c]
	return pol, ok
}

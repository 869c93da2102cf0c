package steward

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/main-street/internal/buildings"
)

// Action kinds.
const (
	ActionCollect = "collect"
	ActionAccept  = "accept"
	ActionReject  = "reject"
	ActionRestock = "restock"
	ActionDeposit = "deposit"
	ActionRepay   = "repay"
)

// Action is one command the steward wants to issue.
type Action struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Body   any    `json:"body,omitempty"`
	Target string `json:"target,omitempty"`
	Reason string `json:"reason"`
}

// Rules tune the steward.
type Rules struct {
	CollectThreshold  float64 // Collect a building once it holds this much
	ResourceThreshold float64 // Collect a producer once it stores this much
	MinCredit         int     // Accept applicants at or above this score
	RejectBelow       int     // Reject applicants under this score
	RestockBelow      int     // Restock shops under this stock level
	CashReserve       float64 // Cash kept on hand; the rest is banked or repaid
}

// DefaultRules are the steward's stock settings.
func DefaultRules() Rules {
	return Rules{
		CollectThreshold:  50,
		ResourceThreshold: 10,
		MinCredit:         650,
		RejectBelow:       500,
		RestockBelow:      10,
		CashReserve:       2000,
	}
}

// Decide returns the chores for one cycle in the order they should run:
// collections, tenants, restocking, then banking.
func Decide(obs *Observation, r Rules) []Action {
	var out []Action

	if !obs.Status.AutoCollect {
		for _, b := range obs.Buildings {
			if b.Building == nil || b.Category == buildings.CategoryRecreation {
				continue
			}
			if b.Producer != nil {
				if b.Producer.Stored >= r.ResourceThreshold {
					out = append(out, collect(b.ID, fmt.Sprintf("%.0f %s stored", b.Producer.Stored, b.Producer.Resource)))
				}
				continue
			}
			if b.CollectableIncome >= r.CollectThreshold {
				out = append(out, collect(b.ID, fmt.Sprintf("$%.0f waiting", b.CollectableIncome)))
			}
		}
	}

	out = append(out, tenantActions(obs, r)...)

	restocking := false
	for _, b := range obs.Buildings {
		if b.Building == nil || b.Shop == nil || b.Shop.Stock >= r.RestockBelow {
			continue
		}
		restocking = true
		out = append(out, Action{
			Kind:   ActionRestock,
			Path:   "/api/v1/restock",
			Body:   map[string]string{"id": b.ID},
			Target: b.ID,
			Reason: fmt.Sprintf("stock %d below %d", b.Shop.Stock, r.RestockBelow),
		})
	}

	// Restock spending is unknown until it happens, so banking waits a cycle.
	surplus := math.Floor(obs.Status.Cash - r.CashReserve)
	if !restocking && surplus > 0 {
		if loan := obs.Status.LoanAmount; loan > 0 {
			out = append(out, Action{
				Kind:   ActionRepay,
				Path:   "/api/v1/bank/repay",
				Body:   map[string]float64{"amount": math.Min(surplus, loan)},
				Reason: fmt.Sprintf("cash above reserve with $%.0f owed", loan),
			})
		} else {
			out = append(out, Action{
				Kind:   ActionDeposit,
				Path:   "/api/v1/bank/deposit",
				Body:   map[string]float64{"amount": surplus},
				Reason: fmt.Sprintf("cash $%.0f above reserve", obs.Status.Cash),
			})
		}
	}
	return out
}

func collect(id, reason string) Action {
	return Action{
		Kind:   ActionCollect,
		Path:   "/api/v1/collect",
		Body:   map[string]string{"id": id},
		Target: id,
		Reason: reason,
	}
}

// tenantActions accepts the best applicants for each building's vacancies
// and rejects poor ones.
func tenantActions(obs *Observation, r Rules) []Action {
	vacant := map[string]int{}
	for _, b := range obs.Buildings {
		if b.Building != nil {
			vacant[b.ID] = len(b.VacantUnits())
		}
	}

	apps := append(obs.Applications[:0:0], obs.Applications...)
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].CreditScore > apps[j].CreditScore })

	var out []Action
	for _, a := range apps {
		switch {
		case a.CreditScore >= r.MinCredit && vacant[a.BuildingID] > 0:
			vacant[a.BuildingID]--
			out = append(out, Action{
				Kind:   ActionAccept,
				Path:   "/api/v1/application/" + a.ID + "/accept",
				Target: a.ID,
				Reason: fmt.Sprintf("%s, credit %d", a.Name, a.CreditScore),
			})
		case a.CreditScore < r.RejectBelow:
			out = append(out, Action{
				Kind:   ActionReject,
				Path:   "/api/v1/application/" + a.ID + "/reject",
				Target: a.ID,
				Reason: fmt.Sprintf("%s, credit %d", a.Name, a.CreditScore),
			})
		}
	}
	return out
}

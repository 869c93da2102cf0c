// Package tenants generates rental applications for vacant apartment units.
package tenants

import (
	"math"

	"github.com/google/uuid"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/entropy"
)

// Application is a prospective tenant's offer for one apartment building.
// It is consumed by auto-fill or waits in the mailbox for review.
type Application struct {
	ID               string  `json:"id"`
	BuildingID       string  `json:"building_id"`
	Name             string  `json:"name"`
	Job              string  `json:"job"`
	CreditScore      int     `json:"credit_score"`
	RentOffer        float64 `json:"rent_offer"` // Per sim-minute
	EmploymentMonths int     `json:"employment_months"`
	ReceivedAt       float64 `json:"received_at"`
}

// Tenant converts an accepted application into the unit's occupant.
func (a Application) Tenant() buildings.Tenant {
	return buildings.Tenant{
		Name:             a.Name,
		Job:              a.Job,
		RentRate:         a.RentOffer,
		CreditScore:      a.CreditScore,
		EmploymentMonths: a.EmploymentMonths,
	}
}

// Credit score bounds.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// Generator produces randomized applications.
type Generator struct {
	src entropy.Source
}

// NewGenerator creates a generator drawing from src.
func NewGenerator(src entropy.Source) *Generator {
	return &Generator{src: src}
}

// Generate creates an application for buildingID. baseRent is the kind's
// typical per-minute rent; offers land within ±20% of it.
func (g *Generator) Generate(buildingID string, baseRent, now float64) Application {
	return Application{
		ID:               uuid.NewString(),
		BuildingID:       buildingID,
		Name:             g.name(),
		Job:              jobs[entropy.Intn(g.src, len(jobs))],
		CreditScore:      g.creditScore(),
		RentOffer:        math.Round(baseRent*entropy.Uniform(g.src, 0.8, 1.2)*100) / 100,
		EmploymentMonths: entropy.Between(g.src, 0, 120),
		ReceivedAt:       now,
	}
}

// creditScore averages three draws so most applicants sit mid-range.
func (g *Generator) creditScore() int {
	avg := (g.src.Float64() + g.src.Float64() + g.src.Float64()) / 3
	score := MinCreditScore + int(avg*float64(MaxCreditScore-MinCreditScore))
	if score > MaxCreditScore {
		score = MaxCreditScore
	}
	return score
}

func (g *Generator) name() string {
	first := firstNames[entropy.Intn(g.src, len(firstNames))]
	last := lastNames[entropy.Intn(g.src, len(lastNames))]
	return first + " " + last
}

// SkipChance is the daily probability that a tenant with the given credit
// score defaults and leaves.
func SkipChance(creditScore int) float64 {
	switch {
	case creditScore >= 750:
		return 0.001
	case creditScore >= 650:
		return 0.01
	case creditScore >= 550:
		return 0.05
	default:
		return 0.15
	}
}

var firstNames = []string{
	"Ada", "Bea", "Cal", "Dana", "Eli", "Fay", "Gus", "Hana", "Ivan", "June",
	"Kai", "Lena", "Milo", "Nora", "Omar", "Pia", "Quinn", "Rosa", "Sam", "Tess",
	"Uma", "Vic", "Wes", "Xena", "Yuri", "Zoe",
}

var lastNames = []string{
	"Abbott", "Baker", "Chen", "Diaz", "Evans", "Fischer", "Garcia", "Hughes",
	"Ito", "Jensen", "Kowalski", "Lopez", "Murphy", "Novak", "Okafor", "Patel",
	"Quint", "Rossi", "Silva", "Tanaka", "Umar", "Vance", "Walsh", "Young",
}

var jobs = []string{
	"Teacher", "Nurse", "Barista", "Electrician", "Accountant", "Chef",
	"Mechanic", "Librarian", "Programmer", "Bus Driver", "Clerk", "Artist",
	"Plumber", "Pharmacist", "Courier", "Student",
}

package tenants

import (
	"testing"

	"github.com/talgya/main-street/internal/entropy"
)

func TestGenerateWithinBounds(t *testing.T) {
	g := NewGenerator(entropy.NewSeeded(3))
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		a := g.Generate("apt-1", 1.0, 42)
		if a.CreditScore < MinCreditScore || a.CreditScore > MaxCreditScore {
			t.Fatalf("credit score %d out of range", a.CreditScore)
		}
		if a.RentOffer < 0.8 || a.RentOffer > 1.2 {
			t.Fatalf("rent offer %v outside ±20%%", a.RentOffer)
		}
		if a.EmploymentMonths < 0 || a.EmploymentMonths > 120 {
			t.Fatalf("employment months %d", a.EmploymentMonths)
		}
		if a.Name == "" || a.Job == "" || a.BuildingID != "apt-1" || a.ReceivedAt != 42 {
			t.Fatalf("incomplete application %+v", a)
		}
		if seen[a.ID] {
			t.Fatalf("duplicate id %s", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestApplicationTenant(t *testing.T) {
	a := Application{Name: "Ada Chen", Job: "Nurse", CreditScore: 700, RentOffer: 0.9, EmploymentMonths: 12}
	tn := a.Tenant()
	if tn.Name != a.Name || tn.RentRate != 0.9 || tn.CreditScore != 700 || tn.EmploymentMonths != 12 {
		t.Errorf("tenant = %+v", tn)
	}
}

func TestSkipChance(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{850, 0.001},
		{750, 0.001},
		{749, 0.01},
		{650, 0.01},
		{600, 0.05},
		{550, 0.05},
		{549, 0.15},
		{300, 0.15},
	}
	for _, tt := range tests {
		if got := SkipChance(tt.score); got != tt.want {
			t.Errorf("SkipChance(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

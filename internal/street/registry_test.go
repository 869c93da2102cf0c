package street

import (
	"errors"
	"fmt"
	"testing"

	"github.com/talgya/main-street/internal/buildings"
)

var catalog = buildings.DefaultCatalog()

func place(t *testing.T, r *Registry, id string, kind buildings.Kind, street int, pos float64) *buildings.Building {
	t.Helper()
	lot, err := r.CheckLot(street, pos)
	if err != nil {
		t.Fatalf("CheckLot(%d, %v): %v", street, pos, err)
	}
	b := buildings.New(catalog.MustGet(kind), id, street, pos, lot, 0, 1, 120, 5)
	if err := r.Add(b); err != nil {
		t.Fatalf("Add(%s): %v", id, err)
	}
	return b
}

func TestLotIndex(t *testing.T) {
	tests := []struct {
		pos  float64
		want int
	}{
		{0, 0},
		{124, 0},
		{125, 1},
		{250, 1},
		{374.9, 1},
		{375, 2},
		{1000, 4},
	}
	for _, tt := range tests {
		if got := LotIndex(tt.pos); got != tt.want {
			t.Errorf("LotIndex(%v) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestLotCollisionRejected(t *testing.T) {
	r := NewRegistry(10)
	place(t, r, "a", buildings.KindHouse, 1, 500)

	_, err := r.CheckLot(1, 520)
	if !errors.Is(err, ErrLotOccupied) {
		t.Fatalf("expected ErrLotOccupied, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("registry size changed to %d", r.Len())
	}

	if _, err := r.CheckLot(2, 520); err != nil {
		t.Errorf("same lot on another street should be free: %v", err)
	}
}

func TestCheckLotValidation(t *testing.T) {
	r := NewRegistry(10)
	if _, err := r.CheckLot(0, 0); !errors.Is(err, ErrInvalidStreetIndex) {
		t.Errorf("street 0: got %v", err)
	}
	if _, err := r.CheckLot(5, 0); !errors.Is(err, ErrInvalidStreetIndex) {
		t.Errorf("street 5: got %v", err)
	}
	if _, err := r.CheckLot(1, -300); !errors.Is(err, ErrLotOutOfRange) {
		t.Errorf("negative lot: got %v", err)
	}
	if _, err := r.CheckLot(1, 2500); !errors.Is(err, ErrLotOutOfRange) {
		t.Errorf("lot 10 of 10: got %v", err)
	}
}

func TestRemoveFreesLot(t *testing.T) {
	r := NewRegistry(10)
	place(t, r, "a", buildings.KindHouse, 1, 0)
	place(t, r, "b", buildings.KindHouse, 1, 250)
	place(t, r, "c", buildings.KindHouse, 1, 500)

	if _, ok := r.Remove("b"); !ok {
		t.Fatal("remove failed")
	}
	if _, ok := r.Remove("b"); ok {
		t.Error("second remove should fail")
	}
	if _, err := r.CheckLot(1, 250); err != nil {
		t.Errorf("lot not freed: %v", err)
	}

	all := r.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "c" {
		t.Errorf("registry order broken: %v", ids(all))
	}
}

func TestFindNearestFirstWins(t *testing.T) {
	r := NewRegistry(10)
	place(t, r, "left", buildings.KindHouse, 1, 250)
	place(t, r, "right", buildings.KindHouse, 1, 750)
	place(t, r, "park", buildings.KindPark, 1, 1250)

	b, ok := r.FindNearest(1, 500, 300, nil)
	if !ok || b.ID != "left" {
		t.Errorf("tie should go to first placed, got %v", b)
	}

	houses := func(b *buildings.Building) bool { return b.Kind == buildings.KindHouse }
	b, ok = r.FindNearest(1, 1200, 1000, houses)
	if !ok || b.ID != "right" {
		t.Errorf("expected right, got %v", b)
	}

	if _, ok := r.FindNearest(1, 2000, 100, nil); ok {
		t.Error("expected no match beyond max distance")
	}
	if _, ok := r.FindNearest(2, 250, 100, nil); ok {
		t.Error("expected no match on an empty street")
	}
}

func TestClusterBonusPerStreet(t *testing.T) {
	r := NewRegistry(20)
	for i := 0; i < 3; i++ {
		place(t, r, fmt.Sprintf("h%d", i), buildings.KindHouse, 1, float64(i)*LotSize)
	}
	place(t, r, "shop", buildings.KindBookstore, 1, 1000)
	place(t, r, "other", buildings.KindHouse, 2, 0)

	r.RecomputeClusters(1, DefaultClusterRule)
	r.RecomputeClusters(2, DefaultClusterRule)

	h0, _ := r.Get("h0")
	if h0.ClusterBonus != 1.1 {
		t.Errorf("three houses: bonus %v, want 1.1", h0.ClusterBonus)
	}
	shop, _ := r.Get("shop")
	if shop.ClusterBonus != 1 {
		t.Errorf("lone shop: bonus %v, want 1", shop.ClusterBonus)
	}
	other, _ := r.Get("other")
	if other.ClusterBonus != 1 {
		t.Errorf("house on street 2 counted street 1 neighbours: %v", other.ClusterBonus)
	}

	r.Remove("h1")
	r.Remove("h2")
	r.RecomputeClusters(1, DefaultClusterRule)
	if h0.ClusterBonus != 1 {
		t.Errorf("bonus not reduced after removal: %v", h0.ClusterBonus)
	}
}

func TestClusterCap(t *testing.T) {
	if got := DefaultClusterRule.Bonus(20); got != 1.25 {
		t.Errorf("Bonus(20) = %v, want cap 1.25", got)
	}
	if got := DefaultClusterRule.Bonus(0); got != 1 {
		t.Errorf("Bonus(0) = %v", got)
	}
}

func TestGenerateDistrictsDeterministic(t *testing.T) {
	a := GenerateDistricts(42, 40)
	b := GenerateDistricts(42, 40)
	for s := MinStreet; s <= MaxStreet; s++ {
		for lot := 0; lot < 40; lot++ {
			da, db := a.DistrictAt(s, lot), b.DistrictAt(s, lot)
			if da != db {
				t.Fatalf("street %d lot %d: %v vs %v", s, lot, da, db)
			}
			if da == buildings.DistrictNone {
				t.Fatalf("street %d lot %d not zoned", s, lot)
			}
		}
	}
}

func TestUniformLayout(t *testing.T) {
	l := UniformLayout(buildings.DistrictCommercial, 10)
	if got := l.DistrictAt(3, 9); got != buildings.DistrictCommercial {
		t.Errorf("DistrictAt = %v", got)
	}
	if got := l.DistrictAt(3, 10); got != buildings.DistrictNone {
		t.Errorf("past the end: %v", got)
	}
}

func ids(bs []*buildings.Building) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

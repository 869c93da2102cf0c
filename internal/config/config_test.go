package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
)

func writeBalance(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if b.StartingCash != 1000 || b.StartHour != 8 || !b.AutoFill {
		t.Errorf("unexpected defaults: %+v", b)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeBalance(t, `
starting_cash: 5000
property_tax_rate: 0.02
collection_policies:
  residential:
    threshold: 80
    interval_minutes: 10
    minimum_amount: 20
hotels:
  occupancy_chance: 0.5
buildings:
  house:
    cost: 120
    district: commercial
districts:
  1:
    - {from: 0, to: 39, district: entertainment}
`)
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.StartingCash != 5000 || b.PropertyTaxRate != 0.02 {
		t.Errorf("top-level overlay failed: %+v", b)
	}
	if b.StartingWood != 50 {
		t.Errorf("unset field lost its default: wood %d", b.StartingWood)
	}
	if b.Hotels.OccupancyChance != 0.5 || b.Hotels.VacancyCooldown != 120 {
		t.Errorf("nested overlay wrong: %+v", b.Hotels)
	}

	pol, _ := b.Policies().For(buildings.CategoryResidential)
	if pol.Threshold != 80 || pol.MinimumAmount != 20 {
		t.Errorf("policy override = %+v", pol)
	}
	if pol.IntervalMinutes != 10 {
		t.Errorf("policy interval = %v, want 10", pol.IntervalMinutes)
	}
	shop, _ := b.Policies().For(buildings.CategoryShop)
	if shop.Threshold != 100 {
		t.Errorf("untouched policy changed: %+v", shop)
	}

	house := b.Catalog().MustGet(buildings.KindHouse)
	if house.Cost != 120 || house.District != buildings.DistrictCommercial || house.IncomeRate != 1 {
		t.Errorf("catalog override = %+v", house)
	}

	l := b.Layout(1)
	if got := l.DistrictAt(1, 17); got != buildings.DistrictEntertainment {
		t.Errorf("explicit district = %v", got)
	}
	if got := l.DistrictAt(2, 17); got == buildings.DistrictNone {
		t.Error("street 2 should be generated")
	}
}

func TestPartialPolicyKeepsDefaults(t *testing.T) {
	b, err := Load(writeBalance(t, `
collection_policies:
  residential:
    threshold: 80
  recreation:
    minimum_amount: 1
`))
	if err != nil {
		t.Fatal(err)
	}
	pol, ok := b.Policies().For(buildings.CategoryResidential)
	if !ok {
		t.Fatal("residential policy missing")
	}
	want := economy.CollectionPolicy{Threshold: 80, IntervalMinutes: 5, MinimumAmount: 5}
	if pol != want {
		t.Errorf("policy = %+v, want %+v", pol, want)
	}
	if pol.ShouldCollect(1, 100, 0) {
		t.Error("$1 collected below the default minimum")
	}

	rec, ok := b.Policies().For(buildings.CategoryRecreation)
	if !ok || rec.MinimumAmount != 1 || rec.Threshold != 0 {
		t.Errorf("recreation policy = %+v, %v", rec, ok)
	}
}

func TestLoadRejectsBadBalance(t *testing.T) {
	tests := map[string]string{
		"unknown kind":     "buildings:\n  castle:\n    cost: 1\n",
		"unknown category": "collection_policies:\n  dungeon:\n    threshold: 1\n",
		"negative policy":  "collection_policies:\n  shop:\n    threshold: -1\n",
		"bad start hour":   "start_hour: 30\n",
		"bad street":       "districts:\n  9:\n    - {from: 0, to: 1, district: commercial}\n",
		"bad district":     "districts:\n  1:\n    - {from: 0, to: 1, district: swamp}\n",
	}
	for name, body := range tests {
		_, err := Load(writeBalance(t, body))
		if !errors.Is(err, ErrInvalidBalance) {
			t.Errorf("%s: expected ErrInvalidBalance, got %v", name, err)
		}
	}

	if _, err := Load(writeBalance(t, "starting_cash: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("STREETSIM_PORT", "9090")
	t.Setenv("STREETSIM_SEED", "7")
	t.Setenv("STREETSIM_FRAME_MS", "250")
	t.Setenv("STREETSIM_LOG_LEVEL", "DEBUG")
	t.Setenv("STREETSIM_DB", "")

	s := FromEnv()
	if s.Port != 9090 || s.Seed != 7 || s.FrameInterval != 250*time.Millisecond {
		t.Errorf("settings = %+v", s)
	}
	if s.DBPath != "data/mainstreet.db" {
		t.Errorf("db default = %q", s.DBPath)
	}
	if s.SlogLevel().String() != "DEBUG" {
		t.Errorf("level = %v", s.SlogLevel())
	}

	t.Setenv("STREETSIM_PORT", "not-a-number")
	if FromEnv().Port != 8080 {
		t.Error("bad int should fall back to default")
	}
}

package buildings

import "testing"

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range AllKinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("castle"); ok {
		t.Error("expected unknown kind to fail")
	}
	if k, ok := ParseKind("Movie-Theater"); !ok || k != KindMovieTheater {
		t.Errorf("expected dashes and case to be tolerated, got %v %v", k, ok)
	}
}

func TestDefaultCatalogCoversEveryKind(t *testing.T) {
	c := DefaultCatalog()
	for _, k := range AllKinds() {
		d, ok := c.Get(k)
		if !ok {
			t.Fatalf("missing definition for %v", k)
		}
		if d.Kind != k {
			t.Errorf("definition for %v has kind %v", k, d.Kind)
		}
		if d.Label == "" {
			t.Errorf("definition for %v has no label", k)
		}
		if d.Cost <= 0 {
			t.Errorf("definition for %v has no cost", k)
		}
	}
	if _, ok := c.Get(Kind(200)); ok {
		t.Error("expected out-of-range kind to be rejected")
	}
}

func TestCapabilities(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		kind                                       Kind
		flat, units, rooms, tables, shop, producer bool
	}{
		{KindHouse, true, false, false, false, false, false},
		{KindApartment, false, true, false, false, false, false},
		{KindHotel, false, false, true, false, false, false},
		{KindDiner, false, false, false, true, false, false},
		{KindClothingShop, false, false, false, false, true, false},
		{KindArcade, true, false, false, false, false, false},
		{KindLumberMill, false, false, false, false, false, true},
		{KindPark, false, false, false, false, false, false},
	}
	for _, tt := range tests {
		d := c.MustGet(tt.kind)
		if d.AccruesFlat() != tt.flat || d.HasUnits() != tt.units || d.HasRooms() != tt.rooms ||
			d.HasTables() != tt.tables || d.HasShop() != tt.shop || d.IsProducer() != tt.producer {
			t.Errorf("%v: unexpected capability set %+v", tt.kind, d)
		}
	}

	playground := c.MustGet(KindPlayground)
	if !playground.Boosts(CategoryResidential) || playground.Boosts(CategoryShop) {
		t.Error("playground should only boost residential buildings")
	}
	if !c.MustGet(KindPark).Boosts(CategoryShop) {
		t.Error("park should boost every category")
	}
	if !c.MustGet(KindHotel).CanHire(RoleMaid) || c.MustGet(KindHotel).CanHire(RoleShopClerk) {
		t.Error("hotel hiring rules wrong")
	}
}

func TestOverride(t *testing.T) {
	c := DefaultCatalog()
	cost := 250.0
	wood := 0
	c.Override(KindHouse, Override{Cost: &cost, Wood: &wood})

	d := c.MustGet(KindHouse)
	if d.Cost != 250 || d.Wood != 0 {
		t.Errorf("override not applied: %+v", d)
	}
	if d.IncomeRate != 1 {
		t.Errorf("untouched field changed: income rate %v", d.IncomeRate)
	}
}

func TestNewBuildingInitialState(t *testing.T) {
	c := DefaultCatalog()

	hotel := New(c.MustGet(KindHotel), "h1", 1, 500, 2, 480, 1, 120, 5)
	if len(hotel.Rooms) != 6 {
		t.Fatalf("expected 6 rooms, got %d", len(hotel.Rooms))
	}
	for i, r := range hotel.Rooms {
		if r.Status != RoomClean || r.NightsOccupied != 0 {
			t.Errorf("room %d not clean and empty: %+v", i, r)
		}
		if r.LastCheckoutAt != 360 {
			t.Errorf("room %d checkout not back-dated: %v", i, r.LastCheckoutAt)
		}
	}

	apt := New(c.MustGet(KindApartment), "a1", 1, 0, 0, 480, 1, 120, 5)
	if len(apt.VacantUnits()) != 4 || apt.OccupiedUnits() != 0 {
		t.Errorf("expected 4 vacant units, got %v", apt.VacantUnits())
	}

	shop := New(c.MustGet(KindBookstore), "s1", 2, 0, 0, 480, 1, 120, 5)
	if shop.Shop == nil || shop.Shop.Stock != shop.Shop.MaxStock || shop.Shop.LastLowStockNotified != -1 {
		t.Errorf("shop inventory not initialised: %+v", shop.Shop)
	}

	mill := New(c.MustGet(KindLumberMill), "m1", 3, 0, 0, 480, 1, 120, 5)
	if mill.Producer == nil || mill.Producer.Resource != ResourceWood {
		t.Errorf("producer not initialised: %+v", mill.Producer)
	}
}

func TestUnitLifecycleAndDrain(t *testing.T) {
	c := DefaultCatalog()
	b := New(c.MustGet(KindApartment), "a1", 1, 0, 0, 0, 1, 120, 5)

	b.Units[1].MoveIn(Tenant{Name: "Ada", RentRate: 1, CreditScore: 700}, 10)
	if !b.Units[1].Rented || b.Units[1].Tenant == nil || b.Units[1].Tenant.MovedInAt != 10 {
		t.Fatalf("move-in failed: %+v", b.Units[1])
	}
	b.Units[1].AccumulatedIncome = 12.5
	b.Units[2].AccumulatedIncome = 2

	if got := b.CollectableIncome(); got != 14.5 {
		t.Errorf("collectable = %v, want 14.5", got)
	}
	if got := b.DrainIncome(); got != 14.5 {
		t.Errorf("drained = %v, want 14.5", got)
	}
	if b.UnitIncome() != 0 {
		t.Error("units not drained")
	}

	b.Units[1].Vacate(20)
	if b.Units[1].Rented || b.Units[1].Tenant != nil {
		t.Error("vacate left tenant behind")
	}
}

func TestRoles(t *testing.T) {
	c := DefaultCatalog()
	shop := New(c.MustGet(KindGroceryStore), "s", 1, 0, 0, 0, 1, 120, 5)
	shop.SetRole(RoleShopClerk, true)
	if !shop.HasRole(RoleShopClerk) || shop.StaffCount() != 1 {
		t.Error("clerk not hired")
	}

	diner := New(c.MustGet(KindDiner), "d", 1, 0, 0, 0, 1, 120, 5)
	diner.SetRole(RoleDayWaiter, true)
	diner.SetRole(RoleNightWaiter, true)
	if diner.StaffCount() != 2 {
		t.Errorf("expected 2 waiters, got %d", diner.StaffCount())
	}

	if r, ok := ParseRole("night-waiter"); !ok || r != RoleNightWaiter {
		t.Errorf("ParseRole failed: %v %v", r, ok)
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := DefaultCatalog()
	b := New(c.MustGet(KindApartment), "a", 1, 0, 0, 0, 1, 120, 5)
	b.Units[0].MoveIn(Tenant{Name: "Ada"}, 0)

	cp := b.Clone()
	cp.Units[0].Tenant.Name = "Bea"
	cp.Units[1].Rented = true
	cp.AccumulatedIncome = 99

	if b.Units[0].Tenant.Name != "Ada" || b.Units[1].Rented || b.AccumulatedIncome != 0 {
		t.Error("clone shares state with the original")
	}
}

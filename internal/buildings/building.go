package buildings

// RoomStatus is the housekeeping state of a hotel room.
type RoomStatus string

const (
	RoomClean    RoomStatus = "clean"
	RoomDirty    RoomStatus = "dirty"
	RoomOccupied RoomStatus = "occupied"
)

// TableStatus is the service state of a restaurant table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableDirty     TableStatus = "dirty"
)

// Tenant is the occupant of a rented apartment unit.
type Tenant struct {
	Name             string  `json:"name"`
	Job              string  `json:"job"`
	RentRate         float64 `json:"rent_rate"`    // Per sim-minute
	CreditScore      int     `json:"credit_score"` // 300–850
	EmploymentMonths int     `json:"employment_months"`
	MovedInAt        float64 `json:"moved_in_at"`
}

// ApartmentUnit is one rentable unit. Tenant is non-nil iff Rented.
type ApartmentUnit struct {
	Rented            bool    `json:"rented"`
	Tenant            *Tenant `json:"tenant,omitempty"`
	AccumulatedIncome float64 `json:"accumulated_income"`
	LastIncomeAt      float64 `json:"last_income_at"`
	LastRiskCheckAt   float64 `json:"last_risk_check_at"`
}

// MoveIn rents the unit to t at sim-minute now.
func (u *ApartmentUnit) MoveIn(t Tenant, now float64) {
	t.MovedInAt = now
	u.Rented = true
	u.Tenant = &t
	u.AccumulatedIncome = 0
	u.LastIncomeAt = now
	u.LastRiskCheckAt = now
}

// Vacate clears the tenant and forfeits any unpaid rent.
func (u *ApartmentUnit) Vacate(now float64) {
	u.Rented = false
	u.Tenant = nil
	u.AccumulatedIncome = 0
	u.LastIncomeAt = now
}

// HotelRoom is one guest room. GuestRef is empty for generic guests.
type HotelRoom struct {
	Status         RoomStatus `json:"status"`
	GuestRef       string     `json:"guest_ref,omitempty"`
	NightsOccupied int        `json:"nights_occupied"`
	LastCheckoutAt float64    `json:"last_checkout_at"`
}

// ShopInventory is the stock and staffing of a shop.
type ShopInventory struct {
	Stock                int     `json:"stock"`
	MaxStock             int     `json:"max_stock"`
	HasEmployee          bool    `json:"has_employee"`
	IsOpen               bool    `json:"is_open"`
	DailyWage            float64 `json:"daily_wage"`
	LastWageCheckDay     int     `json:"last_wage_check_day"`
	LastLowStockNotified int     `json:"last_low_stock_notified"` // -1 when above the low-stock line
}

// RestaurantTable is one table in a restaurant.
type RestaurantTable struct {
	Status       TableStatus `json:"status"`
	CustomerRef  string      `json:"customer_ref,omitempty"`
	MealStartAt  float64     `json:"meal_start_at"`
	MealDuration float64     `json:"meal_duration"`
	Bill         float64     `json:"bill"`
}

// ResourceProducer is the storage of a lumber mill or brick factory.
type ResourceProducer struct {
	Resource       Resource `json:"resource"`
	Stored         float64  `json:"stored"`
	MaxStorage     float64  `json:"max_storage"`
	RegenRate      float64  `json:"regen_rate"`
	LastResourceAt float64  `json:"last_resource_at"`
}

// Staff records hired non-shop employees.
type Staff struct {
	Maid        bool `json:"maid,omitempty"`
	Housekeeper bool `json:"housekeeper,omitempty"`
	DayWaiter   bool `json:"day_waiter,omitempty"`
	NightWaiter bool `json:"night_waiter,omitempty"`
}

// Count returns the number of hired staff members.
func (s Staff) Count() int {
	n := 0
	for _, hired := range []bool{s.Maid, s.Housekeeper, s.DayWaiter, s.NightWaiter} {
		if hired {
			n++
		}
	}
	return n
}

// Building is a placed structure and everything it owns.
type Building struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Category Category `json:"category"`
	Street   int      `json:"street"`   // 1..4
	Position float64  `json:"position"` // Along the street axis
	Lot      int      `json:"lot"`
	Value    float64  `json:"value"` // Definition cost at placement, the property-tax base
	Facade   int      `json:"facade"`
	PlacedAt float64  `json:"placed_at"`

	AccumulatedIncome float64 `json:"accumulated_income"`
	LastIncomeAt      float64 `json:"last_income_at"`
	LastAutoCollectAt float64 `json:"last_auto_collect_at"`
	DistrictBonus     float64 `json:"district_bonus"`
	ClusterBonus      float64 `json:"cluster_bonus"`

	Units    []*ApartmentUnit   `json:"units,omitempty"`
	Rooms    []*HotelRoom       `json:"rooms,omitempty"`
	Tables   []*RestaurantTable `json:"tables,omitempty"`
	Shop     *ShopInventory     `json:"shop,omitempty"`
	Producer *ResourceProducer  `json:"producer,omitempty"`
	Staff    Staff              `json:"staff"`

	LastNightCheckDay   int     `json:"last_night_check_day"`
	LastHousekeepingDay int     `json:"last_housekeeping_day"`
	LastTableCleanAt    float64 `json:"last_table_clean_at"`
	LastWageDay         int     `json:"last_wage_day"`
}

// New constructs a building of def with its sub-entities in their initial
// state: units vacant, rooms clean, tables available, shelves full.
// roomCooldown back-dates room checkouts so fresh rooms can take guests.
func New(def Definition, id string, street int, position float64, lot int, now float64, day int, roomCooldown, cleanInterval float64) *Building {
	b := &Building{
		ID:                id,
		Kind:              def.Kind,
		Category:          def.Category,
		Street:            street,
		Position:          position,
		Lot:               lot,
		Value:             def.Cost,
		PlacedAt:          now,
		LastIncomeAt:      now,
		LastAutoCollectAt: now,
		DistrictBonus:     1,
		ClusterBonus:      1,
		LastNightCheckDay: day - 1,
		LastWageDay:       day,
		LastTableCleanAt:  now - cleanInterval,
	}

	for i := 0; i < def.Units; i++ {
		b.Units = append(b.Units, &ApartmentUnit{LastIncomeAt: now, LastRiskCheckAt: now})
	}
	for i := 0; i < def.Rooms; i++ {
		b.Rooms = append(b.Rooms, &HotelRoom{Status: RoomClean, LastCheckoutAt: now - roomCooldown})
	}
	for i := 0; i < def.Tables; i++ {
		b.Tables = append(b.Tables, &RestaurantTable{Status: TableAvailable})
	}
	if def.HasShop() {
		b.Shop = &ShopInventory{
			Stock:                def.MaxStock,
			MaxStock:             def.MaxStock,
			DailyWage:            def.DailyWage,
			LastWageCheckDay:     day,
			LastLowStockNotified: -1,
		}
	}
	if def.IsProducer() {
		b.Producer = &ResourceProducer{
			Resource:       def.Resource,
			MaxStorage:     def.MaxStorage,
			RegenRate:      def.RegenRate,
			LastResourceAt: now,
		}
	}
	return b
}

// Release drops every owned sub-entity. Called on demolition.
func (b *Building) Release() {
	b.Units = nil
	b.Rooms = nil
	b.Tables = nil
	b.Shop = nil
	b.Producer = nil
	b.Staff = Staff{}
	b.AccumulatedIncome = 0
}

// VacantUnits returns the indexes of unrented units.
func (b *Building) VacantUnits() []int {
	var out []int
	for i, u := range b.Units {
		if !u.Rented {
			out = append(out, i)
		}
	}
	return out
}

// OccupiedUnits counts rented units.
func (b *Building) OccupiedUnits() int {
	n := 0
	for _, u := range b.Units {
		if u.Rented {
			n++
		}
	}
	return n
}

// UnitIncome sums the accumulated rent across units.
func (b *Building) UnitIncome() float64 {
	total := 0.0
	for _, u := range b.Units {
		total += u.AccumulatedIncome
	}
	return total
}

// CollectableIncome is the balance a collection would drain.
func (b *Building) CollectableIncome() float64 {
	if len(b.Units) > 0 {
		return b.UnitIncome()
	}
	return b.AccumulatedIncome
}

// DrainIncome zeroes every income balance and returns what was held.
func (b *Building) DrainIncome() float64 {
	total := b.AccumulatedIncome
	b.AccumulatedIncome = 0
	for _, u := range b.Units {
		total += u.AccumulatedIncome
		u.AccumulatedIncome = 0
	}
	return total
}

// HasRole reports whether role r is currently hired.
func (b *Building) HasRole(r Role) bool {
	switch r {
	case RoleShopClerk:
		return b.Shop != nil && b.Shop.HasEmployee
	case RoleMaid:
		return b.Staff.Maid
	case RoleHousekeeper:
		return b.Staff.Housekeeper
	case RoleDayWaiter:
		return b.Staff.DayWaiter
	case RoleNightWaiter:
		return b.Staff.NightWaiter
	}
	return false
}

// SetRole hires (or fires) role r.
func (b *Building) SetRole(r Role, hired bool) {
	switch r {
	case RoleShopClerk:
		if b.Shop != nil {
			b.Shop.HasEmployee = hired
		}
	case RoleMaid:
		b.Staff.Maid = hired
	case RoleHousekeeper:
		b.Staff.Housekeeper = hired
	case RoleDayWaiter:
		b.Staff.DayWaiter = hired
	case RoleNightWaiter:
		b.Staff.NightWaiter = hired
	}
}

// StaffCount counts hired employees including a shop clerk.
func (b *Building) StaffCount() int {
	n := b.Staff.Count()
	if b.Shop != nil && b.Shop.HasEmployee {
		n++
	}
	return n
}

// Clone returns a deep copy of b.
func (b *Building) Clone() *Building {
	c := *b
	c.Units = nil
	for _, u := range b.Units {
		cu := *u
		if u.Tenant != nil {
			t := *u.Tenant
			cu.Tenant = &t
		}
		c.Units = append(c.Units, &cu)
	}
	c.Rooms = nil
	for _, r := range b.Rooms {
		cr := *r
		c.Rooms = append(c.Rooms, &cr)
	}
	c.Tables = nil
	for _, t := range b.Tables {
		ct := *t
		c.Tables = append(c.Tables, &ct)
	}
	if b.Shop != nil {
		s := *b.Shop
		c.Shop = &s
	}
	if b.Producer != nil {
		p := *b.Producer
		c.Producer = &p
	}
	return &c
}

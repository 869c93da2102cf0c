package buildings

import "fmt"

// Definition is the static description of a building kind.
type Definition struct {
	Kind     Kind     `json:"kind"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	District District `json:"district"` // Preferred district (+bonus when matched)

	// Construction cost.
	Cost   float64 `json:"cost"`
	Wood   int     `json:"wood"`
	Bricks int     `json:"bricks"`

	// Flat per-minute income (houses, entertainment, services).
	IncomeRate float64 `json:"income_rate"`
	MaxIncome  float64 `json:"max_income"` // Cap before bonuses; per unit for apartments

	Units       int     `json:"units,omitempty"`
	BaseRent    float64 `json:"base_rent,omitempty"` // Typical per-minute rent offer
	Rooms       int     `json:"rooms,omitempty"`
	NightlyRate float64 `json:"nightly_rate,omitempty"`
	Tables      int     `json:"tables,omitempty"`
	MealPrice   float64 `json:"meal_price,omitempty"`
	MaxStock    int     `json:"max_stock,omitempty"`
	ItemPrice   float64 `json:"item_price,omitempty"`
	RestockCost float64 `json:"restock_cost,omitempty"` // Per unit

	DailyWage   float64 `json:"daily_wage,omitempty"` // Per hired staff member
	Maintenance float64 `json:"maintenance,omitempty"`

	Resource   Resource `json:"resource,omitempty"`
	RegenRate  float64  `json:"regen_rate,omitempty"` // Per minute
	MaxStorage float64  `json:"max_storage,omitempty"`

	// Recreation boost applied to nearby buildings.
	BoostRadius     float64    `json:"boost_radius,omitempty"`
	BoostAmount     float64    `json:"boost_amount,omitempty"`
	BoostCategories []Category `json:"boost_categories,omitempty"` // Empty = every category

	Showtimes []int `json:"showtimes,omitempty"` // Hours of day
}

// HasUnits reports whether the kind holds rentable apartment units.
func (d Definition) HasUnits() bool { return d.Units > 0 }

// HasRooms reports whether the kind holds hotel rooms.
func (d Definition) HasRooms() bool { return d.Rooms > 0 }

// HasTables reports whether the kind seats restaurant customers.
func (d Definition) HasTables() bool { return d.Tables > 0 }

// HasShop reports whether the kind sells stock.
func (d Definition) HasShop() bool { return d.MaxStock > 0 }

// IsProducer reports whether the kind regenerates a construction resource.
func (d Definition) IsProducer() bool { return d.Resource != ResourceNone && d.RegenRate > 0 }

// IsRecreation reports whether the kind boosts its neighbours.
func (d Definition) IsRecreation() bool { return d.BoostAmount > 0 && d.BoostRadius > 0 }

// AccruesFlat reports whether the kind earns a continuous flat income.
// Apartments accrue per unit, hotels nightly, shops and restaurants per customer.
func (d Definition) AccruesFlat() bool {
	return d.IncomeRate > 0 && !d.HasUnits() && !d.HasRooms() && !d.HasTables() && !d.HasShop()
}

// Boosts reports whether a recreation definition applies its boost to category c.
func (d Definition) Boosts(c Category) bool {
	if len(d.BoostCategories) == 0 {
		return true
	}
	for _, bc := range d.BoostCategories {
		if bc == c {
			return true
		}
	}
	return false
}

// CanHire reports whether the kind employs role r.
func (d Definition) CanHire(r Role) bool {
	for _, allowed := range RolesFor(d.Category) {
		if allowed == r {
			return true
		}
	}
	return false
}

func defaultDefinitions() []Definition {
	return []Definition{
		// Residential
		{Kind: KindHouse, Label: "House", Category: CategoryResidential, District: DistrictResidential,
			Cost: 100, Wood: 5, IncomeRate: 1, MaxIncome: 100},
		{Kind: KindApartment, Label: "Apartment", Category: CategoryResidential, District: DistrictResidential,
			Cost: 600, Wood: 10, Bricks: 20, MaxIncome: 120, Units: 4, BaseRent: 0.8},
		{Kind: KindTower, Label: "Tower", Category: CategoryResidential, District: DistrictResidential,
			Cost: 1500, Wood: 10, Bricks: 60, MaxIncome: 150, Units: 8, BaseRent: 1.1, Maintenance: 10},

		// Lodging
		{Kind: KindHotel, Label: "Hotel", Category: CategoryLodging, District: DistrictEntertainment,
			Cost: 1200, Wood: 20, Bricks: 40, MaxIncome: 1500, Rooms: 6, NightlyRate: 60, DailyWage: 25, Maintenance: 15},
		{Kind: KindMotel, Label: "Motel", Category: CategoryLodging, District: DistrictCommercial,
			Cost: 700, Wood: 20, Bricks: 15, MaxIncome: 800, Rooms: 4, NightlyRate: 35, DailyWage: 15, Maintenance: 8},

		// Shops
		{Kind: KindClothingShop, Label: "Clothing Shop", Category: CategoryShop, District: DistrictCommercial,
			Cost: 400, Wood: 10, Bricks: 10, MaxIncome: 600, MaxStock: 50, ItemPrice: 12, RestockCost: 5, DailyWage: 20},
		{Kind: KindElectronicsShop, Label: "Electronics Shop", Category: CategoryShop, District: DistrictCommercial,
			Cost: 650, Wood: 5, Bricks: 20, MaxIncome: 900, MaxStock: 30, ItemPrice: 30, RestockCost: 14, DailyWage: 25},
		{Kind: KindGroceryStore, Label: "Grocery Store", Category: CategoryShop, District: DistrictResidential,
			Cost: 350, Wood: 10, Bricks: 10, MaxIncome: 500, MaxStock: 80, ItemPrice: 6, RestockCost: 2, DailyWage: 18},
		{Kind: KindBookstore, Label: "Bookstore", Category: CategoryShop, District: DistrictCommercial,
			Cost: 300, Wood: 15, Bricks: 5, MaxIncome: 450, MaxStock: 40, ItemPrice: 10, RestockCost: 4, DailyWage: 15},

		// Restaurants
		{Kind: KindDiner, Label: "Diner", Category: CategoryRestaurant, District: DistrictCommercial,
			Cost: 450, Wood: 10, Bricks: 15, MaxIncome: 700, Tables: 6, MealPrice: 14, DailyWage: 20},
		{Kind: KindPizzeria, Label: "Pizzeria", Category: CategoryRestaurant, District: DistrictEntertainment,
			Cost: 500, Wood: 15, Bricks: 15, MaxIncome: 800, Tables: 6, MealPrice: 18, DailyWage: 20},
		{Kind: KindNoodleBar, Label: "Noodle Bar", Category: CategoryRestaurant, District: DistrictCommercial,
			Cost: 420, Wood: 10, Bricks: 10, MaxIncome: 650, Tables: 4, MealPrice: 16, DailyWage: 18},

		// Entertainment
		{Kind: KindArcade, Label: "Arcade", Category: CategoryEntertainment, District: DistrictEntertainment,
			Cost: 500, Wood: 5, Bricks: 20, IncomeRate: 2, MaxIncome: 250, Maintenance: 10},
		{Kind: KindMovieTheater, Label: "Movie Theater", Category: CategoryEntertainment, District: DistrictEntertainment,
			Cost: 900, Wood: 10, Bricks: 40, IncomeRate: 3, MaxIncome: 400, Maintenance: 20, Showtimes: []int{14, 17, 20, 22}},
		{Kind: KindBowlingAlley, Label: "Bowling Alley", Category: CategoryEntertainment, District: DistrictEntertainment,
			Cost: 700, Wood: 20, Bricks: 25, IncomeRate: 2.5, MaxIncome: 300, Maintenance: 12},
		{Kind: KindNightclub, Label: "Nightclub", Category: CategoryEntertainment, District: DistrictEntertainment,
			Cost: 800, Wood: 5, Bricks: 30, IncomeRate: 3.5, MaxIncome: 350, Maintenance: 18},

		// Services
		{Kind: KindLibrary, Label: "Library", Category: CategoryService, District: DistrictResidential,
			Cost: 400, Wood: 20, Bricks: 10, IncomeRate: 0.5, MaxIncome: 80, Maintenance: 5},
		{Kind: KindMuseum, Label: "Museum", Category: CategoryService, District: DistrictEntertainment,
			Cost: 900, Wood: 10, Bricks: 40, IncomeRate: 1.5, MaxIncome: 200, Maintenance: 15},
		{Kind: KindSchool, Label: "School", Category: CategoryService, District: DistrictResidential,
			Cost: 800, Wood: 20, Bricks: 30, Maintenance: 20},
		{Kind: KindOffice, Label: "Office", Category: CategoryService, District: DistrictCommercial,
			Cost: 1000, Wood: 10, Bricks: 50, IncomeRate: 2, MaxIncome: 300, Maintenance: 10},
		{Kind: KindBank, Label: "Bank", Category: CategoryService, District: DistrictCommercial,
			Cost: 1200, Wood: 5, Bricks: 50, IncomeRate: 1, MaxIncome: 150, Maintenance: 10},
		{Kind: KindHospital, Label: "Hospital", Category: CategoryService, District: DistrictResidential,
			Cost: 1500, Wood: 10, Bricks: 60, Maintenance: 30},
		{Kind: KindBusStop, Label: "Bus Stop", Category: CategoryService, District: DistrictNone,
			Cost: 80, Wood: 2},

		// Producers
		{Kind: KindLumberMill, Label: "Lumber Mill", Category: CategoryProducer, District: DistrictIndustrial,
			Cost: 300, Bricks: 5, Resource: ResourceWood, RegenRate: 0.2, MaxStorage: 60, Maintenance: 5},
		{Kind: KindBrickFactory, Label: "Brick Factory", Category: CategoryProducer, District: DistrictIndustrial,
			Cost: 400, Wood: 15, Resource: ResourceBricks, RegenRate: 0.15, MaxStorage: 60, Maintenance: 5},

		// Recreation
		{Kind: KindPark, Label: "Park", Category: CategoryRecreation, District: DistrictNone,
			Cost: 150, Wood: 5, BoostRadius: 500, BoostAmount: 0.10},
		{Kind: KindPlayground, Label: "Playground", Category: CategoryRecreation, District: DistrictResidential,
			Cost: 120, Wood: 8, BoostRadius: 400, BoostAmount: 0.15, BoostCategories: []Category{CategoryResidential}},
		{Kind: KindFountain, Label: "Fountain", Category: CategoryRecreation, District: DistrictCommercial,
			Cost: 200, Bricks: 10, BoostRadius: 300, BoostAmount: 0.10,
			BoostCategories: []Category{CategoryShop, CategoryRestaurant}},
		{Kind: KindGarden, Label: "Garden", Category: CategoryRecreation, District: DistrictNone,
			Cost: 100, Wood: 4, BoostRadius: 350, BoostAmount: 0.05},
	}
}

// Catalog holds the definitions in effect for one game.
type Catalog struct {
	defs [kindCount]Definition
}

// DefaultCatalog returns the built-in balance for every kind.
func DefaultCatalog() *Catalog {
	c := &Catalog{}
	for _, d := range defaultDefinitions() {
		c.defs[d.Kind] = d
	}
	return c
}

// Get returns the definition for k.
func (c *Catalog) Get(k Kind) (Definition, bool) {
	if !k.Valid() {
		return Definition{}, false
	}
	return c.defs[k], true
}

// MustGet returns the definition for k and panics on an invalid kind.
func (c *Catalog) MustGet(k Kind) Definition {
	d, ok := c.Get(k)
	if !ok {
		panic(fmt.Sprintf("buildings: invalid kind %d", k))
	}
	return d
}

// All returns every definition in kind order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, c.defs[k])
	}
	return out
}

// Override replaces the tunable numbers of one kind. Zero fields keep
// the current value.
func (c *Catalog) Override(k Kind, o Override) {
	if !k.Valid() {
		return
	}
	d := &c.defs[k]
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&d.Cost, o.Cost)
	setF(&d.IncomeRate, o.IncomeRate)
	setF(&d.MaxIncome, o.MaxIncome)
	setF(&d.BaseRent, o.BaseRent)
	setF(&d.NightlyRate, o.NightlyRate)
	setF(&d.MealPrice, o.MealPrice)
	setF(&d.ItemPrice, o.ItemPrice)
	setF(&d.DailyWage, o.DailyWage)
	setF(&d.Maintenance, o.Maintenance)
	setF(&d.RegenRate, o.RegenRate)
	if o.Wood != nil {
		d.Wood = *o.Wood
	}
	if o.Bricks != nil {
		d.Bricks = *o.Bricks
	}
	if o.District != nil {
		d.District = *o.District
	}
}

// Override carries optional replacements for a definition.
type Override struct {
	Cost        *float64
	Wood        *int
	Bricks      *int
	IncomeRate  *float64
	MaxIncome   *float64
	BaseRent    *float64
	NightlyRate *float64
	MealPrice   *float64
	ItemPrice   *float64
	DailyWage   *float64
	Maintenance *float64
	RegenRate   *float64
	District    *District
}

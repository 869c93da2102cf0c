// Package buildings provides the building kinds, their categories and
// capabilities, and the per-building sub-entities (apartment units, hotel
// rooms, restaurant tables, shop inventory, resource storage).
package buildings

import "strings"

// Kind identifies a placeable structure.
type Kind uint8

const (
	KindHouse Kind = iota
	KindApartment
	KindTower
	KindHotel
	KindMotel
	KindClothingShop
	KindElectronicsShop
	KindGroceryStore
	KindBookstore
	KindDiner
	KindPizzeria
	KindNoodleBar
	KindArcade
	KindMovieTheater
	KindBowlingAlley
	KindNightclub
	KindLibrary
	KindMuseum
	KindSchool
	KindOffice
	KindBank
	KindHospital
	KindBusStop
	KindLumberMill
	KindBrickFactory
	KindPark
	KindPlayground
	KindFountain
	KindGarden

	kindCount
)

var kindNames = [kindCount]string{
	"house", "apartment", "tower", "hotel", "motel",
	"clothing_shop", "electronics_shop", "grocery_store", "bookstore",
	"diner", "pizzeria", "noodle_bar",
	"arcade", "movie_theater", "bowling_alley", "nightclub",
	"library", "museum", "school", "office", "bank", "hospital", "bus_stop",
	"lumber_mill", "brick_factory",
	"park", "playground", "fountain", "garden",
}

// String returns the kind's slug, e.g. "clothing_shop".
func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k names a real kind.
func (k Kind) Valid() bool { return k < kindCount }

// ParseKind resolves a slug (case-insensitive, dashes allowed) to a Kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// AllKinds returns every kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Category groups kinds that share economic rules.
type Category uint8

const (
	CategoryResidential Category = iota
	CategoryLodging
	CategoryShop
	CategoryRestaurant
	CategoryEntertainment
	CategoryService
	CategoryProducer
	CategoryRecreation

	categoryCount
)

var categoryNames = [categoryCount]string{
	"residential", "lodging", "shop", "restaurant",
	"entertainment", "service", "producer", "recreation",
}

func (c Category) String() string {
	if c >= categoryCount {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory resolves a category name.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// District is a zone along a street. Kinds prefer one district.
type District uint8

const (
	DistrictNone District = iota
	DistrictResidential
	DistrictCommercial
	DistrictEntertainment
	DistrictIndustrial
)

var districtNames = [...]string{"none", "residential", "commercial", "entertainment", "industrial"}

func (d District) String() string {
	if int(d) >= len(districtNames) {
		return "unknown"
	}
	return districtNames[d]
}

// ParseDistrict resolves a district name.
func ParseDistrict(name string) (District, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range districtNames {
		if n == name {
			return District(i), true
		}
	}
	return DistrictNone, false
}

// Resource is a non-money stockpile the player spends on construction.
type Resource uint8

const (
	ResourceNone Resource = iota
	ResourceWood
	ResourceBricks
)

func (r Resource) String() string {
	switch r {
	case ResourceWood:
		return "wood"
	case ResourceBricks:
		return "bricks"
	}
	return "none"
}

// Role is a hireable staff position.
type Role uint8

const (
	RoleShopClerk Role = iota + 1
	RoleMaid
	RoleHousekeeper
	RoleDayWaiter
	RoleNightWaiter
)

var roleNames = map[Role]string{
	RoleShopClerk:   "shop_clerk",
	RoleMaid:        "maid",
	RoleHousekeeper: "housekeeper",
	RoleDayWaiter:   "day_waiter",
	RoleNightWaiter: "night_waiter",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

// ParseRole resolves a role name.
func ParseRole(name string) (Role, bool) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// RolesFor lists the roles a category can hire.
func RolesFor(c Category) []Role {
	switch c {
	case CategoryShop:
		return []Role{RoleShopClerk}
	case CategoryLodging:
		return []Role{RoleMaid, RoleHousekeeper}
	case CategoryRestaurant:
		return []Role{RoleDayWaiter, RoleNightWaiter}
	}
	return nil
}

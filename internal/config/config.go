// Package config loads the game balance from YAML and process settings
// from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/street"
)

// Balance is every tunable number of a game. Zero values in a YAML file
// are overlaid on Default, so a file only needs the knobs it changes.
type Balance struct {
	StartingCash   float64 `yaml:"starting_cash"`
	StartingWood   int     `yaml:"starting_wood"`
	StartingBricks int     `yaml:"starting_bricks"`
	StartHour      int     `yaml:"start_hour"`
	LotsPerStreet  int     `yaml:"lots_per_street"`

	SavingsInterestRate float64 `yaml:"savings_interest_rate"`
	LoanInterestRate    float64 `yaml:"loan_interest_rate"`
	MaxLoan             float64 `yaml:"max_loan"`
	PropertyTaxRate     float64 `yaml:"property_tax_rate"`

	AutoCollect        bool                                `yaml:"auto_collect"`
	AutoFill           bool                                `yaml:"auto_fill"`
	CollectionPolicies map[string]PolicyOverride `yaml:"collection_policies"`

	ClusterStep   float64 `yaml:"cluster_step"`
	ClusterCap    float64 `yaml:"cluster_cap"`
	DistrictBonus float64 `yaml:"district_bonus"`

	Apartments  ApartmentBalance  `yaml:"apartments"`
	Hotels      HotelBalance      `yaml:"hotels"`
	Shops       ShopBalance       `yaml:"shops"`
	Restaurants RestaurantBalance `yaml:"restaurants"`
	Traffic     TrafficBalance    `yaml:"traffic"`

	// Districts zones streets explicitly; streets left out are generated
	// from the game seed.
	Districts map[int][]DistrictSpan `yaml:"districts"`

	Buildings map[string]BuildingOverride `yaml:"buildings"`
}

// ApartmentBalance tunes tenant turnover.
type ApartmentBalance struct {
	AutoFillMinSeconds float64 `yaml:"auto_fill_min_seconds"`
	AutoFillMaxSeconds float64 `yaml:"auto_fill_max_seconds"`
	MailboxCapacity    int     `yaml:"mailbox_capacity"`
	MinPopulation      int     `yaml:"min_population"` // Pending citizens added per residential placement
	MaxPopulation      int     `yaml:"max_population"`
}

// HotelBalance tunes the nightly pass.
type HotelBalance struct {
	NightStartHour   int       `yaml:"night_start_hour"`
	NightEndHour     int       `yaml:"night_end_hour"`
	VacancyCooldown  float64   `yaml:"vacancy_cooldown_minutes"`
	OccupancyChance  float64   `yaml:"occupancy_chance"`
	CheckoutChances  []float64 `yaml:"checkout_chances"` // Indexed by nights stayed - 1; last entry repeats
	GuestSafetyNight int       `yaml:"guest_safety_night"`
	HousekeepingHour int       `yaml:"housekeeping_hour"`
}

// ShopBalance tunes opening hours and stock alerts.
type ShopBalance struct {
	OpenHour      int `yaml:"open_hour"`
	CloseHour     int `yaml:"close_hour"`
	LowStockLevel int `yaml:"low_stock_level"`
}

// RestaurantBalance tunes meals and table service.
type RestaurantBalance struct {
	MealMinMinutes       float64 `yaml:"meal_min_minutes"`
	MealMaxMinutes       float64 `yaml:"meal_max_minutes"`
	CleanIntervalMinutes float64 `yaml:"clean_interval_minutes"`
	DayShiftStart        int     `yaml:"day_shift_start"`
	DayShiftEnd          int     `yaml:"day_shift_end"`
}

// TrafficBalance sizes the scheduled crowds.
type TrafficBalance struct {
	SchoolMin       int     `yaml:"school_min"`
	SchoolMax       int     `yaml:"school_max"`
	OfficeMin       int     `yaml:"office_min"`
	OfficeMax       int     `yaml:"office_max"`
	MovieMin        int     `yaml:"movie_min"`
	MovieMax        int     `yaml:"movie_max"`
	FieldTripMin    int     `yaml:"field_trip_min"`
	FieldTripMax    int     `yaml:"field_trip_max"`
	FieldTripChance float64 `yaml:"field_trip_chance"` // Per eligible hour
	FieldTripStart  int     `yaml:"field_trip_start"`
	FieldTripEnd    int     `yaml:"field_trip_end"`
	TaggedFraction  float64 `yaml:"tagged_fraction"` // Share of a crowd sent to the destination
}

// DistrictSpan zones an inclusive lot range.
type DistrictSpan struct {
	From     int    `yaml:"from"`
	To       int    `yaml:"to"`
	District string `yaml:"district"`
}

// BuildingOverride replaces catalog numbers for one kind.
type BuildingOverride struct {
	Cost        *float64 `yaml:"cost"`
	Wood        *int     `yaml:"wood"`
	Bricks      *int     `yaml:"bricks"`
	IncomeRate  *float64 `yaml:"income_rate"`
	MaxIncome   *float64 `yaml:"max_income"`
	BaseRent    *float64 `yaml:"base_rent"`
	NightlyRate *float64 `yaml:"nightly_rate"`
	MealPrice   *float64 `yaml:"meal_price"`
	ItemPrice   *float64 `yaml:"item_price"`
	DailyWage   *float64 `yaml:"daily_wage"`
	Maintenance *float64 `yaml:"maintenance"`
	RegenRate   *float64 `yaml:"regen_rate"`
	District    *string  `yaml:"district"`
}

// PolicyOverride replaces the fields of one category's collection policy
// that are set.
type PolicyOverride struct {
	Threshold       *float64 `yaml:"threshold"`
	IntervalMinutes *float64 `yaml:"interval_minutes"`
	MinimumAmount   *float64 `yaml:"minimum_amount"`
}

// apply overlays o on pol.
func (o PolicyOverride) apply(pol economy.CollectionPolicy) economy.CollectionPolicy {
	if o.Threshold != nil {
		pol.Threshold = *o.Threshold
	}
	if o.IntervalMinutes != nil {
		pol.IntervalMinutes = *o.IntervalMinutes
	}
	if o.MinimumAmount != nil {
		pol.MinimumAmount = *o.MinimumAmount
	}
	return pol
}

// Default returns the built-in balance.
func Default() *Balance {
	return &Balance{
		StartingCash:   1000,
		StartingWood:   50,
		StartingBricks: 20,
		StartHour:      8,
		LotsPerStreet:  street.DefaultLotsPerStreet,

		SavingsInterestRate: 0.05,
		LoanInterestRate:    0.10,
		MaxLoan:             10000,
		PropertyTaxRate:     0.01,

		AutoFill: true,

		ClusterStep:   street.DefaultClusterRule.Step,
		ClusterCap:    street.DefaultClusterRule.Cap,
		DistrictBonus: economy.DistrictBonus,

		Apartments: ApartmentBalance{
			AutoFillMinSeconds: 3,
			AutoFillMaxSeconds: 8,
			MailboxCapacity:    20,
			MinPopulation:      2,
			MaxPopulation:      6,
		},
		Hotels: HotelBalance{
			NightStartHour:   18,
			NightEndHour:     22,
			VacancyCooldown:  120,
			OccupancyChance:  0.3,
			CheckoutChances:  []float64{0.6, 0.8, 1.0},
			GuestSafetyNight: 5,
			HousekeepingHour: 8,
		},
		Shops: ShopBalance{
			OpenHour:      7,
			CloseHour:     21,
			LowStockLevel: 10,
		},
		Restaurants: RestaurantBalance{
			MealMinMinutes:       20,
			MealMaxMinutes:       45,
			CleanIntervalMinutes: 5,
			DayShiftStart:        6,
			DayShiftEnd:          20,
		},
		Traffic: TrafficBalance{
			SchoolMin:       6,
			SchoolMax:       12,
			OfficeMin:       4,
			OfficeMax:       10,
			MovieMin:        3,
			MovieMax:        8,
			FieldTripMin:    8,
			FieldTripMax:    15,
			FieldTripChance: 0.2,
			FieldTripStart:  9,
			FieldTripEnd:    14,
			TaggedFraction:  0.5,
		},
	}
}

// Load overlays the YAML file at path on Default. An empty path returns
// the defaults.
func Load(path string) (*Balance, error) {
	b := Default()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("parse balance %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("balance %s: %w", path, err)
	}
	return b, nil
}

// ErrInvalidBalance reports a balance that cannot run a game.
var ErrInvalidBalance = errors.New("invalid balance")

// Validate checks the cross-field constraints a YAML overlay can break.
func (b *Balance) Validate() error {
	switch {
	case b.StartHour < 0 || b.StartHour > 23:
		return fmt.Errorf("start_hour %d: %w", b.StartHour, ErrInvalidBalance)
	case b.LotsPerStreet <= 0:
		return fmt.Errorf("lots_per_street %d: %w", b.LotsPerStreet, ErrInvalidBalance)
	case b.Apartments.AutoFillMaxSeconds < b.Apartments.AutoFillMinSeconds:
		return fmt.Errorf("auto-fill delay range: %w", ErrInvalidBalance)
	case b.Restaurants.MealMaxMinutes < b.Restaurants.MealMinMinutes:
		return fmt.Errorf("meal duration range: %w", ErrInvalidBalance)
	case len(b.Hotels.CheckoutChances) == 0:
		return fmt.Errorf("checkout_chances empty: %w", ErrInvalidBalance)
	}
	for name, o := range b.CollectionPolicies {
		if _, ok := buildings.ParseCategory(name); !ok {
			return fmt.Errorf("collection policy for unknown category %q: %w", name, ErrInvalidBalance)
		}
		for _, v := range []*float64{o.Threshold, o.IntervalMinutes, o.MinimumAmount} {
			if v != nil && *v < 0 {
				return fmt.Errorf("collection policy %s: negative value: %w", name, ErrInvalidBalance)
			}
		}
	}
	for name, o := range b.Buildings {
		if _, ok := buildings.ParseKind(name); !ok {
			return fmt.Errorf("override for unknown kind %q: %w", name, ErrInvalidBalance)
		}
		if o.District != nil {
			if _, ok := buildings.ParseDistrict(*o.District); !ok {
				return fmt.Errorf("kind %s: unknown district %q: %w", name, *o.District, ErrInvalidBalance)
			}
		}
	}
	for s, spans := range b.Districts {
		if !street.ValidStreet(s) {
			return fmt.Errorf("districts for street %d: %w", s, ErrInvalidBalance)
		}
		for _, sp := range spans {
			if _, ok := buildings.ParseDistrict(sp.District); !ok {
				return fmt.Errorf("street %d: unknown district %q: %w", s, sp.District, ErrInvalidBalance)
			}
		}
	}
	return nil
}

// Catalog returns the default catalog with this balance's overrides applied.
func (b *Balance) Catalog() *buildings.Catalog {
	c := buildings.DefaultCatalog()
	for name, o := range b.Buildings {
		k, ok := buildings.ParseKind(name)
		if !ok {
			continue
		}
		ov := buildings.Override{
			Cost: o.Cost, Wood: o.Wood, Bricks: o.Bricks,
			IncomeRate: o.IncomeRate, MaxIncome: o.MaxIncome, BaseRent: o.BaseRent,
			NightlyRate: o.NightlyRate, MealPrice: o.MealPrice, ItemPrice: o.ItemPrice,
			DailyWage: o.DailyWage, Maintenance: o.Maintenance, RegenRate: o.RegenRate,
		}
		if o.District != nil {
			if d, ok := buildings.ParseDistrict(*o.District); ok {
				ov.District = &d
			}
		}
		c.Override(k, ov)
	}
	return c
}

// Policies returns the default auto-collection policies with overrides.
// A category without a default policy starts from the zero policy.
func (b *Balance) Policies() economy.Policies {
	p := economy.DefaultPolicies()
	for name, o := range b.CollectionPolicies {
		if c, ok := buildings.ParseCategory(name); ok {
			p[c] = o.apply(p[c])
		}
	}
	return p
}

// ClusterRule returns the street clustering rule.
func (b *Balance) ClusterRule() street.ClusterRule {
	return street.ClusterRule{Step: b.ClusterStep, Cap: b.ClusterCap}
}

// Layout zones every street: explicit spans where configured, seeded
// noise elsewhere.
func (b *Balance) Layout(seed int64) street.Layout {
	l := street.GenerateDistricts(seed, b.LotsPerStreet)
	for s, spans := range b.Districts {
		var out []street.Span
		for _, sp := range spans {
			d, _ := buildings.ParseDistrict(sp.District)
			out = append(out, street.Span{FromLot: sp.From, ToLot: sp.To, District: d})
		}
		l.Streets[s] = out
	}
	return l
}

// Settings are the process-level knobs read from the environment.
type Settings struct {
	DBPath        string
	Port          int
	AdminKey      string
	BalancePath   string
	Seed          int64
	S3Bucket      string
	S3Key         string
	RandomOrgKey  string
	FrameInterval time.Duration
	LogLevel      string
}

// FromEnv reads Settings, falling back to defaults for unset variables.
func FromEnv() Settings {
	return Settings{
		DBPath:        envOrDefault("STREETSIM_DB", "data/mainstreet.db"),
		Port:          envIntOrDefault("STREETSIM_PORT", 8080),
		AdminKey:      os.Getenv("STREETSIM_ADMIN_KEY"),
		BalancePath:   os.Getenv("STREETSIM_BALANCE"),
		Seed:          int64(envIntOrDefault("STREETSIM_SEED", 42)),
		S3Bucket:      os.Getenv("STREETSIM_S3_BUCKET"),
		S3Key:         envOrDefault("STREETSIM_S3_KEY", "mainstreet/snapshot.json"),
		RandomOrgKey:  os.Getenv("RANDOM_ORG_KEY"),
		FrameInterval: time.Duration(envIntOrDefault("STREETSIM_FRAME_MS", 100)) * time.Millisecond,
		LogLevel:      strings.ToLower(envOrDefault("STREETSIM_LOG_LEVEL", "info")),
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (s Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

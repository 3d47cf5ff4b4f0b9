// Package model contains domain models passed between layers.
package model

// RawRecord is the as-received, untyped field mapping produced by the
// classification oracle. No schema is enforced: any field may be missing,
// wrongly typed, or use inconsistent unit conventions.
type RawRecord map[string]any

// Drivetrain is the canonical drivetrain layout.
type Drivetrain string

// Drivetrain values.
const (
	DrivetrainFWD Drivetrain = "FWD"
	DrivetrainRWD Drivetrain = "RWD"
	DrivetrainAWD Drivetrain = "AWD"
	Drivetrain4WD Drivetrain = "4WD"
)

// Category is the canonical vehicle body/purpose category.
type Category string

// Category values.
const (
	CategoryHypercar  Category = "hypercar"
	CategorySupercar  Category = "supercar"
	CategoryTrackOnly Category = "track-only"
	CategoryMuscle    Category = "muscle car"
	CategoryHatchback Category = "hatchback"
	CategorySUV       Category = "suv"
	CategoryWagon     Category = "wagon"
	CategoryCoupe     Category = "coupe"
	CategorySedan     Category = "sedan"
	CategoryOther     Category = "other"
)

// Prestige is the canonical make-prestige class.
type Prestige string

// Prestige values, ordered low to ultra.
const (
	PrestigeLow    Prestige = "low"
	PrestigeMedium Prestige = "medium"
	PrestigeHigh   Prestige = "high"
	PrestigeUltra  Prestige = "ultra"
)

// Region is the canonical manufacturing region.
type Region string

// Region values.
const (
	RegionEurope Region = "Europe"
	RegionJapan  Region = "Japan"
	RegionUSA    Region = "USA"
	RegionOther  Region = "Other"
)

// Aspiration is the canonical engine aspiration/propulsion type.
type Aspiration string

// Aspiration values.
const (
	AspirationElectric     Aspiration = "electric"
	AspirationHybrid       Aspiration = "hybrid"
	AspirationTwinTurbo    Aspiration = "twin-turbo"
	AspirationTurbo        Aspiration = "turbo"
	AspirationSupercharged Aspiration = "supercharged"
	AspirationNA           Aspiration = "na"
)

// Tier is one of six ordered rarity categories derived from a numeric score.
type Tier string

// Tier values, ordered common to mythic.
const (
	TierCommon    Tier = "Common"
	TierUncommon  Tier = "Uncommon"
	TierRare      Tier = "Rare"
	TierEpic      Tier = "Epic"
	TierLegendary Tier = "Legendary"
	TierMythic    Tier = "Mythic"
)

// NormalizedRecord is the fully typed, canonicalized output of the
// normalization pipeline. Optional numerics are pointers: nil means the
// oracle gave nothing usable for that field. A record is immutable after
// construction.
type NormalizedRecord struct {
	// Identity
	Make       string `json:"make"`
	Model      string `json:"model"`
	Generation string `json:"generation,omitempty"`

	// Temporal; when both years are present, YearStart <= YearEnd holds.
	YearStart *int   `json:"year_start,omitempty"`
	YearEnd   *int   `json:"year_end,omitempty"`
	YearRange string `json:"year_range,omitempty"`

	// Technical; finite, never unit-suffixed strings.
	Horsepower        *float64 `json:"horsepower,omitempty"`
	TorqueNM          *float64 `json:"torque_nm,omitempty"`
	WeightKG          *float64 `json:"weight_kg,omitempty"`
	ZeroToHundred     *float64 `json:"zero_to_hundred,omitempty"`
	TopSpeedKMH       *float64 `json:"top_speed_kmh,omitempty"`
	ProductionNumbers *float64 `json:"production_numbers,omitempty"`

	// Categorical
	Drivetrain       Drivetrain `json:"drivetrain,omitempty"`
	VehicleCategory  Category   `json:"vehicle_category,omitempty"`
	PrestigeClass    Prestige   `json:"prestige_class,omitempty"`
	Region           Region     `json:"region,omitempty"`
	EngineAspiration Aspiration `json:"engine_aspiration,omitempty"`

	// Confidence/trust, clamped to [0,1].
	Confidence          *float64 `json:"confidence,omitempty"`
	RealWorldConfidence *float64 `json:"real_world_confidence,omitempty"`
	FrameSuspicion      *float64 `json:"frame_suspicion,omitempty"`

	// Derived ranking
	RarityScore int  `json:"rarity_score"`
	RarityTier  Tier `json:"rarity_tier"`

	// CarSlug is a URL-safe lowercase token derived from the identity
	// fields, or empty if none are present.
	CarSlug string `json:"car_slug,omitempty"`
}

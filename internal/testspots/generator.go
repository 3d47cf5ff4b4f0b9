package testspots

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/rarespot/rarespot/pkg/logger"
)

// catalogCar is a known car used to synthesize oracle payloads. Values are
// deliberately messy: comma decimals, unit suffixes and loose categorical
// hints, like a real vision model would produce.
type catalogCar struct {
	slug       string
	make       string
	model      string
	generation string
	yearRange  string
	horsepower string
	accel      string
	production string
	drivetrain string
	category   string
	prestige   string
	country    string
	aspiration string
}

var catalog = []catalogCar{
	{
		slug: "pagani_zonda_f_2005", make: "Pagani", model: "Zonda", generation: "F",
		yearRange: "2005-2006", horsepower: "602 hp", accel: "3,6 s",
		production: "25 units", drivetrain: "rear wheel drive", category: "hypercar",
		prestige: "ultra-exclusive", country: "Italy", aspiration: "naturally aspirated V12",
	},
	{
		slug: "ferrari_f40_1987", make: "Ferrari", model: "F40", generation: "",
		yearRange: "1987 to 1992", horsepower: "471", accel: "4.1 seconds",
		production: "1311", drivetrain: "RWD", category: "supercar",
		prestige: "high", country: "Italy", aspiration: "twin turbo V8",
	},
	{
		slug: "nissan_skyline_gt_r_r34_1999", make: "Nissan", model: "Skyline GT-R", generation: "R34",
		yearRange: "1999-2002", horsepower: "276hp", accel: "4,9s",
		production: "11578", drivetrain: "ATTESA all-wheel drive", category: "sports car",
		prestige: "medium", country: "Japan", aspiration: "twin-turbocharged inline six",
	},
	{
		slug: "audi_rs2_avant_1994", make: "Audi", model: "RS2 Avant", generation: "",
		yearRange: "1994-1995", horsepower: "311 hp", accel: "5.4 s",
		production: "2891 units", drivetrain: "quattro permanent AWD", category: "wagon",
		prestige: "medium", country: "Germany", aspiration: "turbocharged inline-5",
	},
	{
		slug: "dodge_viper_acr_2016", make: "Dodge", model: "Viper ACR", generation: "",
		yearRange: "2016-2017", horsepower: "645", accel: "3.4",
		production: "2100", drivetrain: "rear-wheel drive", category: "track weapon",
		prestige: "medium", country: "USA", aspiration: "naturally aspirated V10",
	},
	{
		slug: "koenigsegg_jesko_2021", make: "Koenigsegg", model: "Jesko", generation: "",
		yearRange: "2021-2024", horsepower: "1600 hp", accel: "2,5 s",
		production: "125", drivetrain: "RWD", category: "hypercar",
		prestige: "ultra", country: "Sweden", aspiration: "twin-turbo V8",
	},
	{
		slug: "honda_civic_type_r_ek9_1997", make: "Honda", model: "Civic Type R", generation: "EK9",
		yearRange: "1997-2000", horsepower: "182 PS", accel: "6.7 s",
		production: "16000", drivetrain: "front wheel drive", category: "hot hatch",
		prestige: "low", country: "Japan", aspiration: "naturally aspirated VTEC",
	},
	{
		slug: "porsche_911_gt2_rs_991_2017", make: "Porsche", model: "911 GT2 RS", generation: "991",
		yearRange: "2017-2019", horsepower: "700hp", accel: "2.8 seconds",
		production: "about 1000", drivetrain: "rear-wheel drive", category: "supercar",
		prestige: "high", country: "Germany", aspiration: "twin-turbo flat six",
	},
	{
		slug: "lamborghini_miura_p400_1966", make: "Lamborghini", model: "Miura", generation: "P400",
		yearRange: "1966-1969", horsepower: "345 hp", accel: "6,3 s",
		production: "275 units", drivetrain: "RWD", category: "classic supercar",
		prestige: "high", country: "Italy", aspiration: "naturally aspirated V12",
	},
	{
		slug: "subaru_impreza_22b_sti_1998", make: "Subaru", model: "Impreza 22B STI", generation: "",
		yearRange: "1998-1999", horsepower: "276 hp (claimed)", accel: "4,7 s",
		production: "424", drivetrain: "symmetrical AWD", category: "sports sedan",
		prestige: "medium", country: "Japan", aspiration: "turbocharged flat four",
	},
}

// prose wrappers used for a share of payloads to exercise salvage.
var wrappers = []struct {
	prefix string
	suffix string
}{
	{"", ""},
	{"Sure! Here's what I found: ", ""},
	{"Looking at the photo, this appears to be the following car:\n", "\nHope that helps!"},
	{"```json\n", "\n```"},
}

func randIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSpots creates the specified number of spots drawn from the catalog.
func generateSpots(ctx context.Context, config *Config, stats *Stats) ([]Spot, error) {
	logger.Get().Info(ctx, "generating spots from the car catalog", logger.Int("numSpots", config.NumSpots))

	spots := make([]Spot, config.NumSpots)
	for i := range spots {
		spots[i] = generateSingleSpot()
	}

	stats.SpotsGenerated = len(spots)
	logger.Get().Info(ctx, "generated spots successfully", logger.Int("count", len(spots)))

	return spots, nil
}

// generateSingleSpot synthesizes one noisy oracle payload.
func generateSingleSpot() Spot {
	car := catalog[randIndex(len(catalog))]
	wrap := wrappers[randIndex(len(wrappers))]

	return Spot{
		SubmissionID: uuid.New().String(),
		Payload:      wrap.prefix + payloadFor(car) + wrap.suffix,
		TS:           time.Now().UTC().Format(time.RFC3339),
		CarSlug:      car.slug,
	}
}

// payloadFor renders the JSON body an oracle would produce for the car.
func payloadFor(car catalogCar) string {
	return fmt.Sprintf(`{
  "make": %q,
  "model": %q,
  "generation": %q,
  "year_range": %q,
  "horsepower": %q,
  "zero_to_hundred": %q,
  "production_numbers": %q,
  "drivetrain": %q,
  "vehicle_category": %q,
  "prestige_class": %q,
  "country": %q,
  "engine_aspiration": %q,
  "confidence": 0.9
}`, car.make, car.model, car.generation, car.yearRange, car.horsepower,
		car.accel, car.production, car.drivetrain, car.category,
		car.prestige, car.country, car.aspiration)
}

// Package rarity computes the deterministic rarity score and tier for a
// normalized vehicle record. The weights and bucket thresholds are fixed
// configuration data: they were chosen empirically and must not be re-derived.
package rarity

import (
	"math"
	"strings"

	"github.com/rarespot/rarespot/internal/domain/model"
)

// Horsepower contribution parameters.
const (
	powerDivisor = 200
	powerCap     = 3
)

// productionBucket maps a production volume upper bound (exclusive) to its
// contribution. Rarer production runs contribute more. Order matters:
// evaluated first to last.
var productionBuckets = []struct {
	below float64
	score float64
}{
	{10, 10},
	{30, 8},
	{100, 6},
	{1000, 4},
	{5000, 3},
	{20000, 2},
	{100000, 1},
}

// accelerationBuckets maps a 0-100 km/h time upper bound (exclusive, seconds)
// to its contribution.
var accelerationBuckets = []struct {
	below float64
	score float64
}{
	{3.5, 3},
	{5.0, 2},
	{7.0, 1},
}

// Make prestige tiers, matched case-insensitively and exactly.
var (
	topTierMakes   = makeSet("pagani", "bugatti", "koenigsegg", "rimac")
	upperTierMakes = makeSet("ferrari", "lamborghini", "porsche", "aston martin", "mclaren")
	midTierMakes   = makeSet("bmw", "mercedes-benz", "audi", "lexus", "dodge", "chevrolet")
)

// categoryBonus rewards inherently rare vehicle categories.
var categoryBonus = map[model.Category]float64{
	model.CategoryTrackOnly: 5,
	model.CategoryHypercar:  4,
	model.CategorySupercar:  2,
}

// Tier thresholds are inclusive lower bounds, evaluated highest-first.
var tierThresholds = []struct {
	min  int
	tier model.Tier
}{
	{18, model.TierMythic},
	{12, model.TierLegendary},
	{8, model.TierEpic},
	{5, model.TierRare},
	{3, model.TierUncommon},
}

// Score computes the rarity score from the normalized fields present so far.
// It is pure and order-independent: absent fields contribute nothing, and the
// result is the floor of the summed contributions, never negative.
func Score(rec *model.NormalizedRecord) int {
	var total float64
	if rec.ProductionNumbers != nil {
		total += bucketScore(productionBuckets, *rec.ProductionNumbers)
	}
	if rec.ZeroToHundred != nil {
		total += bucketScore(accelerationBuckets, *rec.ZeroToHundred)
	}
	if rec.Horsepower != nil {
		total += math.Min(*rec.Horsepower/powerDivisor, powerCap)
	}
	total += prestigeContribution(rec.Make)
	total += categoryBonus[rec.VehicleCategory]

	score := int(math.Floor(total))
	if score < 0 {
		return 0
	}
	return score
}

// TierFor maps a rarity score to its discrete tier. It is a monotonically
// non-decreasing step function of the score.
func TierFor(score int) model.Tier {
	for _, t := range tierThresholds {
		if score >= t.min {
			return t.tier
		}
	}
	return model.TierCommon
}

func bucketScore(buckets []struct {
	below float64
	score float64
}, v float64) float64 {
	for _, b := range buckets {
		if v < b.below {
			return b.score
		}
	}
	return 0
}

func prestigeContribution(makeName string) float64 {
	key := strings.ToLower(strings.TrimSpace(makeName))
	switch {
	case topTierMakes[key]:
		return 3
	case upperTierMakes[key]:
		return 2
	case midTierMakes[key]:
		return 1
	default:
		return 0
	}
}

func makeSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Package normalize turns a raw oracle record into a normalized,
// internally-consistent vehicle record. Coercion failures degrade silently to
// field absence; Normalize never fails for a well-typed RawRecord.
package normalize

import (
	"context"
	"strings"

	"github.com/rarespot/rarespot/internal/domain/coerce"
	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/rarity"
)

// Normalizer composes scalar coercion, the field normalizers, the derivation
// rules, and the rarity scorer into the single entry point other layers call.
type Normalizer struct {
	prestigeByMake map[string]model.Prestige
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithPrestigeMake adds or overrides make-to-prestige entries consulted when
// the oracle gives no usable class hint. Keys are matched lowercase.
func WithPrestigeMake(overrides map[string]model.Prestige) Option {
	return func(n *Normalizer) {
		if n.prestigeByMake == nil {
			n.prestigeByMake = make(map[string]model.Prestige, len(overrides))
		}
		for makeName, p := range overrides {
			n.prestigeByMake[strings.ToLower(makeName)] = p
		}
	}
}

// New constructs a Normalizer. Configuration is fixed at construction; every
// call is safe to make concurrently.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize produces the canonical record for a raw oracle record. Context is
// accepted first to satisfy the project-wide convention; normalization itself
// is synchronous and pure.
func (n *Normalizer) Normalize(_ context.Context, raw model.RawRecord) model.NormalizedRecord {
	rec := model.NormalizedRecord{
		Make:  stringField(raw, "make"),
		Model: stringField(raw, "model"),
	}
	if g := stringField(raw, "generation"); g != "" {
		rec.Generation = g
	}

	rec.Horsepower = numberField(raw, "horsepower")
	rec.TorqueNM = numberField(raw, "torque_nm")
	rec.WeightKG = numberField(raw, "weight_kg")
	rec.ZeroToHundred = numberField(raw, "zero_to_hundred")
	rec.TopSpeedKMH = numberField(raw, "top_speed_kmh")
	rec.ProductionNumbers = numberField(raw, "production_numbers")

	rec.YearStart = yearField(raw, "year_start")
	rec.YearEnd = yearField(raw, "year_end")
	rec.YearRange = stringField(raw, "year_range")

	rec.Confidence = unitField(raw, "confidence")
	rec.RealWorldConfidence = unitField(raw, "real_world_confidence")
	rec.FrameSuspicion = unitField(raw, "frame_suspicion")

	if d, ok := Drivetrain(raw["drivetrain"]); ok {
		rec.Drivetrain = d
	}
	if c, ok := Category(raw["vehicle_category"]); ok {
		rec.VehicleCategory = c
	}
	rec.PrestigeClass = n.prestige(raw["prestige_class"], rec.Make)
	rec.Region = Region(raw["region"], raw["country"])
	if a, ok := Aspiration(raw["engine_aspiration"], raw["engine"]); ok {
		rec.EngineAspiration = a
	}

	derive(&rec)

	rec.RarityScore = rarity.Score(&rec)
	rec.RarityTier = rarity.TierFor(rec.RarityScore)
	return rec
}

// prestige applies per-normalizer make overrides ahead of the built-in table.
// An explicit recognized hint still wins.
func (n *Normalizer) prestige(hint any, makeName string) model.Prestige {
	if len(n.prestigeByMake) > 0 {
		if _, hinted := prestigeFromHint(hint); !hinted {
			if p, ok := n.prestigeByMake[strings.ToLower(strings.TrimSpace(makeName))]; ok {
				return p
			}
		}
	}
	return Prestige(hint, makeName)
}

// derive fills fields absent from input but computable from present ones.
func derive(rec *model.NormalizedRecord) {
	if rec.YearStart == nil && rec.YearEnd == nil && rec.YearRange != "" {
		if start, end, ok := yearsFromRange(rec.YearRange); ok {
			rec.YearStart = &start
			rec.YearEnd = &end
		}
	}
	// A reversed pair violates the record invariant; swap rather than drop.
	if rec.YearStart != nil && rec.YearEnd != nil && *rec.YearStart > *rec.YearEnd {
		rec.YearStart, rec.YearEnd = rec.YearEnd, rec.YearStart
	}
	if rec.YearRange == "" {
		rec.YearRange = rangeFromYears(rec.YearStart, rec.YearEnd)
	}
	rec.CarSlug = carSlug(rec.Make, rec.Model, rec.Generation, rec.YearStart)
}

func stringField(raw model.RawRecord, key string) string {
	s, _ := coerce.String(raw[key])
	return s
}

func numberField(raw model.RawRecord, key string) *float64 {
	n, ok := coerce.Number(raw[key])
	if !ok {
		return nil
	}
	return &n
}

func yearField(raw model.RawRecord, key string) *int {
	n, ok := coerce.Number(raw[key])
	if !ok {
		return nil
	}
	y := int(n)
	return &y
}

func unitField(raw model.RawRecord, key string) *float64 {
	n, ok := coerce.UnitInterval(raw[key])
	if !ok {
		return nil
	}
	return &n
}

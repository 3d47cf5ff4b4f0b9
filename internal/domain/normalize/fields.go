package normalize

import (
	"strings"

	"github.com/rarespot/rarespot/internal/domain/coerce"
	"github.com/rarespot/rarespot/internal/domain/model"
)

// rule maps free-text keywords to a canonical category. Rules are evaluated
// in order and the first hit wins: free text regularly mentions several
// categories at once ("Quattro AWD system"), so rule order encodes priority
// and must be preserved.
type rule[T any] struct {
	keywords []string
	value    T
}

func firstMatch[T any](text string, rules []rule[T]) (T, bool) {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.value, true
			}
		}
	}
	var zero T
	return zero, false
}

// AWD-family keywords come first: descriptions like "Quattro AWD system"
// mention brand names alongside the layout.
var drivetrainRules = []rule[model.Drivetrain]{
	{[]string{"awd", "quattro", "4matic", "xdrive", "4motion", "all-wheel", "all wheel"}, model.DrivetrainAWD},
	{[]string{"4wd", "4x4", "four-wheel", "four wheel"}, model.Drivetrain4WD},
	{[]string{"rwd", "rear-wheel", "rear wheel"}, model.DrivetrainRWD},
	{[]string{"fwd", "front-wheel", "front wheel"}, model.DrivetrainFWD},
}

var categoryRules = []rule[model.Category]{
	{[]string{"hypercar"}, model.CategoryHypercar},
	{[]string{"track-only", "track only", "track car"}, model.CategoryTrackOnly},
	{[]string{"supercar"}, model.CategorySupercar},
	{[]string{"muscle"}, model.CategoryMuscle},
	{[]string{"hatchback", "hatch"}, model.CategoryHatchback},
	{[]string{"suv", "crossover"}, model.CategorySUV},
	{[]string{"wagon", "estate", "touring"}, model.CategoryWagon},
	{[]string{"coupe", "coupé"}, model.CategoryCoupe},
	{[]string{"sedan", "saloon"}, model.CategorySedan},
	{[]string{"other"}, model.CategoryOther},
}

// twin-turbo variants must come before plain "turbo" or every twin-turbo
// engine would classify as single-turbo.
var aspirationRules = []rule[model.Aspiration]{
	{[]string{"electric", "battery"}, model.AspirationElectric},
	{[]string{"hybrid", "phev"}, model.AspirationHybrid},
	{[]string{"twin-turbo", "twin turbo", "bi-turbo", "biturbo"}, model.AspirationTwinTurbo},
	{[]string{"turbo"}, model.AspirationTurbo},
	{[]string{"supercharg"}, model.AspirationSupercharged},
	{[]string{"naturally aspirated", "n/a", "natural"}, model.AspirationNA},
}

var regionHintRules = []rule[model.Region]{
	{[]string{"europe"}, model.RegionEurope},
	{[]string{"japan", "jdm"}, model.RegionJapan},
	{[]string{"usa", "u.s.", "united states", "america", "states"}, model.RegionUSA},
}

var countryRules = []rule[model.Region]{
	{[]string{"germany", "italy", "france", "united kingdom", "uk", "england", "sweden", "spain", "austria", "netherlands", "croatia", "czech"}, model.RegionEurope},
	{[]string{"japan"}, model.RegionJapan},
	{[]string{"usa", "united states", "america"}, model.RegionUSA},
}

// Make-to-prestige lookup used when the oracle gives no usable class hint.
// Unknown makes deliberately default to low: prestige feeds the scorer, and
// an unrecognized make is treated as ordinary rather than absent.
var prestigeByMake = map[string]model.Prestige{
	"pagani":     model.PrestigeUltra,
	"bugatti":    model.PrestigeUltra,
	"koenigsegg": model.PrestigeUltra,
	"rimac":      model.PrestigeUltra,

	"ferrari":      model.PrestigeHigh,
	"lamborghini":  model.PrestigeHigh,
	"porsche":      model.PrestigeHigh,
	"aston martin": model.PrestigeHigh,
	"mclaren":      model.PrestigeHigh,
	"bentley":      model.PrestigeHigh,
	"rolls-royce":  model.PrestigeHigh,

	"bmw":           model.PrestigeMedium,
	"mercedes-benz": model.PrestigeMedium,
	"audi":          model.PrestigeMedium,
	"lexus":         model.PrestigeMedium,
	"dodge":         model.PrestigeMedium,
	"chevrolet":     model.PrestigeMedium,
	"jaguar":        model.PrestigeMedium,
	"maserati":      model.PrestigeMedium,
	"lotus":         model.PrestigeMedium,
	"alfa romeo":    model.PrestigeMedium,
}

var prestigeNames = map[string]model.Prestige{
	"low":    model.PrestigeLow,
	"medium": model.PrestigeMedium,
	"high":   model.PrestigeHigh,
	"ultra":  model.PrestigeUltra,
}

// Drivetrain canonicalizes a free-text drivetrain description. Unmatched or
// absent input yields absence, never a guess.
func Drivetrain(v any) (model.Drivetrain, bool) {
	text, ok := coerce.String(v)
	if !ok {
		return "", false
	}
	return firstMatch(text, drivetrainRules)
}

// Category canonicalizes a free-text vehicle category.
func Category(v any) (model.Category, bool) {
	text, ok := coerce.String(v)
	if !ok {
		return "", false
	}
	return firstMatch(text, categoryRules)
}

// Prestige resolves the prestige class: an explicit hint naming a recognized
// tier wins, otherwise the make lookup decides, defaulting to low.
func Prestige(hint any, makeName string) model.Prestige {
	if p, ok := prestigeFromHint(hint); ok {
		return p
	}
	if p, ok := prestigeByMake[strings.ToLower(strings.TrimSpace(makeName))]; ok {
		return p
	}
	return model.PrestigeLow
}

func prestigeFromHint(hint any) (model.Prestige, bool) {
	text, ok := coerce.String(hint)
	if !ok {
		return "", false
	}
	p, ok := prestigeNames[strings.ToLower(strings.TrimSpace(text))]
	return p, ok
}

// Region resolves the region: an explicit hint is keyword-matched first (any
// unrecognized hint text still resolves to Other), then the country field is
// matched against per-region country lists, and Other is the final fallback.
func Region(hint any, country any) model.Region {
	if text, ok := coerce.String(hint); ok && strings.TrimSpace(text) != "" {
		if r, ok := firstMatch(text, regionHintRules); ok {
			return r
		}
		return model.RegionOther
	}
	if text, ok := coerce.String(country); ok {
		if r, ok := firstMatch(text, countryRules); ok {
			return r
		}
	}
	return model.RegionOther
}

// Aspiration resolves the engine aspiration, preferring an explicit hint over
// the free-text engine description.
func Aspiration(hint any, engineText any) (model.Aspiration, bool) {
	if text, ok := coerce.String(hint); ok {
		if a, ok := firstMatch(text, aspirationRules); ok {
			return a, true
		}
	}
	if text, ok := coerce.String(engineText); ok {
		return firstMatch(text, aspirationRules)
	}
	return "", false
}

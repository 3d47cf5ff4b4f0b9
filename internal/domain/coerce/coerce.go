// Package coerce parses arbitrary textual/numeric oracle output into strict
// numeric values. Every function is total and side-effect-free: failures are
// reported as absence, never as errors or panics, because the oracle's output
// is untrusted and partial data beats a failed classification.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

// Number coerces v into a finite float64. Finite numbers pass through
// unchanged. Strings are cleaned first: a comma is treated as a decimal
// separator, then every rune that is not a digit, minus sign, or dot is
// stripped, which handles inputs like "3,2", "3.2 s" and "320 km/h".
// Anything else (bool, nil, structured value) yields absence.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		return parse(n)
	default:
		return 0, false
	}
}

// UnitInterval coerces v with Number and clamps the result into [0,1].
// Absence propagates.
func UnitInterval(v any) (float64, bool) {
	n, ok := Number(v)
	if !ok {
		return 0, false
	}
	return math.Max(0, math.Min(1, n)), true
}

// String returns v only when it is a string; the oracle sometimes emits
// numbers or nulls where text was asked for.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func parse(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(n)
}

func finite(n float64) (float64, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

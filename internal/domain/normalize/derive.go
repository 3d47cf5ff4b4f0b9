package normalize

import (
	"regexp"
	"strconv"
	"strings"

	gosimple "github.com/gosimple/slug"
)

// yearRangePattern matches two four-digit years separated by any run of
// non-digit characters, e.g. "1992-1998" or "1992 to 1998".
var yearRangePattern = regexp.MustCompile(`(\d{4})\D+(\d{4})`)

// yearsFromRange parses year_start/year_end out of a free-text year range.
func yearsFromRange(yearRange string) (start, end int, ok bool) {
	m := yearRangePattern.FindStringSubmatch(yearRange)
	if m == nil {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, end, true
}

// rangeFromYears reconstructs the display range from whichever years are
// present: both and unequal -> "start-end", otherwise the single year.
func rangeFromYears(start, end *int) string {
	switch {
	case start != nil && end != nil:
		if *start != *end {
			return strconv.Itoa(*start) + "-" + strconv.Itoa(*end)
		}
		return strconv.Itoa(*start)
	case start != nil:
		return strconv.Itoa(*start)
	case end != nil:
		return strconv.Itoa(*end)
	default:
		return ""
	}
}

// carSlug builds the URL-safe identity token: the present identity fields
// space-joined, slugified with underscore separators, with the start year
// appended when known. An empty base yields no slug.
func carSlug(makeName, modelName, generation string, yearStart *int) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{makeName, modelName, generation} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	base := strings.ReplaceAll(gosimple.Make(strings.Join(parts, " ")), "-", "_")
	if base == "" {
		return ""
	}
	if yearStart != nil {
		return base + "_" + strconv.Itoa(*yearStart)
	}
	return base
}

// Package salvage extracts a syntactically valid record from a raw oracle
// response. The oracle is asked for a bare JSON object but regularly wraps it
// in conversational text, so parsing is best-effort: direct parse first, then
// the substring between the first opening and last closing brace. It assumes
// the well-formed object is contiguous and brace-delimited; no attempt is made
// to handle stray braces outside the payload.
package salvage

import (
	"encoding/json"
	"strings"

	"github.com/rarespot/rarespot/internal/domain/model"
)

// Parse recovers a RawRecord from raw oracle text. On failure it returns an
// *UnparsableResponseError carrying the original text for diagnostics; this is
// terminal for the request since no meaningful record can be produced.
func Parse(raw string) (model.RawRecord, error) {
	var rec model.RawRecord
	if err := json.Unmarshal([]byte(raw), &rec); err == nil {
		return rec, nil
	}

	opening := strings.Index(raw, "{")
	closing := strings.LastIndex(raw, "}")
	if opening < 0 || closing < 0 || opening >= closing {
		return nil, &UnparsableResponseError{Raw: raw}
	}
	if err := json.Unmarshal([]byte(raw[opening:closing+1]), &rec); err != nil {
		return nil, &UnparsableResponseError{Raw: raw}
	}
	return rec, nil
}

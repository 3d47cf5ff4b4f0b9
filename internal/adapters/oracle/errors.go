package oracle

import "errors"

// Sentinel kinds for oracle errors.
var (
	ErrEmptyImage    = errors.New("empty image payload")
	ErrEmptyResponse = errors.New("oracle returned no choices")
	ErrOracleStatus  = errors.New("oracle error response")
)

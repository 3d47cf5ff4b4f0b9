package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoOracle = errors.New("no oracle configured")
)

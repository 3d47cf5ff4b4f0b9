package types

import "errors"

// ErrNotFound is the shared not-found sentinel. The ranking store returns it
// for unknown cars and the HTTP layer maps it to 404.
var ErrNotFound = errors.New("not found")

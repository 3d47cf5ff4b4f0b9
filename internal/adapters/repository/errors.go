package repository

import (
	"errors"
	"fmt"

	"github.com/rarespot/rarespot/internal/domain/types"
)

// Sentinel kinds for ranking store errors. ErrNotFound wraps the shared
// sentinel so HTTP handlers can match it without importing this package.
var (
	ErrNotFound     = fmt.Errorf("car %w", types.ErrNotFound)
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)

// Package repository defines the rarity ranking store interface and errors.
package repository

import "context"

// Entry represents a rarity ranking row.
type Entry struct {
	Rank         int
	CarSlug      string
	Score        float64
	SubmissionID string
	Make         string
	Model        string
	Tier         string
}

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest sets a new best score for a car if higher than the existing
	// one. Returns true if the store updated the score, false otherwise.
	UpdateBest(ctx context.Context, carSlug string, score float64) (bool, error)
	// UpdateBestWithMeta sets a new best score and stores identity metadata
	// when improved.
	UpdateBestWithMeta(ctx context.Context, carSlug string, score float64, submissionID string, makeName string, modelName string, tier string) (bool, error)

	// Rank returns the current rank and score for a car.
	// Returns ErrNotFound if the car is unknown.
	Rank(ctx context.Context, carSlug string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of cars tracked in the ranking.
	Count(ctx context.Context) int
}

// Package types contains common types used across the application
package types

// Entry represents a rarity leaderboard entry
type Entry struct {
	Rank    int     `json:"rank"`
	CarSlug string  `json:"car_slug"`
	Score   float64 `json:"score"`
	Make    string  `json:"make,omitempty"`
	Model   string  `json:"model,omitempty"`
	Tier    string  `json:"tier,omitempty"`
}

package testspots

import "time"

// Config holds configuration for the spot test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumSpots   int           // Number of spots to generate
	TopN       int           // Number of top entries to fetch
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for spots
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Spot represents a sighting to be submitted
type Spot struct {
	SubmissionID string `json:"submission_id"`
	Payload      string `json:"payload"`
	TS           string `json:"ts"`

	// CarSlug is the slug the payload should normalize to. Used for
	// verification only; the service derives its own.
	CarSlug string `json:"-"`
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank    int     `json:"rank"`
	CarSlug string  `json:"car_slug"`
	Score   float64 `json:"score"`
	Make    string  `json:"make,omitempty"`
	Model   string  `json:"model,omitempty"`
	Tier    string  `json:"tier,omitempty"`
}

// AckResponse represents the response from spot submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	SpotsGenerated     int
	SpotsSubmitted     int
	SpotsSuccessful    int
	SpotsDuplicate     int
	SpotsFailed        int
	RankingsRetrieved  int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

package testspots

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rarespot/rarespot/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete spot test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting rarespot spot test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("spots", config.NumSpots),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate spots
	spots, err := generateSpots(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("spot generation failed: %w", err)
	}

	// Step 3: Submit spots concurrently
	if err := submitSpots(ctx, config, spots, stats); err != nil {
		return fmt.Errorf("spot submission failed: %w", err)
	}

	// Step 4: Wait for processing
	logger.Get().Info(ctx, "waiting for spots to be processed")
	time.Sleep(ProcessingDelay)

	// Step 5: Retrieve rankings concurrently
	rankings, err := retrieveRankings(ctx, config, spots, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 6: Get leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(rankings, leaderboard, config.Verbose); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save spots to file
	if err := saveSpotsToFile(ctx, config, spots); err != nil {
		logger.Get().Warn(ctx, "failed to save spots to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSpotsToFile saves the generated spots to a JSON file.
func saveSpotsToFile(ctx context.Context, config *Config, spots []Spot) error {
	if len(spots) == 0 {
		return fmt.Errorf("no spots to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_spots_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spots); err != nil {
		return fmt.Errorf("failed to encode spots: %w", err)
	}

	logger.Get().Info(ctx, "spots saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, spotsPerSecond float64

	if stats.SpotsSubmitted > 0 {
		successRate = float64(stats.SpotsSuccessful) / float64(stats.SpotsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		spotsPerSecond = float64(stats.SpotsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("spotsGenerated", stats.SpotsGenerated),
		logger.Int("spotsSubmitted", stats.SpotsSubmitted),
		logger.Int("spotsSuccessful", stats.SpotsSuccessful),
		logger.Int("spotsDuplicate", stats.SpotsDuplicate),
		logger.Int("spotsFailed", stats.SpotsFailed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("spotsPerSecond", spotsPerSecond))
}

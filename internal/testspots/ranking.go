package testspots

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// retrieveRankings retrieves rankings for all distinct cars concurrently.
func retrieveRankings(ctx context.Context, config *Config, spots []Spot, stats *Stats) ([]Entry, error) {
	// Distinct slugs; many spots hit the same car.
	seen := make(map[string]struct{}, len(spots))
	slugs := make([]string, 0, len(spots))
	for _, spot := range spots {
		if _, ok := seen[spot.CarSlug]; ok {
			continue
		}
		seen[spot.CarSlug] = struct{}{}
		slugs = append(slugs, spot.CarSlug)
	}

	log.Printf("retrieving rankings for %d cars with %d workers...", len(slugs), config.Workers)

	client := newHTTPClient(config.Timeout)

	rankings := make([]Entry, len(slugs))
	var failed int64

	slugChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range slugChan {
				select {
				case <-ctx.Done():
					return
				default:
					slug := slugs[index]
					entry, err := retrieveSingleRanking(client, config.BaseURL, slug)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get rank for %s: %v", slug, err)
						}
					} else {
						rankings[index] = entry
					}
				}
			}
		}()
	}

	go func() {
		defer close(slugChan)
		for i := range slugs {
			select {
			case <-ctx.Done():
				return
			case slugChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validRankings := make([]Entry, 0, len(rankings))
	for _, entry := range rankings {
		if entry.CarSlug != "" {
			validRankings = append(validRankings, entry)
		}
	}

	stats.RankingsRetrieved = len(validRankings)

	log.Printf(`ranking retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRankings), int(atomic.LoadInt64(&failed)))

	return validRankings, nil
}

// retrieveSingleRanking retrieves ranking for a single car.
func retrieveSingleRanking(client *HTTPClient, baseURL, carSlug string) (Entry, error) {
	url := fmt.Sprintf("%s/rank/%s", baseURL, carSlug)

	resp, err := client.Get(url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("getting top %d leaderboard entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("retrieved %d leaderboard entries", len(leaderboard))

	return leaderboard, nil
}

package testspots

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults verifies the consistency of rankings and leaderboard.
func verifyResults(rankings, leaderboard []Entry, verbose bool) error {
	log.Println("verifying results...")

	if len(rankings) == 0 {
		return fmt.Errorf("no rankings to verify")
	}

	sortedRankings := make([]Entry, len(rankings))
	copy(sortedRankings, rankings)
	sort.Slice(sortedRankings, func(i, j int) bool {
		if sortedRankings[i].Score != sortedRankings[j].Score {
			return sortedRankings[i].Score > sortedRankings[j].Score
		}
		return sortedRankings[i].CarSlug < sortedRankings[j].CarSlug
	})

	if len(leaderboard) > 0 {
		if err := verifyLeaderboardConsistency(sortedRankings, leaderboard); err != nil {
			log.Printf("leaderboard consistency warning: %v", err)
		} else {
			log.Println("leaderboard consistency verified")
		}
	}

	displayRarest(sortedRankings, leaderboard, verbose)

	log.Println("result verification completed")
	return nil
}

// verifyLeaderboardConsistency checks if the leaderboard matches the
// individually retrieved ranks.
func verifyLeaderboardConsistency(sortedRankings, leaderboard []Entry) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}

	topRanking := sortedRankings[0]
	topLeaderboard := leaderboard[0]

	if topRanking.CarSlug != topLeaderboard.CarSlug {
		return fmt.Errorf("top leaderboard entry (%s) does not match rarest ranked car (%s)",
			topLeaderboard.CarSlug, topRanking.CarSlug)
	}

	if topRanking.Score != topLeaderboard.Score {
		return fmt.Errorf("top leaderboard score (%.3f) does not match rarest ranked score (%.3f)",
			topLeaderboard.Score, topRanking.Score)
	}

	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Score > leaderboard[i-1].Score {
			return fmt.Errorf("leaderboard not properly sorted: entry %d has higher score than entry %d",
				i, i-1)
		}
	}

	return nil
}

// displayRarest shows the rarest cars from rankings and leaderboard.
func displayRarest(sortedRankings, leaderboard []Entry, verbose bool) {
	topN := 10
	if len(sortedRankings) < topN {
		topN = len(sortedRankings)
	}

	log.Printf("rarest %d cars from rankings:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedRankings[i]
		log.Printf("   %d. %s %s (%s) - score %.0f, %s", i+1, entry.Make, entry.Model, entry.CarSlug, entry.Score, entry.Tier)
	}

	if len(leaderboard) > 0 {
		leaderboardTopN := topN
		if len(leaderboard) < leaderboardTopN {
			leaderboardTopN = len(leaderboard)
		}

		log.Printf("rarest %d cars from leaderboard:", leaderboardTopN)
		for i := 0; i < leaderboardTopN; i++ {
			entry := leaderboard[i]
			log.Printf("   %d. %s - score %.0f, %s", i+1, entry.CarSlug, entry.Score, entry.Tier)
		}
	}

	if verbose && len(sortedRankings) > 0 {
		sum := 0.0
		for _, entry := range sortedRankings {
			sum += entry.Score
		}
		log.Printf(`score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, sum/float64(len(sortedRankings)), sortedRankings[0].Score, sortedRankings[len(sortedRankings)-1].Score)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*TreapStore, context.Context) {
	t.Helper()
	ctx := context.Background()
	s := NewTreapStore(ctx,
		WithSnapshotInterval(time.Hour),
		WithMetricsUpdateInterval(time.Hour),
	)
	t.Cleanup(func() { _ = s.Close() })
	return s, ctx
}

func TestUpdateBestImprovementOnly(t *testing.T) {
	s, ctx := newTestStore(t)

	updated, err := s.UpdateBestWithMeta(ctx, "pagani_zonda_f_2005", 17, "spot-1", "Pagani", "Zonda F", "Legendary")
	if err != nil || !updated {
		t.Fatalf("first update: updated=%v err=%v", updated, err)
	}

	// Lower score is not an improvement
	updated, err = s.UpdateBestWithMeta(ctx, "pagani_zonda_f_2005", 12, "spot-2", "Pagani", "Zonda F", "Legendary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected lower score to be rejected")
	}

	// Equal score is not an improvement either
	updated, _ = s.UpdateBestWithMeta(ctx, "pagani_zonda_f_2005", 17, "spot-3", "Pagani", "Zonda F", "Legendary")
	if updated {
		t.Error("expected equal score to be rejected")
	}

	// Higher score replaces the record and its metadata
	updated, err = s.UpdateBestWithMeta(ctx, "pagani_zonda_f_2005", 20, "spot-4", "Pagani", "Zonda F", "Mythic")
	if err != nil || !updated {
		t.Fatalf("improvement rejected: updated=%v err=%v", updated, err)
	}

	entry, err := s.Rank(ctx, "pagani_zonda_f_2005")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Score != 20 {
		t.Errorf("expected score 20, got %v", entry.Score)
	}
	if entry.SubmissionID != "spot-4" || entry.Tier != "Mythic" {
		t.Errorf("metadata not replaced on improvement: %+v", entry)
	}
}

func TestRankNotFound(t *testing.T) {
	s, ctx := newTestStore(t)

	if _, err := s.Rank(ctx, "unknown_car"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTopNOrdering(t *testing.T) {
	s, ctx := newTestStore(t)

	cars := map[string]float64{
		"koenigsegg_jesko_2021": 22,
		"pagani_zonda_f_2005":   17,
		"audi_rs2_1994":         9,
		"ford_focus_2010":       1,
		"mclaren_f1_1992":       21,
	}
	for slug, score := range cars {
		if _, err := s.UpdateBest(ctx, slug, score); err != nil {
			t.Fatalf("update %s: %v", slug, err)
		}
	}

	top, err := s.TopN(ctx, 3)
	if err != nil {
		t.Fatalf("topn: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}

	wantOrder := []string{"koenigsegg_jesko_2021", "mclaren_f1_1992", "pagani_zonda_f_2005"}
	for i, want := range wantOrder {
		if top[i].CarSlug != want {
			t.Errorf("position %d: expected %s, got %s", i, want, top[i].CarSlug)
		}
		if top[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, top[i].Rank)
		}
	}

	// Asking for more than exists returns everything
	all, err := s.TopN(ctx, 100)
	if err != nil {
		t.Fatalf("topn all: %v", err)
	}
	if len(all) != len(cars) {
		t.Errorf("expected %d entries, got %d", len(cars), len(all))
	}
}

func TestTopNInvalidLimit(t *testing.T) {
	s, ctx := newTestStore(t)

	for _, n := range []int{0, -1, -100} {
		if _, err := s.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", n, err)
		}
	}
}

func TestTieBreaking(t *testing.T) {
	s, ctx := newTestStore(t)

	// Same score: ordering falls back to slug ascending, ranks are dense.
	for _, slug := range []string{"zenvo_st1_2009", "apollo_ie_2018", "maserati_mc12_2004"} {
		if _, err := s.UpdateBest(ctx, slug, 15); err != nil {
			t.Fatalf("update %s: %v", slug, err)
		}
	}
	if _, err := s.UpdateBest(ctx, "bugatti_veyron_2005", 18); err != nil {
		t.Fatalf("update: %v", err)
	}

	top, err := s.TopN(ctx, 4)
	if err != nil {
		t.Fatalf("topn: %v", err)
	}

	wantSlugs := []string{"bugatti_veyron_2005", "apollo_ie_2018", "maserati_mc12_2004", "zenvo_st1_2009"}
	wantRanks := []int{1, 2, 2, 2}
	for i := range wantSlugs {
		if top[i].CarSlug != wantSlugs[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantSlugs[i], top[i].CarSlug)
		}
		if top[i].Rank != wantRanks[i] {
			t.Errorf("position %d: expected rank %d, got %d", i, wantRanks[i], top[i].Rank)
		}
	}

	// Rank lookup agrees with the leaderboard view
	entry, err := s.Rank(ctx, "maserati_mc12_2004")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Rank != 2 {
		t.Errorf("expected tied rank 2, got %d", entry.Rank)
	}
}

func TestCount(t *testing.T) {
	s, ctx := newTestStore(t)

	if c := s.Count(ctx); c != 0 {
		t.Errorf("expected 0, got %d", c)
	}

	for i := 0; i < 10; i++ {
		s.UpdateBest(ctx, fmt.Sprintf("car_%d", i), float64(i))
	}
	if c := s.Count(ctx); c != 10 {
		t.Errorf("expected 10, got %d", c)
	}

	// Re-scoring an existing car does not grow the count
	s.UpdateBest(ctx, "car_5", 99)
	if c := s.Count(ctx); c != 10 {
		t.Errorf("expected 10 after re-score, got %d", c)
	}
}

func TestFractionalScores(t *testing.T) {
	s, ctx := newTestStore(t)

	if _, err := s.UpdateBest(ctx, "car_a", 4.5); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A tiny improvement within fixed-point resolution still counts
	updated, err := s.UpdateBest(ctx, "car_a", 4.500001)
	if err != nil || !updated {
		t.Errorf("expected fractional improvement to update: updated=%v err=%v", updated, err)
	}

	entry, err := s.Rank(ctx, "car_a")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Score < 4.5 || entry.Score > 4.51 {
		t.Errorf("unexpected stored score %v", entry.Score)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s, ctx := newTestStore(t)

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				slug := fmt.Sprintf("car_%d", i%10)
				s.UpdateBest(ctx, slug, float64(g*perGoroutine+i))
			}
		}(g)
	}
	wg.Wait()

	if c := s.Count(ctx); c != 10 {
		t.Errorf("expected 10 distinct cars, got %d", c)
	}

	top, err := s.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topn: %v", err)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			t.Errorf("leaderboard out of order at %d: %v > %v", i, top[i].Score, top[i-1].Score)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := NewTreapStore(context.Background())

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("double close: %v", err)
	}
}

// Package repository defines the rarity ranking store interface and errors.
package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rarespot/rarespot/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then carSlug ASC (deterministic). The BST comparator
// treats "less" as ranking earlier, so in-order traversal produces the
// leaderboard from rarest to most common.

// scoreScale controls fixed-point scaling from float64. Rarity scores are
// small integers, so six decimal places is far more precision than needed.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 1) {
		return scoreFP(math.MaxInt64)
	}
	if math.IsInf(x, -1) {
		return scoreFP(math.MinInt64)
	}
	scaled := x * scoreScale
	if scaled > float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// record stores the fixed-point score plus metadata for a car's best sighting.
type record struct {
	score        scoreFP
	submissionID string
	makeName     string
	modelName    string
	tier         string
}

// Snapshot represents an immutable snapshot of the ranking state.
type Snapshot struct {
	// Rank and score in O(1) for reads
	RankByCar  map[string]int
	ScoreByCar map[string]float64

	// Fast Top-K cache up to M items
	TopCache []Entry // sorted descending
}

// treap node
type node struct {
	slug  string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aSlug) should appear before (bScore, bSlug)
// in the leaderboard (rarer cars first).
func less(aScore scoreFP, aSlug string, bScore scoreFP, bSlug string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aSlug < bSlug // tie-breaker by slug asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// scoreToPriority converts a score to a priority value so higher scores stay
// higher in the treap. Negative fixed-point values are offset into the
// unsigned range first.
func scoreToPriority(score scoreFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(score) + offset
}

func insert(n *node, slug string, score scoreFP) *node {
	if n == nil {
		return &node{slug: slug, score: score, prio: scoreToPriority(score), size: 1}
	}
	if less(score, slug, n.score, n.slug) {
		n.left = insert(n.left, slug, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, slug, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, slug string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && slug == n.slug {
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, slug, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, slug, score)
		}
	} else if less(score, slug, n.score, n.slug) {
		n.left = deleteNode(n.left, slug, score)
	} else {
		n.right = deleteNode(n.right, slug, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (rarest first).
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}

	// In-order traversal: the less() comparator already encodes rank order
	// including the deterministic slug tie-break.
	collectTopN(n.left, limit, records, out)

	if len(*out) < limit {
		if rec, exists := records[n.slug]; exists {
			*out = append(*out, entryFor(n.slug, rec))
		}
	}

	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

func entryFor(slug string, rec record) Entry {
	return Entry{
		CarSlug:      slug,
		Score:        toFloat(rec.score),
		SubmissionID: rec.submissionID,
		Make:         rec.makeName,
		Model:        rec.modelName,
		Tier:         rec.tier,
	}
}

// TreapStore is the in-memory ranking store used in production.
type TreapStore struct {
	mu                    sync.RWMutex
	root                  *node
	bySlug                map[string]record
	snapshotInterval      time.Duration
	topCacheSize          int
	metricsUpdateInterval time.Duration

	// snapshot is an atomic pointer to the latest published Snapshot
	snapshot atomic.Pointer[Snapshot]

	// Periodic snapshot management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		snapshotInterval:      1 * time.Second, // default snapshot interval
		topCacheSize:          500,             // default top cache size
		metricsUpdateInterval: 5 * time.Second,
		bySlug:                make(map[string]record),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)
	s.startMetricsUpdater(ctx)

	return s
}

// startPeriodicSnapshots starts a background goroutine that publishes
// snapshots at the configured interval.
func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds and publishes a new snapshot.
func (s *TreapStore) publishSnapshot() {
	start := time.Now()
	s.mu.RLock()
	s.publishSnapshotInternal()
	s.mu.RUnlock()

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordGarageSnapshotRebuildDuration(ms)
	metrics.UpdateGarageSnapshotLastDurationMs(ms)
	metrics.UpdateGarageSnapshotLastUnix(float64(time.Now().Unix()))
	metrics.IncrementGarageSnapshotCount()
}

// Close gracefully shuts down the background goroutines.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
func (s *TreapStore) UpdateBest(ctx context.Context, carSlug string, score float64) (bool, error) {
	return s.UpdateBestWithMeta(ctx, carSlug, score, "", "", "", "")
}

// UpdateBestWithMeta implements Store.UpdateBestWithMeta with O(log n)
// expected time.
func (s *TreapStore) UpdateBestWithMeta(ctx context.Context, carSlug string, score float64, submissionID string, makeName string, modelName string, tier string) (bool, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordGarageUpdateLatency(float64(latency))
	}()

	ns := toFixedPoint(score)

	isNewCar := false

	s.mu.Lock()
	if old, ok := s.bySlug[carSlug]; ok {
		if ns <= old.score { // not an improvement
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, carSlug, old.score)
	} else {
		isNewCar = true
	}
	s.bySlug[carSlug] = record{score: ns, submissionID: submissionID, makeName: makeName, modelName: modelName, tier: tier}
	s.root = insert(s.root, carSlug, ns)
	s.mu.Unlock()

	// Update metrics outside lock
	if isNewCar {
		metrics.UpdateGarageRecordsTotal(s.Count(ctx))
	}

	return true, nil
}

// Rank returns the current rank and score for a car.
func (s *TreapStore) Rank(ctx context.Context, carSlug string) (Entry, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordGarageQueryLatency(float64(latency))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.bySlug[carSlug]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	allEntries := make([]Entry, 0, len(s.bySlug))
	collectAll(s.root, s.bySlug, &allEntries)

	sortEntries(allEntries)
	assignRanksWithTies(allEntries)

	for _, entry := range allEntries {
		if entry.CarSlug == carSlug {
			return entry, nil
		}
	}

	return Entry{}, ErrNotFound
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordGarageQueryLatency(float64(latency))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.bySlug, &out)

	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of cars tracked.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySlug)
}

// publishSnapshotInternal rebuilds and publishes a new snapshot (assumes lock
// is held).
func (s *TreapStore) publishSnapshotInternal() {
	topCache := make([]Entry, 0, s.topCacheSize)
	collectTopN(s.root, s.topCacheSize, s.bySlug, &topCache)

	rankByCar := make(map[string]int, len(s.bySlug))
	scoreByCar := make(map[string]float64, len(s.bySlug))

	allEntries := make([]Entry, 0, len(s.bySlug))
	collectAll(s.root, s.bySlug, &allEntries)
	assignRanksWithTies(allEntries)

	for _, entry := range allEntries {
		rankByCar[entry.CarSlug] = entry.Rank
		scoreByCar[entry.CarSlug] = entry.Score
	}

	for i := range topCache {
		if rank, exists := rankByCar[topCache[i].CarSlug]; exists {
			topCache[i].Rank = rank
		}
	}

	s.snapshot.Store(&Snapshot{
		RankByCar:  rankByCar,
		ScoreByCar: scoreByCar,
		TopCache:   topCache,
	})
}

// startMetricsUpdater starts a background goroutine that updates store metrics.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics updates store-related metrics.
func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	recordCount := len(s.bySlug)
	s.mu.RUnlock()

	metrics.UpdateGarageRecordsTotal(recordCount)
}

// collectAll appends all entries in rank order (rarest first).
func collectAll(n *node, bySlug map[string]record, out *[]Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, bySlug, out)
	if rec, ok := bySlug[n.slug]; ok {
		*out = append(*out, entryFor(n.slug, rec))
	}
	collectAll(n.right, bySlug, out)
}

// sortEntries sorts entries by score (descending) and slug (ascending) to
// match TopN logic.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CarSlug < entries[j].CarSlug
	})
}

// assignRanksWithTies assigns ranks with proper tie handling. Cars with the
// same score share a rank, and the next distinct score takes the next
// consecutive rank.
func assignRanksWithTies(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].Score == entries[i].Score; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}

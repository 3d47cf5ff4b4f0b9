// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	submissionqueue "github.com/rarespot/rarespot/internal/adapters/mq/queue"
	workerpool "github.com/rarespot/rarespot/internal/adapters/mq/worker"
	"github.com/rarespot/rarespot/internal/adapters/oracle"
	repository "github.com/rarespot/rarespot/internal/adapters/repository"
	"github.com/rarespot/rarespot/internal/domain/dedupe"
	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/normalize"
	"github.com/rarespot/rarespot/internal/domain/salvage"
	"github.com/rarespot/rarespot/internal/domain/types"
	"github.com/rarespot/rarespot/pkg/logger"
	"github.com/rarespot/rarespot/pkg/metrics"
)

// cachingNormalizer adapts the domain normalizer to worker.Normalizer and
// keeps the latest record per car in the shared cache so GET /cars/{slug}
// also sees async submissions.
type cachingNormalizer struct {
	norm  *normalize.Normalizer
	cache *lru.Cache[string, model.NormalizedRecord]
}

func (a *cachingNormalizer) Normalize(ctx context.Context, raw model.RawRecord) model.NormalizedRecord {
	rec := a.norm.Normalize(ctx, raw)
	if rec.CarSlug != "" {
		a.cache.Add(rec.CarSlug, rec)
	}
	return rec
}

// Service implements the API dependencies for the rarity ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	garage     repository.Store
	deduper    dedupe.Deduper
	queue      submissionqueue.Queue
	normalizer *normalize.Normalizer
	classifier oracle.Classifier
	cache      *lru.Cache[string, model.NormalizedRecord]
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	cacheSize   int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCacheSize sets the size of the recent-record cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOracle sets the classification oracle client. Required for the
// synchronous classify path; async spot ingestion works without it.
func WithOracle(c oracle.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		cacheSize:   10000,
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rarespot service...")

	s.garage = repository.NewTreapStore(ctx)
	s.logger.Info(ctx, "using treap store")
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
		submissionqueue.WithBufferSize(s.queueSize),
	)
	s.normalizer = normalize.New()

	cache, err := lru.New[string, model.NormalizedRecord](s.cacheSize)
	if err != nil {
		return err
	}
	s.cache = cache

	adapter := &cachingNormalizer{norm: s.normalizer, cache: s.cache}
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, adapter, s.garage)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rarespot service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("cacheSize", s.cacheSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rarespot service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.garage != nil {
		if closer, ok := s.garage.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	if q, ok := s.queue.(*submissionqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "rarespot service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Returns true if the submission was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord removes a submission ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a sighting for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	ok := s.queue.Enqueue(ctx, sub)
	if ok {
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	} else {
		s.logger.Warn(ctx, "submission rejected by queue",
			logger.String("submissionID", sub.SubmissionID),
		)
	}
	return ok
}

// Classify runs the synchronous pipeline: oracle call, salvage, normalize,
// cache and rank. The normalized record is returned even when it lacks an
// identity (such records are simply not ranked).
func (s *Service) Classify(ctx context.Context, imageB64 string, mime string) (model.NormalizedRecord, error) {
	if s.classifier == nil {
		return model.NormalizedRecord{}, ErrNoOracle
	}

	start := time.Now()
	rawText, err := s.classifier.Classify(ctx, imageB64, mime)
	if err != nil {
		return model.NormalizedRecord{}, err
	}

	raw, err := salvage.Parse(rawText)
	if err != nil {
		metrics.RecordSalvageFailure()
		return model.NormalizedRecord{}, err
	}

	rec := s.normalizer.Normalize(ctx, raw)
	metrics.RecordNormalizeLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordSubmissionProcessed()

	if rec.CarSlug == "" {
		s.logger.Debug(ctx, "record lacks identity; skipping ranking")
		return rec, nil
	}

	s.cache.Add(rec.CarSlug, rec)

	submissionID := uuid.NewString()
	updated, err := s.garage.UpdateBestWithMeta(ctx, rec.CarSlug, float64(rec.RarityScore),
		submissionID, rec.Make, rec.Model, string(rec.RarityTier))
	if err != nil {
		metrics.RecordRankingError()
		s.logger.Error(ctx, "ranking update failed",
			logger.String("carSlug", rec.CarSlug),
			logger.Error(err),
		)
		return rec, nil
	}
	if updated {
		metrics.RecordRankingUpdate()
	}

	return rec, nil
}

// Lookup returns the most recently normalized record for a car, if cached.
func (s *Service) Lookup(_ context.Context, carSlug string) (model.NormalizedRecord, bool) {
	if s.cache == nil {
		return model.NormalizedRecord{}, false
	}
	return s.cache.Get(carSlug)
}

// TopN returns the top N ranking entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.garage.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = types.Entry{
			Rank:    entry.Rank,
			CarSlug: entry.CarSlug,
			Score:   entry.Score,
			Make:    entry.Make,
			Model:   entry.Model,
			Tier:    entry.Tier,
		}
	}

	return apiEntries, nil
}

// Rank returns the rank and score for a given car slug.
func (s *Service) Rank(ctx context.Context, carSlug string) (types.Entry, error) {
	entry, err := s.garage.Rank(ctx, carSlug)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:    entry.Rank,
		CarSlug: entry.CarSlug,
		Score:   entry.Score,
		Make:    entry.Make,
		Model:   entry.Model,
		Tier:    entry.Tier,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"cacheSize":   s.cacheSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalCars := s.garage.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalCars"] = totalCars
		stats["cachedRecords"] = s.cache.Len()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalCars(totalCars)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

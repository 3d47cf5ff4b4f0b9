// Package worker defines worker contracts for asynchronous salvage,
// normalization, and ranking updates.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/salvage"
	"github.com/rarespot/rarespot/pkg/logger"
	"github.com/rarespot/rarespot/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 20 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Submission abstracts what workers read off the queue.
type Submission = model.Submission

// Updater keeps the highest-scored record per car in the ranking store.
type Updater interface {
	UpdateBest(ctx context.Context, carSlug string, score float64) (bool, error)
	// UpdateBestWithMeta stores identity metadata alongside the score.
	UpdateBestWithMeta(ctx context.Context, carSlug string, score float64, submissionID string, makeName string, modelName string, tier string) (bool, error)
}

// Normalizer turns a raw oracle record into a normalized one.
type Normalizer interface {
	Normalize(ctx context.Context, raw model.RawRecord) model.NormalizedRecord
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions and writes ranking updates using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining submissions before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing submissions.
type InMemoryWorker struct {
	queue      Queue
	normalizer Normalizer
	updater    Updater
	name       string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, normalizer Normalizer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		normalizer: normalizer,
		updater:    updater,
		name:       "worker", // default name
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-subs:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processSubmission(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSubmission handles a single submission: salvage the payload when the
// raw record is not pre-decoded, normalize, then update the ranking store.
// Records without a car slug carry no identity and cannot be ranked.
func (w *InMemoryWorker) processSubmission(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam: Submission must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	raw := s.Raw
	if raw == nil {
		parsed, err := salvage.Parse(s.Payload)
		if err != nil {
			metrics.RecordSalvageFailure()
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "salvage_error")
			metrics.RecordErrorByType("salvage_error", "medium")
			w.logger.Warn(ctx, "no recoverable payload in submission",
				logger.String("submissionID", s.SubmissionID),
			)
			var unparsable *salvage.UnparsableResponseError
			if errors.As(err, &unparsable) {
				w.logger.Debug(ctx, "raw oracle text", logger.String("raw", unparsable.Raw))
			}
			return fmt.Errorf("salvage failed for submission %s: %w", s.SubmissionID, err)
		}
		raw = parsed
	}

	normStart := time.Now()
	rec := w.normalizer.Normalize(ctx, raw)
	metrics.RecordNormalizeLatency(float64(time.Since(normStart).Milliseconds()))

	if rec.CarSlug == "" {
		w.logger.Debug(ctx, "record has no identity fields; skipping ranking",
			logger.String("submissionID", s.SubmissionID),
		)
		metrics.RecordSubmissionProcessed()
		return nil
	}

	updated, err := w.updater.UpdateBestWithMeta(ctx, rec.CarSlug, float64(rec.RarityScore), s.SubmissionID, rec.Make, rec.Model, string(rec.RarityTier))
	if err != nil {
		metrics.RecordRankingError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ranking_error")
		metrics.RecordErrorByType("ranking_error", "high")
		w.logger.Error(ctx, "ranking update failed for submission",
			logger.String("submissionID", s.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("ranking update failed: %w", err)
	}

	if updated {
		metrics.RecordRankingUpdate()
	}
	metrics.RecordSubmissionProcessed()

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      Queue
	normalizer Normalizer
	updater    Updater

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, normalizer Normalizer, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		normalizer:        normalizer,
		updater:           updater,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			normalizer,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(p.processedCount) / timeDiff)
	}

	p.processedCount = 0
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers. The queue is closed first so that
// workers blocked on an empty queue wake up instead of running out the
// per-worker timeout.
func (p *Pool) Stop() {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new submissions
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}

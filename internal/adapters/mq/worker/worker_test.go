package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rarespot/rarespot/internal/adapters/mq/worker"
	"github.com/rarespot/rarespot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan worker.Submission
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan worker.Submission, 16)}
}

func (q *mockQueue) Dequeue(_ context.Context) <-chan worker.Submission {
	return q.ch
}

func (q *mockQueue) Close() error {
	close(q.ch)
	return nil
}

type mockNormalizer struct {
	mu   sync.Mutex
	raws []model.RawRecord
	rec  model.NormalizedRecord
}

func (n *mockNormalizer) Normalize(_ context.Context, raw model.RawRecord) model.NormalizedRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.raws = append(n.raws, raw)
	return n.rec
}

func (n *mockNormalizer) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.raws)
}

type updateCall struct {
	carSlug      string
	score        float64
	submissionID string
	makeName     string
	modelName    string
	tier         string
}

type mockUpdater struct {
	mu      sync.Mutex
	calls   []updateCall
	updated bool
	err     error
	signal  chan struct{}
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{updated: true, signal: make(chan struct{}, 16)}
}

func (u *mockUpdater) UpdateBest(ctx context.Context, carSlug string, score float64) (bool, error) {
	return u.UpdateBestWithMeta(ctx, carSlug, score, "", "", "", "")
}

func (u *mockUpdater) UpdateBestWithMeta(_ context.Context, carSlug string, score float64, submissionID, makeName, modelName, tier string) (bool, error) {
	u.mu.Lock()
	u.calls = append(u.calls, updateCall{carSlug, score, submissionID, makeName, modelName, tier})
	u.mu.Unlock()
	u.signal <- struct{}{}
	return u.updated, u.err
}

func (u *mockUpdater) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func (u *mockUpdater) lastCall() updateCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[len(u.calls)-1]
}

func waitFor(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestInMemoryWorker(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := newMockQueue()
		u := newMockUpdater()
		n := &mockNormalizer{rec: model.NormalizedRecord{
			Make:        "Pagani",
			Model:       "Zonda F",
			RarityScore: 17,
			RarityTier:  model.TierLegendary,
			CarSlug:     "pagani_zonda_f_2005",
		}}

		ctx, cancel := context.WithCancel(context.Background())

		w := worker.NewInMemoryWorker(q, n, u, worker.WithName("test-worker"))
		go w.Run(ctx)

		Reset(func() {
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			_ = w.Shutdown(shutdownCtx)
		})

		Convey("When a submission carries a raw oracle payload", func() {
			q.ch <- worker.Submission{
				SubmissionID: "spot-1",
				Payload:      `Sure! Here is the car: {"make":"Pagani","model":"Zonda F"}`,
				TS:           time.Now(),
			}

			So(waitFor(u.signal), ShouldBeTrue)

			Convey("Then the payload is salvaged, normalized, and ranked", func() {
				So(n.calls(), ShouldEqual, 1)
				So(u.callCount(), ShouldEqual, 1)

				call := u.lastCall()
				So(call.carSlug, ShouldEqual, "pagani_zonda_f_2005")
				So(call.score, ShouldEqual, 17.0)
				So(call.submissionID, ShouldEqual, "spot-1")
				So(call.makeName, ShouldEqual, "Pagani")
				So(call.modelName, ShouldEqual, "Zonda F")
				So(call.tier, ShouldEqual, "Legendary")
			})
		})

		Convey("When a submission carries a pre-decoded record", func() {
			q.ch <- worker.Submission{
				SubmissionID: "spot-2",
				Raw:          model.RawRecord{"make": "Pagani", "model": "Zonda F"},
				TS:           time.Now(),
			}

			So(waitFor(u.signal), ShouldBeTrue)

			Convey("Then it skips salvage and goes straight to normalization", func() {
				So(n.calls(), ShouldEqual, 1)
				So(u.callCount(), ShouldEqual, 1)
			})
		})

		Convey("When the payload has no recoverable JSON", func() {
			q.ch <- worker.Submission{
				SubmissionID: "spot-3",
				Payload:      "I cannot identify this vehicle.",
				TS:           time.Now(),
			}

			// Give the worker time to reject the submission.
			time.Sleep(100 * time.Millisecond)

			Convey("Then the submission is dropped without a ranking update", func() {
				So(n.calls(), ShouldEqual, 0)
				So(u.callCount(), ShouldEqual, 0)
			})
		})

		Convey("When the normalized record has no car slug", func() {
			n.rec = model.NormalizedRecord{RarityScore: 0, RarityTier: model.TierCommon}

			q.ch <- worker.Submission{
				SubmissionID: "spot-4",
				Raw:          model.RawRecord{"horsepower": 300},
				TS:           time.Now(),
			}

			time.Sleep(100 * time.Millisecond)

			Convey("Then the record is normalized but never ranked", func() {
				So(n.calls(), ShouldEqual, 1)
				So(u.callCount(), ShouldEqual, 0)
			})
		})

		Convey("When the updater returns an error", func() {
			u.err = context.DeadlineExceeded

			q.ch <- worker.Submission{
				SubmissionID: "spot-5",
				Raw:          model.RawRecord{"make": "Pagani", "model": "Zonda F"},
				TS:           time.Now(),
			}

			So(waitFor(u.signal), ShouldBeTrue)

			Convey("Then the worker keeps running and processes the next submission", func() {
				u.err = nil

				q.ch <- worker.Submission{
					SubmissionID: "spot-6",
					Raw:          model.RawRecord{"make": "Pagani", "model": "Zonda F"},
					TS:           time.Now(),
				}

				So(waitFor(u.signal), ShouldBeTrue)
				So(u.callCount(), ShouldEqual, 2)
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := newMockQueue()
		u := newMockUpdater()
		n := &mockNormalizer{}

		w := worker.NewInMemoryWorker(q, n, u)
		go w.Run(context.Background())

		Convey("When Shutdown is called", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			err := w.Shutdown(ctx)

			Convey("Then it returns without error", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a worker pool", t, func() {
		q := newMockQueue()
		u := newMockUpdater()
		n := &mockNormalizer{rec: model.NormalizedRecord{
			Make:       "Audi",
			Model:      "RS2",
			RarityTier: model.TierRare,
			CarSlug:    "audi_rs2_1994",
		}}

		Convey("When started with multiple workers", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool := worker.NewPool(4, q, n, u)
			pool.Start(ctx)

			for i := 0; i < 8; i++ {
				q.ch <- worker.Submission{
					SubmissionID: "spot",
					Raw:          model.RawRecord{"make": "Audi", "model": "RS2"},
					TS:           time.Now(),
				}
			}

			Convey("Then every submission reaches the updater", func() {
				for i := 0; i < 8; i++ {
					So(waitFor(u.signal), ShouldBeTrue)
				}
				So(u.callCount(), ShouldEqual, 8)
			})
		})

		Convey("When stopped while all workers are idle", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool := worker.NewPool(4, q, n, u)
			pool.Start(ctx)

			start := time.Now()
			pool.Stop()

			Convey("Then Stop returns promptly instead of timing out per worker", func() {
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})
		})

		Convey("When shut down", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool := worker.NewPool(2, q, n, u)
			pool.Start(ctx)

			err := pool.Shutdown(context.Background())

			Convey("Then shutdown completes cleanly", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

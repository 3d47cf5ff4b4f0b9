package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/rarespot/rarespot/internal/app"
	"github.com/rarespot/rarespot/internal/domain/model"
	"github.com/rarespot/rarespot/internal/domain/salvage"
	. "github.com/smartystreets/goconvey/convey"
)

// stubClassifier returns canned oracle text.
type stubClassifier struct {
	raw string
	err error
}

func (c *stubClassifier) Classify(_ context.Context, _ string, _ string) (string, error) {
	return c.raw, c.err
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
		service.WithDedupeSize(128),
		service.WithCacheSize(128),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(8),
			service.WithDedupeSize(8),
			service.WithCacheSize(8),
		)

		Convey("When started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			Reset(svc.Stop)

			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["workerCount"], ShouldEqual, 1)

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})

			Convey("Then stop is idempotent", func() {
				svc.Stop()
				svc.Stop()

				stats := svc.GetStats()
				So(stats["started"], ShouldBeFalse)
			})
		})
	})
}

func TestServiceDedupe(t *testing.T) {
	Convey("Given a started service", t, func(c C) {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When recording submission IDs", func() {
			So(svc.SeenAndRecord(ctx, "spot-1"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "spot-1"), ShouldBeTrue)
			So(svc.Size(), ShouldEqual, 1)

			Convey("Then unrecording allows a retry", func() {
				svc.Unrecord(ctx, "spot-1")
				So(svc.SeenAndRecord(ctx, "spot-1"), ShouldBeFalse)
			})
		})
	})
}

func TestServiceEnqueue(t *testing.T) {
	Convey("Given a started service with a tiny queue", t, func() {
		svc := startedService(t, service.WithWorkerCount(1), service.WithQueueSize(4))
		ctx := context.Background()

		Convey("When submitting a payload-only sighting", func() {
			ok := svc.Enqueue(ctx, model.Submission{
				SubmissionID: "spot-async",
				Payload:      `{"make":"Pagani","model":"Zonda F","production_numbers":25,"horsepower":602,"zero_to_hundred":3.6,"vehicle_category":"hypercar","prestige_class":"ultra"}`,
				TS:           time.Now(),
			})
			So(ok, ShouldBeTrue)

			Convey("Then the worker ranks it eventually", func() {
				var found bool
				for i := 0; i < 100; i++ {
					if _, err := svc.Rank(ctx, "pagani_zonda_f"); err == nil {
						found = true
						break
					}
					time.Sleep(20 * time.Millisecond)
				}
				So(found, ShouldBeTrue)

				entry, err := svc.Rank(ctx, "pagani_zonda_f")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)
				So(entry.Score, ShouldBeGreaterThan, 0)

				Convey("And the record is visible via Lookup", func() {
					rec, ok := svc.Lookup(ctx, "pagani_zonda_f")
					So(ok, ShouldBeTrue)
					So(rec.Make, ShouldEqual, "Pagani")
				})
			})
		})
	})
}

func TestServiceClassify(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()

		Convey("When no oracle is configured", func() {
			svc := startedService(t)

			_, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")

			Convey("Then it fails with ErrNoOracle", func() {
				So(errors.Is(err, service.ErrNoOracle), ShouldBeTrue)
			})
		})

		Convey("When the oracle answers with a messy record", func() {
			oracle := &stubClassifier{raw: "Sure! Here's what I found: " +
				`{"make":"Pagani","model":"Zonda F","year_range":"2005 to 2006",` +
				`"horsepower":"602 hp","zero_to_hundred":"3,6 s","production_numbers":"25 units",` +
				`"vehicle_category":"hypercar","prestige_class":"ultra","drivetrain":"RWD"}`}
			svc := startedService(t, service.WithOracle(oracle))

			rec, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")

			Convey("Then the record is salvaged, normalized, and scored", func() {
				So(err, ShouldBeNil)
				So(rec.Make, ShouldEqual, "Pagani")
				So(rec.Model, ShouldEqual, "Zonda F")
				So(rec.CarSlug, ShouldEqual, "pagani_zonda_f_2005")
				So(rec.Horsepower, ShouldNotBeNil)
				So(*rec.Horsepower, ShouldEqual, 602)
				So(rec.RarityScore, ShouldBeGreaterThanOrEqualTo, 18)
				So(rec.RarityTier, ShouldEqual, model.TierMythic)
			})

			Convey("Then the car is ranked and cached", func() {
				So(err, ShouldBeNil)

				entry, rerr := svc.Rank(ctx, rec.CarSlug)
				So(rerr, ShouldBeNil)
				So(entry.Make, ShouldEqual, "Pagani")
				So(entry.Tier, ShouldEqual, "Mythic")

				cached, ok := svc.Lookup(ctx, rec.CarSlug)
				So(ok, ShouldBeTrue)
				So(cached.CarSlug, ShouldEqual, rec.CarSlug)
			})
		})

		Convey("When the oracle output has no recoverable JSON", func() {
			oracle := &stubClassifier{raw: "I cannot identify this vehicle."}
			svc := startedService(t, service.WithOracle(oracle))

			_, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")

			Convey("Then the unparsable error carries the raw text", func() {
				var unparsable *salvage.UnparsableResponseError
				So(errors.As(err, &unparsable), ShouldBeTrue)
				So(unparsable.Raw, ShouldEqual, "I cannot identify this vehicle.")
				So(errors.Is(err, salvage.ErrUnparsable), ShouldBeTrue)
			})
		})

		Convey("When the oracle call fails", func() {
			oracle := &stubClassifier{err: errors.New("connection refused")}
			svc := startedService(t, service.WithOracle(oracle))

			_, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")

			Convey("Then the error propagates", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the record has no identity", func() {
			oracle := &stubClassifier{raw: `{"horsepower":300}`}
			svc := startedService(t, service.WithOracle(oracle))

			rec, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")

			Convey("Then the record is returned unranked", func() {
				So(err, ShouldBeNil)
				So(rec.CarSlug, ShouldBeEmpty)
				So(rec.Horsepower, ShouldNotBeNil)

				stats := svc.GetStats()
				So(stats["totalCars"], ShouldEqual, 0)
			})
		})
	})
}

func TestServiceLeaderboard(t *testing.T) {
	Convey("Given a service with classified cars", t, func() {
		ctx := context.Background()
		oracle := &stubClassifier{}
		svc := startedService(t, service.WithOracle(oracle))

		cars := []string{
			`{"make":"Koenigsegg","model":"Jesko","production_numbers":125,"horsepower":"1600 hp","zero_to_hundred":2.5,"vehicle_category":"hypercar","prestige_class":"ultra"}`,
			`{"make":"Pagani","model":"Zonda F","production_numbers":25,"horsepower":602,"zero_to_hundred":3.6,"vehicle_category":"hypercar","prestige_class":"ultra"}`,
			`{"make":"Ford","model":"Focus","production_numbers":500000,"horsepower":125,"zero_to_hundred":10.8}`,
		}
		for _, raw := range cars {
			oracle.raw = raw
			_, err := svc.Classify(ctx, "aGVsbG8=", "image/jpeg")
			So(err, ShouldBeNil)
		}

		Convey("When fetching the leaderboard", func() {
			entries, err := svc.TopN(ctx, 10)

			Convey("Then entries come back scored and ordered", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)

				So(entries[0].Rank, ShouldEqual, 1)
				for i := 1; i < len(entries); i++ {
					So(entries[i].Score, ShouldBeLessThanOrEqualTo, entries[i-1].Score)
				}

				// The commodity hatchback sits at the bottom.
				So(entries[len(entries)-1].CarSlug, ShouldEqual, "ford_focus")
			})
		})

		Convey("When fetching stats", func() {
			stats := svc.GetStats()

			Convey("Then counters reflect the garage", func() {
				So(stats["totalCars"], ShouldEqual, 3)
				So(stats["cachedRecords"], ShouldEqual, 3)
				So(stats["started"], ShouldBeTrue)
			})
		})
	})
}

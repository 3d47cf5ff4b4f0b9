package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/rarespot/rarespot/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should have default configuration", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording submissions", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the submission is new", func() {
				seen := d.SeenAndRecord(context.Background(), "spot-1")

				Convey("Then it should return false and record the submission", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the submission was already seen", func() {
				d.SeenAndRecord(context.Background(), "spot-1")

				seen := d.SeenAndRecord(context.Background(), "spot-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple submissions are recorded", func() {
				ids := []string{"spot-1", "spot-2", "spot-3", "spot-4", "spot-5"}

				for _, id := range ids {
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all submissions should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(ids)))

					for _, id := range ids {
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording submissions", func() {
			d := dedupe.NewInMemoryDeduper()

			d.SeenAndRecord(context.Background(), "spot-1")
			So(d.Size(), ShouldEqual, 1)

			d.Unrecord(context.Background(), "spot-1")

			Convey("Then the submission can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(context.Background(), "spot-1"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown ID is a no-op", func() {
				d.Unrecord(context.Background(), "never-seen")
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the deduper is bounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			for i := 1; i <= 3; i++ {
				So(d.SeenAndRecord(context.Background(), fmt.Sprintf("spot-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, 3)

			Convey("Then recording beyond the bound evicts the oldest ID", func() {
				So(d.SeenAndRecord(context.Background(), "spot-4"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)

				// spot-1 was evicted; it records as new again
				So(d.SeenAndRecord(context.Background(), "spot-1"), ShouldBeFalse)

				// spot-3 is still tracked
				So(d.SeenAndRecord(context.Background(), "spot-3"), ShouldBeTrue)
			})

			Convey("Then re-recording after Unrecord holds a single slot", func() {
				d.Unrecord(context.Background(), "spot-2")
				So(d.Size(), ShouldEqual, 2)

				// Re-record takes a fresh slot, evicting the oldest ID.
				So(d.SeenAndRecord(context.Background(), "spot-2"), ShouldBeFalse)
				So(d.SeenAndRecord(context.Background(), "spot-4"), ShouldBeFalse)

				// spot-2 must survive the next eviction; its stale slot was
				// cleared by Unrecord, so only spot-1 was pushed out.
				So(d.SeenAndRecord(context.Background(), "spot-2"), ShouldBeTrue)
				So(d.SeenAndRecord(context.Background(), "spot-3"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When accessed concurrently", func() {
			d := dedupe.NewInMemoryDeduper()

			const goroutines = 8
			const perGoroutine = 100

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("spot-%d-%d", g, i))
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every distinct ID is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}

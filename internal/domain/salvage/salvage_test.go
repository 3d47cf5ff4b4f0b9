package salvage_test

import (
	"errors"
	"testing"

	"github.com/rarespot/rarespot/internal/domain/salvage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given the salvage parser", t, func() {
		Convey("When the payload is clean JSON", func() {
			rec, err := salvage.Parse(`{"make":"Ford","model":"Focus"}`)
			So(err, ShouldBeNil)
			So(rec["make"], ShouldEqual, "Ford")
			So(rec["model"], ShouldEqual, "Focus")
		})

		Convey("When the payload is wrapped in conversational text", func() {
			rec, err := salvage.Parse(`Sure! {"make":"Ford","model":"Focus"} Hope that helps!`)
			So(err, ShouldBeNil)
			So(rec["make"], ShouldEqual, "Ford")
			So(rec["model"], ShouldEqual, "Focus")
		})

		Convey("When the payload is fenced markdown", func() {
			rec, err := salvage.Parse("```json\n{\"make\":\"Audi\"}\n```")
			So(err, ShouldBeNil)
			So(rec["make"], ShouldEqual, "Audi")
		})

		Convey("When the object contains nested braces", func() {
			rec, err := salvage.Parse(`prefix {"make":"BMW","specs":{"hp":300}} suffix`)
			So(err, ShouldBeNil)
			So(rec["make"], ShouldEqual, "BMW")
		})

		Convey("When the payload has no braces at all", func() {
			raw := "I could not identify the vehicle."
			rec, err := salvage.Parse(raw)
			So(rec, ShouldBeNil)
			So(err, ShouldNotBeNil)

			var unparsable *salvage.UnparsableResponseError
			So(errors.As(err, &unparsable), ShouldBeTrue)
			So(unparsable.Raw, ShouldEqual, raw)
			So(errors.Is(err, salvage.ErrUnparsable), ShouldBeTrue)
		})

		Convey("When the brace window is not valid JSON", func() {
			rec, err := salvage.Parse(`text { definitely not json } text`)
			So(rec, ShouldBeNil)

			var unparsable *salvage.UnparsableResponseError
			So(errors.As(err, &unparsable), ShouldBeTrue)
		})

		Convey("When braces are reversed", func() {
			rec, err := salvage.Parse(`} no object here {`)
			So(rec, ShouldBeNil)
			So(err, ShouldNotBeNil)
		})

		Convey("When the payload is empty", func() {
			rec, err := salvage.Parse("")
			So(rec, ShouldBeNil)
			So(err, ShouldNotBeNil)
		})
	})
}

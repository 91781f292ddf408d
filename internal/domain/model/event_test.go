package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/racerank/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseDate(t *testing.T) {
	convey.Convey("Given date strings in the layouts result sources use", t, func() {
		convey.Convey("When the date is already dotted", func() {
			d, err := model.ParseDate("2010.01.02")

			convey.Convey("Then it should be returned unchanged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d, convey.ShouldEqual, model.EventDate("2010.01.02"))
			})
		})

		convey.Convey("When the date uses dashes, slashes or no separator", func() {
			dash, err1 := model.ParseDate("2010-01-02")
			slash, err2 := model.ParseDate("2010/01/02")
			compact, err3 := model.ParseDate(" 20100102 ")

			convey.Convey("Then all should normalise to the dotted form", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(err3, convey.ShouldBeNil)
				convey.So(dash, convey.ShouldEqual, model.EventDate("2010.01.02"))
				convey.So(slash, convey.ShouldEqual, dash)
				convey.So(compact, convey.ShouldEqual, dash)
			})
		})

		convey.Convey("When the date is malformed", func() {
			for _, in := range []string{"", "2010.1.2", "2010-01/02", "abcd.ef.gh", "2010010"} {
				_, err := model.ParseDate(in)
				convey.So(errors.Is(err, model.ErrInvalidDate), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When comparing normalised dates", func() {
			a, _ := model.ParseDate("2009.12.31")
			b, _ := model.ParseDate("2010.01.01")

			convey.Convey("Then lexical order should be chronological", func() {
				convey.So(a.Before(b), convey.ShouldBeTrue)
				convey.So(b.Before(a), convey.ShouldBeFalse)
				convey.So(a.Before(a), convey.ShouldBeFalse)
			})
		})
	})
}

func TestIsMissingName(t *testing.T) {
	convey.Convey("Given name sentinels", t, func() {
		convey.So(model.IsMissingName(""), convey.ShouldBeTrue)
		convey.So(model.IsMissingName("NA"), convey.ShouldBeTrue)
		convey.So(model.IsMissingName(" unknown "), convey.ShouldBeTrue)
		convey.So(model.IsMissingName("UNKNOWN"), convey.ShouldBeTrue)
		convey.So(model.IsMissingName("KOWALCZYK Justyna"), convey.ShouldBeFalse)
	})
}

func TestEnumStrings(t *testing.T) {
	convey.Convey("Given shape and duplicate policy values", t, func() {
		convey.So(model.ShapePairs.String(), convey.ShouldEqual, "pairs")
		convey.So(model.ShapeOrder.String(), convey.ShouldEqual, "order")
		convey.So(model.Shape(9).String(), convey.ShouldEqual, "unknown")
		convey.So(model.MergeEvents.String(), convey.ShouldEqual, "merge")
		convey.So(model.FirstEventWins.String(), convey.ShouldEqual, "first_wins")
	})
}

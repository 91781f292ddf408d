package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/racerank/internal/domain/aggregate"
	"github.com/okian/racerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id, name string, rank int) model.ResultRow {
	return model.ResultRow{CompetitorID: id, Name: name, Rank: rank}
}

func TestAggregator_Pairs(t *testing.T) {
	Convey("Given a pair-shaped aggregator with merge policy", t, func() {
		ctx := context.Background()
		agg, err := aggregate.New()
		So(err, ShouldBeNil)

		Convey("When recording an event delivered out of rank order", func() {
			err := agg.RecordEvent(ctx, model.Event{
				Date:  "2010.01.01",
				Codex: "1001",
				Rows:  []model.ResultRow{row("C", "Carl", 3), row("A", "Anna", 1), row("B", "Bert", 2)},
			})
			So(err, ShouldBeNil)

			Convey("Then every winner/loser pair should be generated from rank order", func() {
				o, ok := agg.Outcome("2010.01.01")
				So(ok, ShouldBeTrue)
				So(o.Pairs, ShouldResemble, []model.Pair{
					{Winner: "A", Loser: "B"},
					{Winner: "A", Loser: "C"},
					{Winner: "B", Loser: "C"},
				})
				So(o.Participants, ShouldResemble, []string{"A", "B", "C"})
				So(o.Order, ShouldBeEmpty)
				So(agg.Stats().Pairs, ShouldEqual, 3)
			})
		})

		Convey("When two events share a date", func() {
			So(agg.RecordEvent(ctx, model.Event{Date: "2010.01.01", Codex: "1", Rows: []model.ResultRow{row("A", "Anna", 1), row("B", "Bert", 2)}}), ShouldBeNil)
			So(agg.RecordEvent(ctx, model.Event{Date: "2010.01.01", Codex: "2", Rows: []model.ResultRow{row("B", "Bert", 1), row("C", "Carl", 2)}}), ShouldBeNil)

			Convey("Then their pairs should be merged under one date", func() {
				o, _ := agg.Outcome("2010.01.01")
				So(o.Pairs, ShouldResemble, []model.Pair{{Winner: "A", Loser: "B"}, {Winner: "B", Loser: "C"}})
				So(o.Participants, ShouldResemble, []string{"A", "B", "C"})
				So(agg.Codices("2010.01.01"), ShouldResemble, []string{"1", "2"})
				So(agg.Dates(), ShouldResemble, []model.EventDate{"2010.01.01"})
			})
		})

		Convey("When ranks tie", func() {
			So(agg.RecordEvent(ctx, model.Event{Date: "2010.01.02", Rows: []model.ResultRow{row("X", "", 1), row("Y", "", 1)}}), ShouldBeNil)

			Convey("Then input order should break the tie", func() {
				o, _ := agg.Outcome("2010.01.02")
				So(o.Pairs, ShouldResemble, []model.Pair{{Winner: "X", Loser: "Y"}})
			})
		})

		Convey("When a single competitor races alone", func() {
			So(agg.RecordEvent(ctx, model.Event{Date: "2010.01.03", Rows: []model.ResultRow{row("S", "Solo", 1)}}), ShouldBeNil)

			Convey("Then there should be a participant but no pairs", func() {
				o, _ := agg.Outcome("2010.01.03")
				So(o.Participants, ShouldResemble, []string{"S"})
				So(o.Pairs, ShouldBeEmpty)
			})
		})

		Convey("When an id appears twice in one event", func() {
			So(agg.RecordEvent(ctx, model.Event{Date: "2010.01.04", Rows: []model.ResultRow{row("A", "", 1), row("A", "", 2), row("B", "", 3)}}), ShouldBeNil)

			Convey("Then only its first row should count", func() {
				o, _ := agg.Outcome("2010.01.04")
				So(o.Pairs, ShouldResemble, []model.Pair{{Winner: "A", Loser: "B"}})
			})
		})
	})
}

func TestAggregator_Order(t *testing.T) {
	Convey("Given an order-shaped aggregator keeping the first event of a date", t, func() {
		ctx := context.Background()
		agg, err := aggregate.New(
			aggregate.WithShape(model.ShapeOrder),
			aggregate.WithDuplicatePolicy(model.FirstEventWins),
		)
		So(err, ShouldBeNil)

		So(agg.RecordEvent(ctx, model.Event{Date: "2011.02.01", Codex: "first", Rows: []model.ResultRow{row("B", "Bert", 2), row("A", "Anna", 1)}}), ShouldBeNil)

		Convey("Then the full rank order should be kept without pairs", func() {
			o, _ := agg.Outcome("2011.02.01")
			So(o.Order, ShouldResemble, []string{"A", "B"})
			So(o.Pairs, ShouldBeEmpty)
		})

		Convey("When a second event arrives on the same date", func() {
			err := agg.RecordEvent(ctx, model.Event{Date: "2011.02.01", Codex: "second", Rows: []model.ResultRow{row("C", "Carl", 1)}})

			Convey("Then it should be rejected while its metadata is kept", func() {
				So(errors.Is(err, aggregate.ErrDuplicateEvent), ShouldBeTrue)
				o, _ := agg.Outcome("2011.02.01")
				So(o.Order, ShouldResemble, []string{"A", "B"})
				So(o.Participants, ShouldNotContain, "C")
				So(agg.Codices("2011.02.01"), ShouldResemble, []string{"first", "second"})
				So(agg.Competitors(), ShouldContain, "C")
				So(agg.Stats().Duplicates, ShouldEqual, 1)
				So(agg.Stats().Events, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an order shape with merge policy", t, func() {
		_, err := aggregate.New(aggregate.WithShape(model.ShapeOrder), aggregate.WithDuplicatePolicy(model.MergeEvents))

		Convey("Then construction should fail", func() {
			So(errors.Is(err, aggregate.ErrIncompatiblePolicy), ShouldBeTrue)
		})
	})
}

func TestAggregator_Registry(t *testing.T) {
	Convey("Given events carrying names", t, func() {
		ctx := context.Background()
		agg, _ := aggregate.New()

		So(agg.RecordEvent(ctx, model.Event{Date: "2012.01.01", Rows: []model.ResultRow{row("2", "NA", 1), row("1", "First Name", 2)}}), ShouldBeNil)
		So(agg.RecordEvent(ctx, model.Event{Date: "2012.01.02", Rows: []model.ResultRow{row("2", "Resolved", 1), row("1", "Second Name", 2)}}), ShouldBeNil)
		So(agg.RecordEvent(ctx, model.Event{Date: "2012.01.03", Rows: []model.ResultRow{row("3", "unknown", 1)}}), ShouldBeNil)

		Convey("Then the first usable name should win", func() {
			n1, _ := agg.Name("1")
			n2, _ := agg.Name("2")
			So(n1, ShouldEqual, "First Name")
			So(n2, ShouldEqual, "Resolved")
		})

		Convey("Then sentinel-only competitors should stay unresolved but registered", func() {
			_, ok := agg.Name("3")
			So(ok, ShouldBeFalse)
			So(agg.Competitors(), ShouldResemble, []string{"1", "2", "3"})
			So(agg.Names(), ShouldHaveLength, 2)
		})
	})
}

func TestAggregator_Rejections(t *testing.T) {
	Convey("Given an aggregator with a minimum date", t, func() {
		ctx := context.Background()
		agg, _ := aggregate.New(aggregate.WithMinDate("2000.00.00"))

		Convey("When the event is on the bound", func() {
			err := agg.RecordEvent(ctx, model.Event{Date: "2000.00.00", Rows: []model.ResultRow{row("A", "", 1)}})
			So(errors.Is(err, aggregate.ErrBeforeMinDate), ShouldBeTrue)
			So(agg.Stats().Filtered, ShouldEqual, 1)
		})

		Convey("When the event is after the bound", func() {
			So(agg.RecordEvent(ctx, model.Event{Date: "2000.01.01", Rows: []model.ResultRow{row("A", "", 1)}}), ShouldBeNil)
		})

		Convey("When the event has no rows or no date", func() {
			So(errors.Is(agg.RecordEvent(ctx, model.Event{Date: "2001.01.01"}), aggregate.ErrEmptyEvent), ShouldBeTrue)
			So(errors.Is(agg.RecordEvent(ctx, model.Event{}), aggregate.ErrInvalidEventDate), ShouldBeTrue)
			So(agg.Dates(), ShouldBeEmpty)
		})

		Convey("When asking for an unknown date", func() {
			_, ok := agg.Outcome("1999.01.01")
			So(ok, ShouldBeFalse)
		})
	})
}

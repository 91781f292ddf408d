package driver_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/racerank/internal/domain/aggregate"
	"github.com/okian/racerank/internal/domain/driver"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func event(date model.EventDate, ids ...string) model.Event {
	rows := make([]model.ResultRow, len(ids))
	for i, id := range ids {
		rows[i] = model.ResultRow{CompetitorID: id, Name: "name-" + id, Rank: i + 1}
	}
	return model.Event{Date: date, Codex: "c" + string(date), Rows: rows}
}

func aggregated(rule rating.Rule, events ...model.Event) *aggregate.Aggregator {
	agg, err := aggregate.New(
		aggregate.WithShape(rule.Shape()),
		aggregate.WithDuplicatePolicy(rule.DuplicatePolicy()),
	)
	So(err, ShouldBeNil)
	for _, ev := range events {
		So(agg.RecordEvent(context.Background(), ev), ShouldBeNil)
	}
	return agg
}

func TestDriver_PairwiseEndToEnd(t *testing.T) {
	Convey("Given A, B, C racing on day one and only A, B on day two", t, func() {
		ctx := context.Background()
		rule := rating.NewPairwiseLogistic(rating.WithKFactor(2))
		agg := aggregated(rule,
			event("2010.01.01", "A", "B", "C"),
			event("2010.01.02", "A", "B"),
		)
		d, err := driver.New(agg, rule)
		So(err, ShouldBeNil)
		state, _ := d.State()
		So(state, ShouldEqual, driver.StateIdle)

		res, err := d.Run(ctx)
		So(err, ShouldBeNil)

		Convey("Then day one should be rated from the default rating", func() {
			a, _ := res.Matrix.Row("A")
			b, _ := res.Matrix.Row("B")
			c, _ := res.Matrix.Row("C")
			So(a[0], ShouldAlmostEqual, 1002.0, epsilon)
			So(b[0], ShouldAlmostEqual, 1000.0, epsilon)
			So(c[0], ShouldAlmostEqual, 998.0, epsilon)

			Convey("And C should be carried forward unchanged", func() {
				So(c[1], ShouldEqual, c[0])
			})

			Convey("And day two should start from day one", func() {
				So(a[1], ShouldBeGreaterThan, a[0])
				So(b[1], ShouldBeLessThan, b[0])
				So(math.Abs((a[1]-a[0])+(b[1]-b[0])), ShouldBeLessThan, epsilon)
			})
		})

		Convey("Then participation should count rated dates", func() {
			So(res.Counts, ShouldResemble, map[string]int{"A": 2, "B": 2, "C": 1})
		})

		Convey("Then the matrix should be complete and frozen", func() {
			So(res.Matrix.Unset(), ShouldEqual, 0)
			So(res.Matrix.Frozen(), ShouldBeTrue)
			So(res.Rule, ShouldEqual, rating.NamePairwise)
			state, _ := d.State()
			So(state, ShouldEqual, driver.StateComplete)
			So(errors.Is(d.Process(ctx, "2010.01.02"), driver.ErrComplete), ShouldBeTrue)
		})
	})
}

func TestDriver_DefaultRatingInvariant(t *testing.T) {
	Convey("Given newcomers on the first date under both rules", t, func() {
		ctx := context.Background()
		for _, rule := range []rating.Rule{rating.NewPairwiseLogistic(), rating.NewFieldPercentile()} {
			agg := aggregated(rule, event("2015.06.01", "X", "Y"))
			d, err := driver.New(agg, rule)
			So(err, ShouldBeNil)

			seen := map[string]float64{}
			spy := priorSpy{Rule: rule, seen: seen}
			d2, _ := driver.New(agg, spy)
			So(d2.Process(ctx, "2015.06.01"), ShouldBeNil)

			So(seen["X"], ShouldEqual, model.DefaultRating)
			So(seen["Y"], ShouldEqual, model.DefaultRating)
			_, err = d.Run(ctx)
			So(err, ShouldBeNil)
		}
	})
}

// priorSpy records the priors a rule is handed.
type priorSpy struct {
	rating.Rule
	seen map[string]float64
}

func (s priorSpy) Apply(o model.Outcome, prior rating.PriorFunc) (map[string]float64, error) {
	return s.Rule.Apply(o, func(id string) (float64, error) {
		r, err := prior(id)
		s.seen[id] = r
		return r, err
	})
}

func TestDriver_ForwardFill(t *testing.T) {
	Convey("Given a competitor absent for several dates", t, func() {
		ctx := context.Background()
		rule := rating.NewPairwiseLogistic()
		agg := aggregated(rule,
			event("2001.01.01", "A", "Z"),
			event("2001.02.01", "A", "B"),
			event("2001.03.01", "B", "A"),
			event("2001.04.01", "Z", "B"),
		)
		d, _ := driver.New(agg, rule)
		res, err := d.Run(ctx)
		So(err, ShouldBeNil)

		Convey("Then every gap should repeat the last assigned value", func() {
			z, _ := res.Matrix.Row("Z")
			So(z[1], ShouldEqual, z[0])
			So(z[2], ShouldEqual, z[0])
			So(z[3], ShouldNotEqual, z[2])

			b, _ := res.Matrix.Row("B")
			So(b[0], ShouldEqual, model.DefaultRating)
		})

		Convey("Then forward-fill on a complete column should be rejected", func() {
			_, err := res.Matrix.FillForward("2001.02.01")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDriver_Degenerate(t *testing.T) {
	Convey("Given a field rule and a date with a single finisher", t, func() {
		ctx := context.Background()
		rule := rating.NewFieldPercentile()
		events := []model.Event{
			event("2003.01.01", "A", "B"),
			event("2003.01.02", "S"),
			event("2003.01.03", "B", "A"),
		}

		Convey("When running with the default policy", func() {
			d, _ := driver.New(aggregated(rule, events...), rule)
			res, err := d.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the date should be skipped and its column filled", func() {
				So(res.Skipped, ShouldResemble, []model.EventDate{"2003.01.02"})
				So(res.Warnings, ShouldHaveLength, 1)
				s, _ := res.Matrix.Row("S")
				So(s, ShouldResemble, []float64{1000, 1000, 1000})
				So(res.Counts["S"], ShouldEqual, 0)
				a, _ := res.Matrix.Row("A")
				So(a[1], ShouldEqual, a[0])
			})
		})

		Convey("When running with abort on degenerate", func() {
			d, _ := driver.New(aggregated(rule, events...), rule, driver.WithAbortOnDegenerate(true))
			_, err := d.Run(ctx)

			Convey("Then the run should fail with the degenerate kind", func() {
				So(errors.Is(err, rating.ErrDegenerateField), ShouldBeTrue)
			})
		})
	})
}

func TestDriver_Order(t *testing.T) {
	Convey("Given two dates processed step by step", t, func() {
		ctx := context.Background()
		rule := rating.NewPairwiseLogistic()
		agg := aggregated(rule, event("2020.01.01", "A", "B"), event("2020.01.02", "B", "A"))

		Convey("When the later date comes first in tolerant mode", func() {
			d, _ := driver.New(agg, rule)
			So(d.Process(ctx, "2020.01.02"), ShouldBeNil)
			So(d.Process(ctx, "2020.01.01"), ShouldBeNil)

			Convey("Then a warning should be kept and the pass completes", func() {
				res, err := d.Finish(ctx)
				So(err, ShouldBeNil)
				So(res.Warnings, ShouldHaveLength, 1)
				So(res.Matrix.Unset(), ShouldEqual, 0)
			})
		})

		Convey("When the later date comes first in strict mode", func() {
			d, _ := driver.New(agg, rule, driver.WithStrictOrder(true))
			So(d.Process(ctx, "2020.01.02"), ShouldBeNil)
			err := d.Process(ctx, "2020.01.01")

			Convey("Then the earlier date should be rejected", func() {
				So(errors.Is(err, driver.ErrOutOfOrder), ShouldBeTrue)
				_, ferr := d.Finish(ctx)
				So(errors.Is(ferr, driver.ErrIncomplete), ShouldBeTrue)
			})
		})

		Convey("When a date is processed twice", func() {
			d, _ := driver.New(agg, rule)
			So(d.Process(ctx, "2020.01.01"), ShouldBeNil)
			_, current := d.State()
			So(current, ShouldEqual, model.EventDate("2020.01.01"))
			So(errors.Is(d.Process(ctx, "2020.01.01"), driver.ErrDateProcessed), ShouldBeTrue)

			Convey("Then Run should pick up only the remaining date", func() {
				res, err := d.Run(ctx)
				So(err, ShouldBeNil)
				So(res.Counts["A"], ShouldEqual, 2)
			})
		})

		Convey("When asking for a date with no outcome", func() {
			d, _ := driver.New(agg, rule)
			So(errors.Is(d.Process(ctx, "2019.12.31"), driver.ErrUnknownDate), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			d, _ := driver.New(agg, rule)
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := d.Run(cctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given missing collaborators", t, func() {
		_, err := driver.New(nil, rating.NewFieldPercentile())
		So(errors.Is(err, driver.ErrNilSource), ShouldBeTrue)
		agg, _ := aggregate.New()
		_, err = driver.New(agg, nil)
		So(errors.Is(err, driver.ErrNilRule), ShouldBeTrue)
	})
}

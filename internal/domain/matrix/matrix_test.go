package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/racerank/internal/domain/matrix"
	"github.com/okian/racerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var dates = []model.EventDate{"2010.01.03", "2010.01.01", "2010.01.02"}

func TestMatrix_Build(t *testing.T) {
	Convey("Given unsorted dates and competitors", t, func() {
		m, err := matrix.New(dates, []string{"B", "A"}, model.DefaultRating)
		So(err, ShouldBeNil)

		Convey("Then the index should be sorted and every cell unset", func() {
			So(m.Dates(), ShouldResemble, []model.EventDate{"2010.01.01", "2010.01.02", "2010.01.03"})
			So(m.Competitors(), ShouldResemble, []string{"A", "B"})
			So(m.Unset(), ShouldEqual, 6)
			So(m.DefaultRating(), ShouldEqual, 1000.0)
		})
	})

	Convey("Given duplicate keys or a bad default", t, func() {
		_, err1 := matrix.New([]model.EventDate{"2010.01.01", "2010.01.01"}, []string{"A"}, 1000)
		_, err2 := matrix.New(dates, []string{"A", "A"}, 1000)
		_, err3 := matrix.New(dates, []string{"A"}, math.NaN())

		Convey("Then construction should fail", func() {
			So(errors.Is(err1, matrix.ErrDuplicateKey), ShouldBeTrue)
			So(errors.Is(err2, matrix.ErrDuplicateKey), ShouldBeTrue)
			So(errors.Is(err3, matrix.ErrInvalidRating), ShouldBeTrue)
		})
	})
}

func TestMatrix_PriorAndSet(t *testing.T) {
	Convey("Given an empty matrix", t, func() {
		m, _ := matrix.New(dates, []string{"A", "B"}, 1000)

		Convey("Then the prior on every date should be the default rating", func() {
			for _, d := range m.Dates() {
				p, err := m.Prior(d, "A")
				So(err, ShouldBeNil)
				So(p, ShouldEqual, 1000.0)
			}
		})

		Convey("When a rating is written for the first date", func() {
			So(m.Set("2010.01.01", "A", 1010), ShouldBeNil)

			Convey("Then it should be the prior of the next date but not of its own", func() {
				own, _ := m.Prior("2010.01.01", "A")
				next, _ := m.Prior("2010.01.02", "A")
				So(own, ShouldEqual, 1000.0)
				So(next, ShouldEqual, 1010.0)
			})

			Convey("Then the prior should walk back over an unfilled column", func() {
				p, _ := m.Prior("2010.01.03", "A")
				So(p, ShouldEqual, 1010.0)
			})

			Convey("Then writing the cell again should fail", func() {
				So(errors.Is(m.Set("2010.01.01", "A", 990), matrix.ErrCellAssigned), ShouldBeTrue)
				So(m.Assigned("2010.01.01", "A"), ShouldBeTrue)
				So(m.Assigned("2010.01.01", "B"), ShouldBeFalse)
			})
		})

		Convey("When writing invalid values or keys", func() {
			So(errors.Is(m.Set("2010.01.01", "A", math.Inf(1)), matrix.ErrInvalidRating), ShouldBeTrue)
			So(errors.Is(m.Set("1999.01.01", "A", 1), matrix.ErrUnknownDate), ShouldBeTrue)
			So(errors.Is(m.Set("2010.01.01", "Z", 1), matrix.ErrUnknownCompetitor), ShouldBeTrue)
			_, err := m.Prior("2010.01.01", "Z")
			So(errors.Is(err, matrix.ErrUnknownCompetitor), ShouldBeTrue)
		})
	})
}

func TestMatrix_FillForward(t *testing.T) {
	Convey("Given a rating assigned on the first date only", t, func() {
		m, _ := matrix.New(dates, []string{"A", "B"}, 1000)
		So(m.Set("2010.01.01", "A", 1020), ShouldBeNil)

		Convey("When every column is forward-filled in order", func() {
			for _, d := range m.Dates() {
				_, err := m.FillForward(d)
				So(err, ShouldBeNil)
			}

			Convey("Then the assigned rating should carry through every later column", func() {
				row, err := m.Row("A")
				So(err, ShouldBeNil)
				So(row, ShouldResemble, []float64{1020, 1020, 1020})
			})

			Convey("Then an absent competitor should hold the default everywhere", func() {
				row, _ := m.Row("B")
				So(row, ShouldResemble, []float64{1000, 1000, 1000})
				So(m.Unset(), ShouldEqual, 0)
			})

			Convey("Then Latest should return the last column", func() {
				v, _ := m.Latest("A")
				So(v, ShouldEqual, 1020.0)
			})
		})

		Convey("When the first column is filled", func() {
			filled, err := m.FillForward("2010.01.01")

			Convey("Then only unset cells should be touched", func() {
				So(err, ShouldBeNil)
				So(filled, ShouldEqual, 1)
				row, _ := m.Row("A")
				So(row[0], ShouldEqual, 1020.0)
			})
		})

		Convey("When the matrix is frozen", func() {
			m.Freeze()

			Convey("Then writes should be refused", func() {
				So(m.Frozen(), ShouldBeTrue)
				So(errors.Is(m.Set("2010.01.02", "A", 1), matrix.ErrFrozen), ShouldBeTrue)
				_, err := m.FillForward("2010.01.02")
				So(errors.Is(err, matrix.ErrFrozen), ShouldBeTrue)
			})
		})
	})
}

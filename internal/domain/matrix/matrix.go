// Package matrix holds the dense competitor x date rating table.
//
// Cell (c, d) is competitor c's rating at the end of date d, which is the
// start value for the following column. Unset cells hold NaN. Rows and
// columns are fixed when the matrix is built.
package matrix

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/racerank/internal/domain/model"
)

// Matrix is the rating table. It is owned by a single driver and is not safe
// for concurrent mutation; reads after Freeze are safe.
type Matrix struct {
	dates         []model.EventDate
	ids           []string
	dateIdx       map[model.EventDate]int
	rowIdx        map[string]int
	cells         [][]float64
	defaultRating float64
	frozen        bool
}

// New builds a matrix over dates and ids. Both are sorted ascending and must
// not contain duplicates.
func New(dates []model.EventDate, ids []string, defaultRating float64) (*Matrix, error) {
	if math.IsNaN(defaultRating) || math.IsInf(defaultRating, 0) {
		return nil, fmt.Errorf("%w: default %v", ErrInvalidRating, defaultRating)
	}

	m := &Matrix{
		dates:         append([]model.EventDate(nil), dates...),
		ids:           append([]string(nil), ids...),
		dateIdx:       make(map[model.EventDate]int, len(dates)),
		rowIdx:        make(map[string]int, len(ids)),
		defaultRating: defaultRating,
	}
	sort.Slice(m.dates, func(i, j int) bool { return m.dates[i] < m.dates[j] })
	sort.Strings(m.ids)

	for i, d := range m.dates {
		if _, dup := m.dateIdx[d]; dup {
			return nil, fmt.Errorf("%w: date %s", ErrDuplicateKey, d)
		}
		m.dateIdx[d] = i
	}
	for i, id := range m.ids {
		if _, dup := m.rowIdx[id]; dup {
			return nil, fmt.Errorf("%w: competitor %s", ErrDuplicateKey, id)
		}
		m.rowIdx[id] = i
	}

	m.cells = make([][]float64, len(m.ids))
	for r := range m.cells {
		row := make([]float64, len(m.dates))
		for c := range row {
			row[c] = math.NaN()
		}
		m.cells[r] = row
	}
	return m, nil
}

func (m *Matrix) index(date model.EventDate, id string) (int, int, error) {
	c, ok := m.dateIdx[date]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}
	r, ok := m.rowIdx[id]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownCompetitor, id)
	}
	return r, c, nil
}

// Prior returns id's rating at the start of date: the nearest assigned cell
// in an earlier column, or the default rating when none exists. For the first
// column this is always the default rating.
func (m *Matrix) Prior(date model.EventDate, id string) (float64, error) {
	r, c, err := m.index(date, id)
	if err != nil {
		return 0, err
	}
	return m.priorAt(r, c), nil
}

func (m *Matrix) priorAt(r, c int) float64 {
	row := m.cells[r]
	for k := c - 1; k >= 0; k-- {
		if !math.IsNaN(row[k]) {
			return row[k]
		}
	}
	return m.defaultRating
}

// Set writes id's end-of-date rating into date's own column. A cell is
// written at most once.
func (m *Matrix) Set(date model.EventDate, id string, rating float64) error {
	if m.frozen {
		return ErrFrozen
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return fmt.Errorf("%w: %s on %s", ErrInvalidRating, id, date)
	}
	r, c, err := m.index(date, id)
	if err != nil {
		return err
	}
	if !math.IsNaN(m.cells[r][c]) {
		return fmt.Errorf("%w: %s on %s", ErrCellAssigned, id, date)
	}
	m.cells[r][c] = rating
	return nil
}

// FillForward copies the prior rating into every unset cell of date's column
// and returns how many cells it filled.
func (m *Matrix) FillForward(date model.EventDate) (int, error) {
	if m.frozen {
		return 0, ErrFrozen
	}
	c, ok := m.dateIdx[date]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}
	filled := 0
	for r := range m.cells {
		if math.IsNaN(m.cells[r][c]) {
			m.cells[r][c] = m.priorAt(r, c)
			filled++
		}
	}
	return filled, nil
}

// Assigned reports whether the cell (date, id) holds a value.
func (m *Matrix) Assigned(date model.EventDate, id string) bool {
	r, c, err := m.index(date, id)
	if err != nil {
		return false
	}
	return !math.IsNaN(m.cells[r][c])
}

// Freeze makes the matrix read-only.
func (m *Matrix) Freeze() { m.frozen = true }

// Frozen reports whether Freeze was called.
func (m *Matrix) Frozen() bool { return m.frozen }

// Unset counts cells still holding the sentinel.
func (m *Matrix) Unset() int {
	n := 0
	for _, row := range m.cells {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Row returns a copy of id's ratings in column order.
func (m *Matrix) Row(id string) ([]float64, error) {
	r, ok := m.rowIdx[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompetitor, id)
	}
	return append([]float64(nil), m.cells[r]...), nil
}

// Latest returns id's rating in the last column, or the default rating for an
// empty matrix.
func (m *Matrix) Latest(id string) (float64, error) {
	r, ok := m.rowIdx[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCompetitor, id)
	}
	return m.priorAt(r, len(m.dates)), nil
}

// Dates returns the column keys, ascending.
func (m *Matrix) Dates() []model.EventDate {
	return append([]model.EventDate(nil), m.dates...)
}

// Competitors returns the row keys, ascending.
func (m *Matrix) Competitors() []string {
	return append([]string(nil), m.ids...)
}

// DefaultRating returns the rating assumed before any history.
func (m *Matrix) DefaultRating() float64 { return m.defaultRating }

// Package report selects frequent competitors from a completed rating matrix
// and writes the tab-separated outputs: the rating table, the date lookup and
// the id lookup.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/pkg/metrics"
)

// PlaceholderName is written for competitors whose name never resolved.
const PlaceholderName = "unknown"

// Table is the read side of a completed rating matrix.
type Table interface {
	Dates() []model.EventDate
	Competitors() []string
	Row(id string) ([]float64, error)
	Frozen() bool
}

// Row is one reported competitor.
type Row struct {
	ID      string
	Name    string
	Races   int
	Ratings []float64
}

// Report is the filtered rating table.
type Report struct {
	Dates    []model.EventDate
	Rows     []Row
	MinRaces int
	// Gaps lists reported ids written with PlaceholderName.
	Gaps []string
}

// Build keeps every competitor with at least minRaces rated dates, ordered by
// id ascending.
func Build(t Table, names map[string]string, counts map[string]int, minRaces int) (*Report, error) {
	if t == nil {
		return nil, ErrNilMatrix
	}
	if !t.Frozen() {
		return nil, ErrMatrixNotFrozen
	}
	if minRaces < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeThreshold, minRaces)
	}

	r := &Report{Dates: t.Dates(), MinRaces: minRaces}
	ids := t.Competitors()
	sort.Strings(ids)
	for _, id := range ids {
		races := counts[id]
		if races < minRaces {
			continue
		}
		ratings, err := t.Row(id)
		if err != nil {
			return nil, fmt.Errorf("read row %s: %w", id, err)
		}
		name, ok := names[id]
		if !ok || model.IsMissingName(name) {
			name = PlaceholderName
			r.Gaps = append(r.Gaps, id)
		}
		r.Rows = append(r.Rows, Row{ID: id, Name: name, Races: races, Ratings: ratings})
	}

	metrics.UpdateReportShape(len(r.Rows), len(r.Gaps))
	return r, nil
}

// WriteTSV writes the header "\tName\t<dates...>" followed by one line per row.
// Ratings are written as integers truncated toward zero.
func (r *Report) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	header := make([]string, len(r.Dates))
	for i, d := range r.Dates {
		header[i] = d.String()
	}
	if _, err := fmt.Fprintf(bw, "\tName\t%s\n", strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var line []byte
	for _, row := range r.Rows {
		line = line[:0]
		line = append(line, row.ID...)
		line = append(line, '\t')
		line = append(line, row.Name...)
		for _, v := range row.Ratings {
			line = append(line, '\t')
			line = strconv.AppendInt(line, int64(math.Trunc(v)), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write row %s: %w", row.ID, err)
		}
	}
	return bw.Flush()
}

// WriteDateCodex writes "date\tcodex1,codex2" for every date, ascending.
func WriteDateCodex(w io.Writer, dates []model.EventDate, codices map[model.EventDate][]string) error {
	sorted := append([]model.EventDate(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	bw := bufio.NewWriter(w)
	for _, d := range sorted {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", d, strings.Join(codices[d], ",")); err != nil {
			return fmt.Errorf("write date %s: %w", d, err)
		}
	}
	return bw.Flush()
}

// WriteNameLookup writes "id\tname" for every id, ascending. Unresolved names
// get PlaceholderName.
func WriteNameLookup(w io.Writer, ids []string, names map[string]string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	bw := bufio.NewWriter(w)
	for _, id := range sorted {
		name, ok := names[id]
		if !ok || model.IsMissingName(name) {
			name = PlaceholderName
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", id, name); err != nil {
			return fmt.Errorf("write id %s: %w", id, err)
		}
	}
	return bw.Flush()
}

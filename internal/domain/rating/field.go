package rating

import (
	"fmt"

	"github.com/okian/racerank/internal/domain/model"
)

// Default field percentile parameters.
const (
	DefaultPercentileScale = 10.0
	DefaultMidpoint        = 50.0
)

// FieldPercentile sets each participant to the field's mean prior plus a bonus
// proportional to how far their finishing percentile sits from the midpoint.
type FieldPercentile struct {
	scale    float64
	midpoint float64
}

// NewFieldPercentile creates the rule with scale 10 and midpoint 50.
func NewFieldPercentile(opts ...FieldOption) *FieldPercentile {
	f := &FieldPercentile{scale: DefaultPercentileScale, midpoint: DefaultMidpoint}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FieldPercentile) Name() string                           { return NameField }
func (f *FieldPercentile) Shape() model.Shape                     { return model.ShapeOrder }
func (f *FieldPercentile) DuplicatePolicy() model.DuplicatePolicy { return model.FirstEventWins }

// Percentile is 100*(n-rank)/(n-1) for rank 1..n, so the winner gets 100 and
// the last finisher 0.
func Percentile(rank, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: n=%d", ErrDegenerateField, n)
	}
	return 100 * float64(n-rank) / float64(n-1), nil
}

// Update is the rating offset from the field average for a finishing rank.
func (f *FieldPercentile) Update(rank, n int) (float64, error) {
	pct, err := Percentile(rank, n)
	if err != nil {
		return 0, err
	}
	return f.scale * (pct - f.midpoint), nil
}

// Apply rates outcome.Order. A single-participant field returns
// ErrDegenerateField; an empty one returns no ratings.
func (f *FieldPercentile) Apply(outcome model.Outcome, prior PriorFunc) (map[string]float64, error) {
	n := len(outcome.Order)
	if n == 0 {
		return map[string]float64{}, nil
	}
	if n == 1 {
		return nil, fmt.Errorf("%w: %s", ErrDegenerateField, outcome.Date)
	}

	start, err := priors(outcome.Order, prior)
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, id := range outcome.Order {
		sum += start[id]
	}
	avg := sum / float64(n)

	out := make(map[string]float64, n)
	for i, id := range outcome.Order {
		u, err := f.Update(i+1, n)
		if err != nil {
			return nil, err
		}
		out[id] = avg + u
	}
	return out, nil
}

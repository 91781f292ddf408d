// Package rating defines the contract for turning one date's outcome into new
// ratings, with a pairwise logistic (Elo-style) and a field percentile
// (Harkness-style) implementation.
package rating

import (
	"fmt"
	"strings"

	"github.com/okian/racerank/internal/domain/model"
)

// Rule names accepted by Select.
const (
	NamePairwise = "pairwise"
	NameField    = "field"
)

// PriorFunc returns a competitor's rating at the start of the outcome's date.
type PriorFunc func(id string) (float64, error)

// Rule computes post-event ratings for the participants of one date. Matrix
// placement and forward-fill belong to the caller.
type Rule interface {
	// Name identifies the rule in logs, metrics and reports.
	Name() string
	// Shape is the comparison structure the rule needs from the aggregator.
	Shape() model.Shape
	// DuplicatePolicy is how the rule wants several events on one date handled.
	DuplicatePolicy() model.DuplicatePolicy
	// Apply returns the new rating of every participant it rated.
	Apply(outcome model.Outcome, prior PriorFunc) (map[string]float64, error)
}

// Select builds a rule by name with default parameters except for K, which
// only the pairwise rule uses.
func Select(name string, k float64) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NamePairwise, "elo":
		return NewPairwiseLogistic(WithKFactor(k)), nil
	case NameField, "harkness":
		return NewFieldPercentile(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
}

// priors resolves every id once, in order.
func priors(ids []string, prior PriorFunc) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		r, err := prior(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMissingPrior, id, err)
		}
		out[id] = r
	}
	return out, nil
}

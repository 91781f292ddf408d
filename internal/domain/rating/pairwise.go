package rating

import (
	"math"
	"sort"

	"github.com/okian/racerank/internal/domain/model"
)

// Default pairwise parameters.
const (
	DefaultKFactor      = 2.0
	DefaultLogisticBase = 400.0
)

// PairwiseLogistic rates every winner/loser pair of a date with the logistic
// expectation and applies each competitor's summed delta once.
type PairwiseLogistic struct {
	k    float64
	base float64
}

// NewPairwiseLogistic creates the rule with K=2 and a 400-point base.
func NewPairwiseLogistic(opts ...PairwiseOption) *PairwiseLogistic {
	p := &PairwiseLogistic{k: DefaultKFactor, base: DefaultLogisticBase}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PairwiseLogistic) Name() string                           { return NamePairwise }
func (p *PairwiseLogistic) Shape() model.Shape                     { return model.ShapePairs }
func (p *PairwiseLogistic) DuplicatePolicy() model.DuplicatePolicy { return model.MergeEvents }

// KFactor returns the configured step size.
func (p *PairwiseLogistic) KFactor() float64 { return p.k }

// ExpectedScore is the probability that a competitor rated rw beats one rated
// rl: 10^(rw/b) / (10^(rw/b) + 10^(rl/b)), evaluated without overflow.
func ExpectedScore(rw, rl, base float64) float64 {
	return 1 / (1 + math.Pow(10, (rl-rw)/base))
}

// Apply sums 1-E(w) for each win and -E(l) for each loss, then adds K times the
// sum to the prior. Participants without pairs keep their prior.
func (p *PairwiseLogistic) Apply(outcome model.Outcome, prior PriorFunc) (map[string]float64, error) {
	ids := append([]string(nil), outcome.Participants...)
	for _, pr := range outcome.Pairs {
		ids = append(ids, pr.Winner, pr.Loser)
	}
	start, err := priors(ids, prior)
	if err != nil {
		return nil, err
	}

	// Summation order is fixed so merged dates give the same bits no matter
	// which event arrived first.
	pairs := append([]model.Pair(nil), outcome.Pairs...)
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Winner != pairs[j].Winner {
			return pairs[i].Winner < pairs[j].Winner
		}
		return pairs[i].Loser < pairs[j].Loser
	})

	sums := make(map[string]float64, len(start))
	for _, pr := range pairs {
		ew := ExpectedScore(start[pr.Winner], start[pr.Loser], p.base)
		el := 1 - ew
		sums[pr.Winner] += 1 - ew
		sums[pr.Loser] -= el
	}

	out := make(map[string]float64, len(start))
	for id, r := range start {
		out[id] = r + p.k*sums[id]
	}
	return out, nil
}

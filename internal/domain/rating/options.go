package rating

// PairwiseOption configures a PairwiseLogistic rule.
type PairwiseOption func(*PairwiseLogistic)

// WithKFactor sets the per-pair step size. Non-positive values are ignored.
func WithKFactor(k float64) PairwiseOption {
	return func(p *PairwiseLogistic) {
		if k > 0 {
			p.k = k
		}
	}
}

// WithLogisticBase sets the rating difference at which the stronger side is
// ten times as likely to win.
func WithLogisticBase(base float64) PairwiseOption {
	return func(p *PairwiseLogistic) {
		if base > 0 {
			p.base = base
		}
	}
}

// FieldOption configures a FieldPercentile rule.
type FieldOption func(*FieldPercentile)

// WithPercentileScale sets the rating points awarded per percentile point.
func WithPercentileScale(scale float64) FieldOption {
	return func(f *FieldPercentile) {
		if scale > 0 {
			f.scale = scale
		}
	}
}

// WithMidpoint sets the percentile that earns exactly the field average.
func WithMidpoint(mid float64) FieldOption {
	return func(f *FieldPercentile) {
		if mid >= 0 && mid <= 100 {
			f.midpoint = mid
		}
	}
}

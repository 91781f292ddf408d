package driver

import "github.com/okian/racerank/pkg/logger"

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithStrictOrder rejects out-of-order dates instead of warning about them.
func WithStrictOrder(strict bool) Option {
	return func(d *Driver) {
		d.strict = strict
	}
}

// WithAbortOnDegenerate makes a degenerate event fail the run. By default the
// date is skipped with a warning and its column is forward-filled.
func WithAbortOnDegenerate(abort bool) Option {
	return func(d *Driver) {
		d.abortOnDegenerate = abort
	}
}

// WithDefaultRating sets the rating of a competitor with no history.
func WithDefaultRating(r float64) Option {
	return func(d *Driver) {
		d.defaultRating = r
	}
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

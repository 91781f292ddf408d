package aggregate

import (
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithShape selects the comparison structure derived per event.
func WithShape(shape model.Shape) Option {
	return func(a *Aggregator) {
		a.shape = shape
	}
}

// WithDuplicatePolicy selects how a second event on the same date is handled.
func WithDuplicatePolicy(policy model.DuplicatePolicy) Option {
	return func(a *Aggregator) {
		a.policy = policy
	}
}

// WithMinDate drops events dated on or before date. Empty disables the filter.
func WithMinDate(date model.EventDate) Option {
	return func(a *Aggregator) {
		a.minDate = date
	}
}

// WithLogger sets the logger used for duplicate-date warnings.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

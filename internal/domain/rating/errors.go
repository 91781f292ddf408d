package rating

import "errors"

// Sentinel kinds for rating rule errors.
var (
	// ErrDegenerateField marks a field-percentile event with a single
	// participant, for which the percentile is undefined.
	ErrDegenerateField = errors.New("degenerate field: percentile undefined for one participant")
	ErrUnknownRule     = errors.New("unknown rating rule")
	ErrMissingPrior    = errors.New("prior rating unavailable")
)

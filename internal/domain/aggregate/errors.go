package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrBeforeMinDate      = errors.New("event date not after minimum date")
	ErrEmptyEvent         = errors.New("event has no result rows")
	ErrDuplicateEvent     = errors.New("date already has an event")
	ErrIncompatiblePolicy = errors.New("merge policy requires pair shape")
	ErrInvalidEventDate   = errors.New("event date is empty")
)

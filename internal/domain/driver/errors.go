package driver

import "errors"

// Sentinel kinds for temporal driver errors.
var (
	// ErrOutOfOrder is returned in strict mode when a date earlier than the
	// last processed one is delivered.
	ErrOutOfOrder    = errors.New("date delivered out of chronological order")
	ErrDateProcessed = errors.New("date already processed")
	ErrUnknownDate   = errors.New("no outcome recorded for date")
	ErrComplete      = errors.New("driver already complete")
	ErrIncomplete    = errors.New("dates left unprocessed")
	ErrNilRule       = errors.New("rating rule is nil")
	ErrNilSource     = errors.New("outcome source is nil")
)

package matrix

import "errors"

// Sentinel kinds for matrix errors.
var (
	ErrUnknownDate       = errors.New("date not in matrix index")
	ErrUnknownCompetitor = errors.New("competitor not in matrix index")
	ErrCellAssigned      = errors.New("cell already assigned")
	ErrFrozen            = errors.New("matrix is frozen")
	ErrInvalidRating     = errors.New("rating is not a finite number")
	ErrDuplicateKey      = errors.New("duplicate index key")
)

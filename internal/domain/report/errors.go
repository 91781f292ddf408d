package report

import "errors"

// Sentinel kinds for report errors.
var (
	ErrNegativeThreshold = errors.New("minimum race threshold must not be negative")
	ErrNilMatrix         = errors.New("rating matrix is nil")
	ErrMatrixNotFrozen   = errors.New("rating matrix is not complete")
)

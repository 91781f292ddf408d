package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrNoResultsDir = errors.New("results directory not found")
	ErrBadFilename  = errors.New("result file name is not <date>_<codex>")
	ErrReadFile     = errors.New("read result file")
)

package ingest

import (
	"github.com/okian/racerank/internal/domain/dedupe"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithIDLength sets the exact number of digits a competitor id must have.
// Zero or negative accepts any length.
func WithIDLength(n int) Option {
	return func(l *Loader) {
		l.idLength = n
	}
}

// WithConcurrency bounds how many files are read at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithExtension sets the result file suffix, ".tsv" by default.
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext != "" {
			l.ext = ext
		}
	}
}

// WithDeduper replaces the event identity tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(l *Loader) {
		if d != nil {
			l.deduper = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

package service

import (
	repository "github.com/okian/racerank/internal/adapters/repository"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithResultsDir sets the root of the result file tree.
func WithResultsDir(dir string) Option {
	return func(s *Service) {
		s.resultsDir = dir
	}
}

// WithOutputDir sets where the TSV outputs are written. Empty skips writing.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		s.outputDir = dir
	}
}

// WithRule selects the rating rule by name.
func WithRule(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.ruleName = name
		}
	}
}

// WithKFactor sets the pairwise K factor.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDefaultRating sets the rating of a competitor with no history.
func WithDefaultRating(r float64) Option {
	return func(s *Service) {
		s.defaultRating = r
	}
}

// WithMinRaces sets the participation threshold of the report.
func WithMinRaces(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.minRaces = n
		}
	}
}

// WithMinDate drops events on or before date.
func WithMinDate(date model.EventDate) Option {
	return func(s *Service) {
		s.minDate = date
	}
}

// WithStrictOrder rejects out-of-order dates.
func WithStrictOrder(strict bool) Option {
	return func(s *Service) {
		s.strictOrder = strict
	}
}

// WithAbortOnDegenerate fails a run on a single-finisher field event.
func WithAbortOnDegenerate(abort bool) Option {
	return func(s *Service) {
		s.abortOnDegenerate = abort
	}
}

// WithIDLength sets the exact digit count of competitor ids.
func WithIDLength(n int) Option {
	return func(s *Service) {
		s.idLength = n
	}
}

// WithLoaderConcurrency bounds parallel file reads.
func WithLoaderConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.loaderConcurrency = n
		}
	}
}

// WithHistoryDB archives every run into the SQLite file at path.
func WithHistoryDB(path string) Option {
	return func(s *Service) {
		s.historyPath = path
	}
}

// WithStore replaces the standings store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.standings = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

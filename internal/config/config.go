// Package config defines the rating run configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file, then
// RACERANK_* environment variables. Load validates the result.
package config

import (
	"runtime"

	"github.com/okian/racerank/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// ResultsDir is the root of the <date>_<codex>.tsv result tree.
	ResultsDir string `koanf:"results_dir" validate:"required"`

	// OutputDir receives ratings.tsv, date_lookup.tsv and id_lookup.tsv.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// Rule selects the rating update rule: pairwise (elo) or field (harkness).
	Rule string `koanf:"rule" validate:"oneof=pairwise field elo harkness"`

	// DefaultRating is the rating of a competitor with no history.
	DefaultRating float64 `koanf:"default_rating" validate:"finite"`

	// KFactor scales pairwise rating deltas.
	KFactor float64 `koanf:"k_factor" validate:"gt=0,finite"`

	// MinRaces is the participation threshold for the rating table.
	MinRaces int `koanf:"min_races" validate:"min=0"`

	// MinDate drops events on or before this date.
	MinDate string `koanf:"min_date" validate:"omitempty,eventdate"`

	// StrictOrder rejects out-of-order dates instead of warning.
	StrictOrder bool `koanf:"strict_order"`

	// AbortOnDegenerate fails the run on a single-finisher field event.
	AbortOnDegenerate bool `koanf:"abort_on_degenerate"`

	// IDLength is the exact digit count of a competitor id; 0 disables the check.
	IDLength int `koanf:"id_length" validate:"min=0,max=32"`

	// LoaderConcurrency bounds parallel file reads.
	LoaderConcurrency int `koanf:"loader_concurrency" validate:"min=1,max=256"`

	// HistoryDB is an optional SQLite path for archiving runs.
	HistoryDB string `koanf:"history_db"`

	// Addr enables the read API when set, e.g. ":9080".
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"min=1"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		ResultsDir:          "./results",
		OutputDir:           ".",
		Rule:                "pairwise",
		DefaultRating:       model.DefaultRating,
		KFactor:             2,
		MinRaces:            10,
		MinDate:             "2000.00.00",
		IDLength:            7,
		LoaderConcurrency:   runtime.NumCPU(),
		MaxLeaderboardLimit: 100,
		MetricsEnabled:      true,
	}
}

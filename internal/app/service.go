// Package service runs the rating pipeline (load, aggregate, rate, report)
// and serves the completed result to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/racerank/internal/adapters/historystore"
	"github.com/okian/racerank/internal/adapters/ingest"
	repository "github.com/okian/racerank/internal/adapters/repository"
	"github.com/okian/racerank/internal/domain/aggregate"
	"github.com/okian/racerank/internal/domain/driver"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/rating"
	"github.com/okian/racerank/internal/domain/report"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/logger"
)

// Output file names written to the output directory.
const (
	RatingsFile    = "ratings.tsv"
	DateLookupFile = "date_lookup.tsv"
	IDLookupFile   = "id_lookup.tsv"
)

// Summary describes one completed run.
type Summary struct {
	RunID       string            `json:"run_id"`
	Rule        string            `json:"rule"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Files       int               `json:"files"`
	Rows        int               `json:"rows"`
	Rejected    int               `json:"rows_rejected"`
	Events      int               `json:"events"`
	Duplicates  int               `json:"duplicate_events"`
	Filtered    int               `json:"filtered_events"`
	Dates       int               `json:"dates"`
	Competitors int               `json:"competitors"`
	Qualifying  int               `json:"qualifying"`
	Skipped     []model.EventDate `json:"skipped_dates,omitempty"`
	NameGaps    []string          `json:"name_gaps,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// Service owns the run configuration and the last completed result.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	// Configuration
	resultsDir        string
	outputDir         string
	ruleName          string
	kFactor           float64
	defaultRating     float64
	minRaces          int
	minDate           model.EventDate
	strictOrder       bool
	abortOnDegenerate bool
	idLength          int
	loaderConcurrency int
	historyPath       string

	// Components
	standings repository.Store
	history   *historystore.Store

	// Last completed run
	summary *Summary
	result  *driver.Result
	names   map[string]string

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		resultsDir:        "./results",
		ruleName:          rating.NamePairwise,
		kFactor:           rating.DefaultKFactor,
		defaultRating:     model.DefaultRating,
		minRaces:          10,
		idLength:          ingest.DefaultIDLength,
		loaderConcurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the stores. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.standings == nil {
		s.standings = repository.NewTreapStore()
	}
	if s.historyPath != "" {
		h, err := historystore.Open(ctx, s.historyPath, s.logger.Named("history"))
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		s.history = h
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.String("rule", s.ruleName),
		logger.String("results_dir", s.resultsDir),
		logger.Bool("history", s.history != nil),
	)
	return nil
}

// Stop releases the stores.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing history store", logger.Error(err))
		}
		s.history = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// Run executes one full rating pass and publishes its result. Only one run
// executes at a time.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	sum := &Summary{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := s.logger.Named("run")
	log.Info(ctx, "rating run starting", logger.String("run_id", sum.RunID))

	rule, err := rating.Select(s.ruleName, s.kFactor)
	if err != nil {
		return nil, err
	}
	sum.Rule = rule.Name()

	loader := ingest.NewLoader(s.resultsDir,
		ingest.WithIDLength(s.idLength),
		ingest.WithConcurrency(s.loaderConcurrency),
		ingest.WithLogger(log),
	)
	events, loadStats, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	sum.Files, sum.Rows, sum.Rejected = loadStats.Files, loadStats.Rows, loadStats.Rejected
	sum.Duplicates = loadStats.Duplicates

	agg, err := aggregate.New(
		aggregate.WithShape(rule.Shape()),
		aggregate.WithDuplicatePolicy(rule.DuplicatePolicy()),
		aggregate.WithMinDate(s.minDate),
		aggregate.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		err := agg.RecordEvent(ctx, ev)
		switch {
		case err == nil,
			errors.Is(err, aggregate.ErrBeforeMinDate),
			errors.Is(err, aggregate.ErrDuplicateEvent):
		case errors.Is(err, aggregate.ErrEmptyEvent):
			log.Debug(ctx, "event has no valid rows", logger.String("date", ev.Date.String()), logger.String("codex", ev.Codex))
		default:
			return nil, fmt.Errorf("aggregate %s %s: %w", ev.Date, ev.Codex, err)
		}
	}
	aggStats := agg.Stats()
	sum.Events, sum.Filtered = aggStats.Events, aggStats.Filtered
	sum.Duplicates += aggStats.Duplicates

	drv, err := driver.New(agg, rule,
		driver.WithDefaultRating(s.defaultRating),
		driver.WithStrictOrder(s.strictOrder),
		driver.WithAbortOnDegenerate(s.abortOnDegenerate),
		driver.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	res, err := drv.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating pass: %w", err)
	}
	sum.Dates = len(res.Matrix.Dates())
	sum.Competitors = len(res.Matrix.Competitors())
	sum.Skipped = res.Skipped
	sum.Warnings = res.Warnings

	names := agg.Names()
	rep, err := report.Build(res.Matrix, names, res.Counts, s.minRaces)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	sum.Qualifying = len(rep.Rows)
	sum.NameGaps = rep.Gaps

	if s.outputDir != "" {
		if err := s.writeOutputs(rep, agg); err != nil {
			return nil, err
		}
	}

	standings := make([]repository.Standing, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		latest := s.defaultRating
		if n := len(row.Ratings); n > 0 {
			latest = row.Ratings[n-1]
		}
		standings = append(standings, repository.Standing{
			CompetitorID: row.ID, Name: row.Name, Rating: latest, Races: row.Races,
		})
	}
	if err := s.standings.Replace(ctx, standings); err != nil {
		return nil, fmt.Errorf("publish standings: %w", err)
	}

	sum.FinishedAt = time.Now().UTC()
	if s.history != nil {
		run := historystore.Run{
			ID: sum.RunID, Rule: sum.Rule,
			StartedAt: sum.StartedAt, FinishedAt: sum.FinishedAt,
			Dates: sum.Dates, Competitors: sum.Competitors, Skipped: len(sum.Skipped),
		}
		if err := s.history.SaveRun(ctx, run, res.Matrix, names, res.Counts); err != nil {
			return nil, fmt.Errorf("archive run: %w", err)
		}
	}

	s.mu.Lock()
	s.summary, s.result, s.names = sum, res, names
	s.mu.Unlock()

	log.Info(ctx, "rating run finished",
		logger.String("run_id", sum.RunID),
		logger.Int("dates", sum.Dates),
		logger.Int("competitors", sum.Competitors),
		logger.Int("qualifying", sum.Qualifying),
		logger.Int("name_gaps", len(sum.NameGaps)),
		logger.Duration("elapsed", sum.FinishedAt.Sub(sum.StartedAt)),
	)
	return sum, nil
}

func (s *Service) writeOutputs(rep *report.Report, agg *aggregate.Aggregator) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	dates := agg.Dates()
	codices := make(map[model.EventDate][]string, len(dates))
	for _, d := range dates {
		codices[d] = agg.Codices(d)
	}

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{RatingsFile, func(f *os.File) error { return rep.WriteTSV(f) }},
		{DateLookupFile, func(f *os.File) error { return report.WriteDateCodex(f, dates, codices) }},
		{IDLookupFile, func(f *os.File) error { return report.WriteNameLookup(f, agg.Competitors(), agg.Names()) }},
	}
	for _, w := range writers {
		path := filepath.Join(s.outputDir, w.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		werr := w.write(f)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("write %s: %w", path, werr)
		}
		if cerr != nil {
			return fmt.Errorf("close %s: %w", path, cerr)
		}
	}
	return nil
}

// Summary returns the last completed run.
func (s *Service) Summary() (*Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, s.summary != nil
}

// TopN returns the top N standings of the last run.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.standings.TopN(ctx, n)
}

// Rank returns the standing of one competitor.
func (s *Service) Rank(ctx context.Context, competitorID string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	return s.standings.Rank(ctx, competitorID)
}

// History returns the full per-date rating series of one competitor from the
// last run, rated or carried forward.
func (s *Service) History(_ context.Context, competitorID string) (types.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return types.History{}, ErrNoRun
	}
	row, err := s.result.Matrix.Row(competitorID)
	if err != nil {
		return types.History{}, fmt.Errorf("%w: %s", ErrNotFound, competitorID)
	}
	dates := s.result.Matrix.Dates()
	h := types.History{
		CompetitorID: competitorID,
		Name:         s.names[competitorID],
		Races:        s.result.Counts[competitorID],
		Points:       make([]types.Point, len(row)),
	}
	for i, v := range row {
		h.Points[i] = types.Point{Date: dates[i].String(), Rating: v}
	}
	return h, nil
}

// ArchivedHistory reads a competitor's change points from the history store.
// An empty runID means the latest archived run.
func (s *Service) ArchivedHistory(ctx context.Context, runID, competitorID string) (types.History, error) {
	s.mu.RLock()
	h := s.history
	s.mu.RUnlock()
	if h == nil {
		return types.History{}, ErrNoHistoryStore
	}
	if runID == "" {
		run, err := h.LatestRun(ctx)
		if err != nil {
			return types.History{}, err
		}
		runID = run.ID
	}
	return h.History(ctx, runID, competitorID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"rule":      s.ruleName,
		"k_factor":  s.kFactor,
		"min_races": s.minRaces,
		"history":   s.history != nil,
	}
	if s.summary != nil {
		stats["last_run"] = s.summary
	}
	if s.standings != nil {
		stats["standings"] = s.standings.Count(context.Background())
	}
	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.summary == nil {
		return ErrNoRun
	}
	return nil
}

// Package driver walks aggregated outcomes in chronological order, applies a
// rating rule to each date and fills the rating matrix.
//
// A driver moves Idle -> Processing(d1) -> ... -> Processing(dn) -> Complete.
// Each date reads only end-of-previous-date values from the matrix, so a rating
// never depends on a result from the same or a later date.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/racerank/internal/domain/matrix"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/rating"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Source is the read side of the aggregator the driver needs.
type Source interface {
	Dates() []model.EventDate
	Outcome(date model.EventDate) (model.Outcome, bool)
	Competitors() []string
}

// State is the driver lifecycle position.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Result is the frozen outcome of a complete pass.
type Result struct {
	Rule     string
	Matrix   *matrix.Matrix
	Counts   map[string]int
	Skipped  []model.EventDate
	Warnings []string
}

// Driver owns the matrix for the duration of a pass. It is not safe for
// concurrent use.
type Driver struct {
	src               Source
	rule              rating.Rule
	strict            bool
	abortOnDegenerate bool
	defaultRating     float64
	logger            logger.Logger

	m         *matrix.Matrix
	state     State
	current   model.EventDate
	last      model.EventDate
	processed map[model.EventDate]struct{}
	counts    map[string]int
	skipped   []model.EventDate
	warnings  []string
}

// New builds a driver and its matrix over every date and competitor known to
// src.
func New(src Source, rule rating.Rule, opts ...Option) (*Driver, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if rule == nil {
		return nil, ErrNilRule
	}

	d := &Driver{
		src:           src,
		rule:          rule,
		defaultRating: model.DefaultRating,
		logger:        logger.Nop(),
		processed:     make(map[model.EventDate]struct{}),
		counts:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}

	m, err := matrix.New(src.Dates(), src.Competitors(), d.defaultRating)
	if err != nil {
		return nil, fmt.Errorf("build rating matrix: %w", err)
	}
	d.m = m
	metrics.UpdateRunShape(len(m.Competitors()), len(m.Dates()))
	return d, nil
}

// State returns the lifecycle position and, while processing, the date last
// handled.
func (d *Driver) State() (State, model.EventDate) {
	return d.state, d.current
}

// Matrix exposes the matrix being filled. Callers must not mutate it.
func (d *Driver) Matrix() *matrix.Matrix { return d.m }

// Process rates a single date and forward-fills its column.
func (d *Driver) Process(ctx context.Context, date model.EventDate) error {
	if d.state == StateComplete {
		return ErrComplete
	}
	if _, done := d.processed[date]; done {
		return fmt.Errorf("%w: %s", ErrDateProcessed, date)
	}
	outcome, ok := d.src.Outcome(date)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}

	if d.last != "" && date.Before(d.last) {
		if d.strict {
			return fmt.Errorf("%w: %s after %s", ErrOutOfOrder, date, d.last)
		}
		metrics.RecordOutOfOrderDate()
		d.warn(ctx, fmt.Sprintf("date %s processed after %s", date, d.last),
			logger.String("date", date.String()),
			logger.String("last", d.last.String()),
		)
	}

	start := time.Now()
	d.state = StateProcessing
	d.current = date
	d.logger.Info(ctx, "handling "+date.String()+" results",
		logger.String("rule", d.rule.Name()),
		logger.Int("participants", len(outcome.Participants)),
		logger.Int("pairs", len(outcome.Pairs)),
	)

	updated, err := d.rule.Apply(outcome, func(id string) (float64, error) {
		return d.m.Prior(date, id)
	})
	switch {
	case errors.Is(err, rating.ErrDegenerateField):
		if d.abortOnDegenerate {
			return fmt.Errorf("rate %s: %w", date, err)
		}
		metrics.RecordEventDropped(metrics.DropDegenerate)
		d.skipped = append(d.skipped, date)
		d.warn(ctx, fmt.Sprintf("date %s skipped: %v", date, err),
			logger.String("date", date.String()),
			logger.Error(err),
		)
		updated = nil
	case err != nil:
		return fmt.Errorf("rate %s: %w", date, err)
	}

	ids := make([]string, 0, len(updated))
	for id := range updated {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := d.m.Set(date, id, updated[id]); err != nil {
			return fmt.Errorf("store %s on %s: %w", id, date, err)
		}
		d.counts[id]++
	}

	filled, err := d.m.FillForward(date)
	if err != nil {
		return fmt.Errorf("forward-fill %s: %w", date, err)
	}

	d.processed[date] = struct{}{}
	if d.last == "" || d.last.Before(date) {
		d.last = date
	}

	elapsed := time.Since(start)
	metrics.RecordDateProcessed(d.rule.Name(), float64(elapsed.Microseconds())/1000)
	d.logger.Debug(ctx, "date rated",
		logger.String("date", date.String()),
		logger.Int("rated", len(ids)),
		logger.Int("carried", filled),
		logger.Duration("elapsed", elapsed),
	)
	return nil
}

// Run processes every remaining date in ascending order, then completes the
// pass. Dates already handled through Process are not repeated.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := d.run(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordRun(d.rule.Name(), outcome, time.Since(start).Seconds())
	return res, err
}

func (d *Driver) run(ctx context.Context) (*Result, error) {
	for _, date := range d.m.Dates() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rating pass interrupted before %s: %w", date, err)
		}
		if _, done := d.processed[date]; done {
			continue
		}
		if err := d.Process(ctx, date); err != nil {
			return nil, err
		}
	}
	return d.Finish(ctx)
}

// Finish freezes the matrix and returns the result. Every date must have been
// processed.
func (d *Driver) Finish(ctx context.Context) (*Result, error) {
	if d.state == StateComplete {
		return nil, ErrComplete
	}
	if left := len(d.m.Dates()) - len(d.processed); left > 0 {
		return nil, fmt.Errorf("%w: %d", ErrIncomplete, left)
	}

	d.m.Freeze()
	d.state = StateComplete
	d.logger.Info(ctx, "rating pass complete",
		logger.String("rule", d.rule.Name()),
		logger.Int("dates", len(d.processed)),
		logger.Int("competitors", len(d.m.Competitors())),
		logger.Int("skipped", len(d.skipped)),
	)

	counts := make(map[string]int, len(d.counts))
	for id, n := range d.counts {
		counts[id] = n
	}
	return &Result{
		Rule:     d.rule.Name(),
		Matrix:   d.m,
		Counts:   counts,
		Skipped:  append([]model.EventDate(nil), d.skipped...),
		Warnings: append([]string(nil), d.warnings...),
	}, nil
}

func (d *Driver) warn(ctx context.Context, msg string, fields ...logger.Field) {
	d.warnings = append(d.warnings, msg)
	d.logger.Warn(ctx, msg, fields...)
}

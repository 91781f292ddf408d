// Package aggregate groups validated event results by date and derives the
// comparison structure a rating rule consumes. It also owns the competitor
// registry (id -> display name) and the per-date codex metadata.
//
// Pair expansion is quadratic in field size: an event with n finishers yields
// n(n-1)/2 pairs. That cost is intrinsic to the pairwise model.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Stats summarises what the aggregator has accepted.
type Stats struct {
	Events      int
	Duplicates  int
	Filtered    int
	Pairs       int
	Competitors int
	Dates       int
}

// dateBucket is the mutable per-date accumulation.
type dateBucket struct {
	outcome model.Outcome
	present map[string]struct{}
}

// Aggregator accumulates events. It is not safe for concurrent use; the
// ingestion side hands it a fully collected, ordered event list.
type Aggregator struct {
	shape   model.Shape
	policy  model.DuplicatePolicy
	minDate model.EventDate
	logger  logger.Logger

	buckets map[model.EventDate]*dateBucket
	codices map[model.EventDate][]string
	names   map[string]string
	known   map[string]struct{}
	stats   Stats
}

// New creates an aggregator. The default is pair shape with merge policy.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		shape:   model.ShapePairs,
		policy:  model.MergeEvents,
		logger:  logger.Nop(),
		buckets: make(map[model.EventDate]*dateBucket),
		codices: make(map[model.EventDate][]string),
		names:   make(map[string]string),
		known:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.shape == model.ShapeOrder && a.policy == model.MergeEvents {
		return nil, fmt.Errorf("%w: shape=%s policy=%s", ErrIncompatiblePolicy, a.shape, a.policy)
	}
	return a, nil
}

// RecordEvent adds one event. Rows are stable-sorted by rank, so equal ranks
// keep their input order and the earlier row counts as the winner.
//
// A rejected event returns one of the package sentinels. For ErrDuplicateEvent
// the names and codex are still recorded for traceability.
func (a *Aggregator) RecordEvent(ctx context.Context, ev model.Event) error {
	if ev.Date == "" {
		return ErrInvalidEventDate
	}
	if a.minDate != "" && ev.Date <= a.minDate {
		a.stats.Filtered++
		metrics.RecordEventDropped(metrics.DropBeforeMinDate)
		return fmt.Errorf("%w: %s <= %s", ErrBeforeMinDate, ev.Date, a.minDate)
	}
	if len(ev.Rows) == 0 {
		metrics.RecordEventDropped(metrics.DropEmpty)
		return fmt.Errorf("%w: %s %s", ErrEmptyEvent, ev.Date, ev.Codex)
	}

	rows := make([]model.ResultRow, len(ev.Rows))
	copy(rows, ev.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })

	ids := make([]string, 0, len(rows))
	inEvent := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		a.register(r.CompetitorID, r.Name)
		if _, dup := inEvent[r.CompetitorID]; dup {
			continue
		}
		inEvent[r.CompetitorID] = struct{}{}
		ids = append(ids, r.CompetitorID)
	}

	a.codices[ev.Date] = append(a.codices[ev.Date], ev.Codex)

	b, exists := a.buckets[ev.Date]
	if exists && a.policy == model.FirstEventWins {
		a.stats.Duplicates++
		metrics.RecordEventDropped(metrics.DropDuplicateDate)
		a.logger.Warn(ctx, "multiple events on one date, keeping the first",
			logger.String("date", ev.Date.String()),
			logger.String("codex", ev.Codex),
			logger.Strings("kept", a.codices[ev.Date][:1]),
		)
		return fmt.Errorf("%w: %s codex %s", ErrDuplicateEvent, ev.Date, ev.Codex)
	}
	if !exists {
		b = &dateBucket{
			outcome: model.Outcome{Date: ev.Date},
			present: make(map[string]struct{}, len(ids)),
		}
		a.buckets[ev.Date] = b
	}

	for _, id := range ids {
		if _, ok := b.present[id]; !ok {
			b.present[id] = struct{}{}
			b.outcome.Participants = append(b.outcome.Participants, id)
		}
	}

	switch a.shape {
	case model.ShapePairs:
		pairs := expandPairs(ids)
		b.outcome.Pairs = append(b.outcome.Pairs, pairs...)
		a.stats.Pairs += len(pairs)
		metrics.RecordPairsGenerated(len(pairs))
	case model.ShapeOrder:
		b.outcome.Order = ids
	}

	a.stats.Events++
	metrics.RecordEventRecorded(a.shape.String())
	return nil
}

// expandPairs returns every (winner, loser) pair of a rank-ordered id list.
func expandPairs(ids []string) []model.Pair {
	n := len(ids)
	if n < 2 {
		return nil
	}
	pairs := make([]model.Pair, 0, n*(n-1)/2)
	for i, w := range ids {
		for _, l := range ids[i+1:] {
			pairs = append(pairs, model.Pair{Winner: w, Loser: l})
		}
	}
	return pairs
}

// register adds id to the registry and keeps the first usable name.
func (a *Aggregator) register(id, name string) {
	a.known[id] = struct{}{}
	if _, named := a.names[id]; named || model.IsMissingName(name) {
		return
	}
	a.names[id] = name
}

// Dates returns every date holding an outcome, ascending.
func (a *Aggregator) Dates() []model.EventDate {
	out := make([]model.EventDate, 0, len(a.buckets))
	for d := range a.buckets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Outcome returns a copy of the grouped results for date.
func (a *Aggregator) Outcome(date model.EventDate) (model.Outcome, bool) {
	b, ok := a.buckets[date]
	if !ok {
		return model.Outcome{}, false
	}
	o := model.Outcome{
		Date:         b.outcome.Date,
		Participants: append([]string(nil), b.outcome.Participants...),
		Pairs:        append([]model.Pair(nil), b.outcome.Pairs...),
		Order:        append([]string(nil), b.outcome.Order...),
	}
	return o, true
}

// Codices returns the codices recorded under date, in arrival order.
func (a *Aggregator) Codices(date model.EventDate) []string {
	return append([]string(nil), a.codices[date]...)
}

// Competitors returns every registered id, ascending.
func (a *Aggregator) Competitors() []string {
	out := make([]string, 0, len(a.known))
	for id := range a.known {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Name returns the resolved display name of id.
func (a *Aggregator) Name(id string) (string, bool) {
	n, ok := a.names[id]
	return n, ok
}

// Names returns a copy of the resolved names.
func (a *Aggregator) Names() map[string]string {
	out := make(map[string]string, len(a.names))
	for k, v := range a.names {
		out[k] = v
	}
	return out
}

// Shape returns the configured comparison shape.
func (a *Aggregator) Shape() model.Shape { return a.shape }

// Stats returns counters over everything recorded so far.
func (a *Aggregator) Stats() Stats {
	s := a.stats
	s.Competitors = len(a.known)
	s.Dates = len(a.buckets)
	return s
}

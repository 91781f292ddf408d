// Package ingest reads ranked result files from a directory tree and turns
// them into validated events.
//
// Files are named <date>_<codex>[_anything].tsv and hold one finisher per line:
// id, name, rank and time separated by tabs. Lines that fail validation are
// dropped and counted.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/okian/racerank/internal/domain/dedupe"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

const (
	// DefaultIDLength is the digit count of a competitor id.
	DefaultIDLength = 7
	// DefaultConcurrency is how many files are read at once.
	DefaultConcurrency = 8

	fieldsPerLine = 4
)

// record is one split line before conversion.
type record struct {
	ID   string
	Name string
	Rank string `validate:"required,number"`
	Time string
}

// Stats counts what a load saw.
type Stats struct {
	Files      int
	BadNames   int
	Duplicates int
	Rows       int
	Rejected   int
}

// Loader reads result files below a root directory.
type Loader struct {
	root        string
	ext         string
	idLength    int
	concurrency int
	deduper     dedupe.Deduper
	logger      logger.Logger
	validate    *validator.Validate
}

type source struct {
	path  string
	date  model.EventDate
	codex string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		root:        dir,
		ext:         ".tsv",
		idLength:    DefaultIDLength,
		concurrency: DefaultConcurrency,
		logger:      logger.Nop(),
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load walks the root, reads every result file and returns the events sorted
// by date then codex. The same date and codex found twice is read once. Unless
// WithDeduper is given, each call starts with an empty identity set.
func (l *Loader) Load(ctx context.Context) ([]model.Event, Stats, error) {
	var stats Stats

	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: %s", ErrNoResultsDir, l.root)
	}

	sources, err := l.discover(ctx, &stats)
	if err != nil {
		return nil, stats, err
	}

	events := make([]model.Event, len(sources))
	var rows, rejected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(src.path)
			if err != nil {
				return fmt.Errorf("%w %s: %w", ErrReadFile, src.path, err)
			}
			defer f.Close()

			parsed, bad, err := l.ParseResults(f)
			if err != nil {
				return fmt.Errorf("%w %s: %w", ErrReadFile, src.path, err)
			}
			events[i] = model.Event{Date: src.date, Codex: src.codex, Rows: parsed}
			rows.Add(int64(len(parsed)))
			rejected.Add(int64(bad))
			metrics.RecordFileRead()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	stats.Files = len(sources)
	stats.Rows = int(rows.Load())
	stats.Rejected = int(rejected.Load())
	metrics.RecordRowsRejected(stats.Rejected)

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Codex < events[j].Codex
	})

	l.logger.Info(ctx, "results loaded",
		logger.String("root", l.root),
		logger.Int("files", stats.Files),
		logger.Int("rows", stats.Rows),
		logger.Int("rejected", stats.Rejected),
		logger.Int("duplicates", stats.Duplicates),
	)
	return events, stats, nil
}

// discover lists result files in lexical path order, which makes the first
// copy of a duplicated event deterministic.
func (l *Loader) discover(ctx context.Context, stats *Stats) ([]source, error) {
	seen := l.deduper
	if seen == nil {
		seen = dedupe.NewInMemoryDeduper()
	}

	var out []source
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), l.ext) {
			return nil
		}

		date, codex, err := ParseFilename(filepath.Base(path))
		if err != nil {
			stats.BadNames++
			l.logger.Warn(ctx, "skipping result file", logger.String("path", path), logger.Error(err))
			return nil
		}
		if seen.SeenAndRecord(ctx, dedupe.Key(date.String(), codex)) {
			stats.Duplicates++
			metrics.RecordEventDropped(metrics.DropDuplicateCode)
			l.logger.Warn(ctx, "event delivered twice, keeping first copy",
				logger.String("path", path),
				logger.String("date", date.String()),
				logger.String("codex", codex),
			)
			return nil
		}
		out = append(out, source{path: path, date: date, codex: codex})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}
	return out, nil
}

// ParseFilename extracts the date and codex from "<date>_<codex>[_...].ext".
func ParseFilename(name string) (model.EventDate, string, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadFilename, name)
	}
	date, err := model.ParseDate(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %w", ErrBadFilename, name, err)
	}
	return date, parts[1], nil
}

// ParseResults reads tab-separated result lines. It returns the valid rows in
// file order and the number of lines it dropped.
func (l *Loader) ParseResults(r io.Reader) ([]model.ResultRow, int, error) {
	var (
		rows     []model.ResultRow
		rejected int
	)
	idTag := "required,number"
	if l.idLength > 0 {
		idTag += ",len=" + strconv.Itoa(l.idLength)
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := l.parseLine(line, idTag)
		if err != nil {
			rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, rejected, err
	}
	return rows, rejected, nil
}

var errFieldCount = errors.New("wrong field count")

func (l *Loader) parseLine(line, idTag string) (model.ResultRow, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldsPerLine {
		return model.ResultRow{}, errFieldCount
	}
	rec := record{ID: fields[0], Name: fields[1], Rank: fields[2], Time: fields[3]}
	if err := l.validate.Var(rec.ID, idTag); err != nil {
		return model.ResultRow{}, err
	}
	if err := l.validate.Struct(rec); err != nil {
		return model.ResultRow{}, err
	}
	rank, err := strconv.Atoi(rec.Rank)
	if err != nil {
		return model.ResultRow{}, err
	}
	return model.ResultRow{
		CompetitorID: rec.ID,
		Name:         strings.TrimSpace(rec.Name),
		Rank:         rank,
		Time:         rec.Time,
	}, nil
}

// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRating is the rating every competitor holds before their first event.
const DefaultRating = 1000.0

// ErrInvalidDate is returned when a date cannot be normalised to YYYY.MM.DD.
var ErrInvalidDate = errors.New("invalid event date")

// EventDate is a calendar key in normalised YYYY.MM.DD form. The zero-padded
// layout makes lexicographic order equal chronological order.
type EventDate string

// ParseDate normalises YYYY.MM.DD, YYYY-MM-DD, YYYY/MM/DD and YYYYMMDD into an
// EventDate. Day and month are not range checked beyond being two digits;
// sentinel dates such as 2000.00.00 are legal lower bounds.
func ParseDate(s string) (EventDate, error) {
	s = strings.TrimSpace(s)
	var y, m, d string
	switch {
	case len(s) == 8 && isDigits(s):
		y, m, d = s[:4], s[4:6], s[6:]
	case len(s) == 10 && (s[4] == '.' || s[4] == '-' || s[4] == '/') && s[7] == s[4]:
		y, m, d = s[:4], s[5:7], s[8:]
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if !isDigits(y) || !isDigits(m) || !isDigits(d) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return EventDate(y + "." + m + "." + d), nil
}

func (d EventDate) String() string { return string(d) }

// Before reports whether d is strictly earlier than o.
func (d EventDate) Before(o EventDate) bool { return d < o }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ResultRow is one validated finisher line of an event.
type ResultRow struct {
	CompetitorID string
	Name         string
	Rank         int
	Time         string
}

// Event is one race: its date, the source codex and the finisher rows.
type Event struct {
	Date  EventDate
	Codex string
	Rows  []ResultRow
}

// Pair is a single winner/loser comparison derived from an event.
type Pair struct {
	Winner string
	Loser  string
}

// Shape selects which comparison structure the aggregator derives for a rule.
type Shape int

const (
	// ShapePairs expands each event into every winner/loser pair.
	ShapePairs Shape = iota
	// ShapeOrder keeps the full rank-ordered id list.
	ShapeOrder
)

func (s Shape) String() string {
	switch s {
	case ShapePairs:
		return "pairs"
	case ShapeOrder:
		return "order"
	default:
		return "unknown"
	}
}

// DuplicatePolicy decides what happens to a second event on an already seen date.
type DuplicatePolicy int

const (
	// MergeEvents combines all events of a date into one outcome.
	MergeEvents DuplicatePolicy = iota
	// FirstEventWins keeps the first event of a date and drops the rest.
	FirstEventWins
)

func (p DuplicatePolicy) String() string {
	switch p {
	case MergeEvents:
		return "merge"
	case FirstEventWins:
		return "first_wins"
	default:
		return "unknown"
	}
}

// Outcome is the per-date input a rating rule consumes.
//
// Participants lists every competitor of the date once, in first-seen order.
// Pairs is filled for ShapePairs, Order for ShapeOrder.
type Outcome struct {
	Date         EventDate
	Participants []string
	Pairs        []Pair
	Order        []string
}

// Competitor is a registry entry.
type Competitor struct {
	ID    string
	Name  string
	Races int
}

// IsMissingName reports whether name is one of the "no name" sentinels used by
// result sources.
func IsMissingName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "na", "unknown":
		return true
	}
	return false
}

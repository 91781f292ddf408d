// Package repository holds the ranked standings of the latest completed run.
package repository

import (
	"context"

	"github.com/okian/racerank/internal/domain/types"
)

// Standing is one competitor's current position input.
type Standing struct {
	CompetitorID string
	Name         string
	Rating       float64
	Races        int
}

// Store provides read/write access to the standings.
type Store interface {
	// Replace swaps the whole standings table for entries.
	Replace(ctx context.Context, entries []Standing) error
	// Upsert sets or moves one competitor.
	Upsert(ctx context.Context, s Standing) error

	// Rank returns the competitor's rank and rating. Equal ratings share a
	// rank and the next distinct rating skips past them (1, 1, 3).
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, competitorID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc, id asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of competitors in the standings.
	Count(ctx context.Context) int
}

// Package types contains common types used across the application
package types

// Entry represents a standings entry
type Entry struct {
	Rank         int     `json:"rank"`
	CompetitorID string  `json:"competitor_id"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	Races        int     `json:"races"`
}

// Point is one column of a competitor's rating history.
type Point struct {
	Date   string  `json:"date"`
	Rating float64 `json:"rating"`
}

// History is the full dated rating history of one competitor.
type History struct {
	CompetitorID string  `json:"competitor_id"`
	Name         string  `json:"name"`
	Races        int     `json:"races"`
	Points       []Point `json:"points"`
}

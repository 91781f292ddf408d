package repository

import (
	"errors"
	"fmt"

	"github.com/okian/racerank/internal/domain/types"
)

// Sentinel kinds for standings errors.
var (
	ErrNotFound      = fmt.Errorf("competitor %w", types.ErrNotFound)
	ErrInvalidLimit  = errors.New("invalid standings limit")
	ErrInvalidRating = errors.New("rating is not a finite number")
	ErrEmptyID       = errors.New("competitor id is empty")
)

package historystore

import (
	"errors"
	"fmt"

	"github.com/okian/racerank/internal/domain/types"
)

// Sentinel kinds for history store errors.
var (
	ErrNotFound  = fmt.Errorf("history %w", types.ErrNotFound)
	ErrEmptyPath = errors.New("history store path is empty")
	ErrClosed    = errors.New("history store is closed")
)

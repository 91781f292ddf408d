package service

import (
	"fmt"

	"github.com/okian/racerank/internal/domain/types"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = fmt.Errorf("service not started: %w", types.ErrUnavailable)
	ErrNoRun          = fmt.Errorf("no completed rating run: %w", types.ErrUnavailable)
	ErrNotFound       = fmt.Errorf("competitor %w", types.ErrNotFound)
	ErrNoHistoryStore = fmt.Errorf("history store not configured: %w", types.ErrUnavailable)
)

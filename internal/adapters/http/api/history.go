package api

import (
	"context"
	"net/http"

	"github.com/okian/racerank/internal/domain/types"
)

// HistoryDependencies defines the interface for rating history lookups.
type HistoryDependencies interface {
	History(ctx context.Context, competitorID string) (types.History, error)
	ArchivedHistory(ctx context.Context, runID, competitorID string) (types.History, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history/{competitor_id} requests. With
// ?archived=1 the change points of the latest archived run are returned,
// and ?run=<id> selects a specific archived run.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/history/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	q := r.URL.Query()
	var (
		hist types.History
		err  error
	)
	if runID := q.Get("run"); runID != "" || q.Get("archived") != "" {
		hist, err = h.deps.ArchivedHistory(r.Context(), runID, id)
	} else {
		hist, err = h.deps.History(r.Context(), id)
	}
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

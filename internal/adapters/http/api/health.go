package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/racerank/internal/domain/types"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps LeaderboardDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps LeaderboardDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// HandleHealth handles GET /healthz requests. The process is healthy once it
// serves; it is ready once a rating run has completed.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	_, err := h.deps.TopN(r.Context(), 1)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: true})
	case errors.Is(err, types.ErrUnavailable), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: false})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

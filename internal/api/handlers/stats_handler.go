package handlers

import (
	"context"
	"net/http"

	"github.com/vitallink/clinic-records/backend/internal/application/services"
)

const defaultStatsDayWindow = 30

// StatsOverviewProvider defines the stats operations used by the handler.
type StatsOverviewProvider interface {
	Overview(ctx context.Context, dayLimit int) (*services.StatsOverview, error)
}

// StatsHandler handles dashboard statistics requests
type StatsHandler struct {
	stats StatsOverviewProvider
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsOverviewProvider) *StatsHandler {
	return &StatsHandler{
		stats: stats,
	}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context(), queryInt(r, "days", defaultStatsDayWindow))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, overview)
}

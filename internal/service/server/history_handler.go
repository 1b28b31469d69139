package server

import (
	"net/http"
	"strconv"

	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// HistoryHandler serves persisted status samples and reclaim passes
type HistoryHandler struct {
	repo   port.HistoryRepository
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler. repo may be nil when
// history is disabled.
func NewHistoryHandler(repo port.HistoryRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

// HandleHistory handles GET /history?limit=N
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.repo == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	samples, err := h.repo.RecentStatusSamples(limit)
	if err != nil {
		h.logger.Error("failed to load status samples", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	records, err := h.repo.RecentReclaimRecords(limit)
	if err != nil {
		h.logger.Error("failed to load reclaim records", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	if samples == nil {
		samples = []*port.StatusSample{}
	}
	if records == nil {
		records = []*port.ReclaimRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"samples":  samples,
		"reclaims": records,
	})
}

package handlers

import (
	"net/http"

	"marginApp/internal/ports"
)

// StatisticResponse is the body of GET /api/dashboard/statistic.
type StatisticResponse struct {
	OpenedPositions     int `json:"opened_positions"`
	LiquidatedPositions int `json:"liquidated_positions"`
}

// DashboardHandler serves the admin dashboard endpoints.
type DashboardHandler struct {
	stats  StatisticsProvider
	logger ports.Logger
}

func NewDashboardHandler(stats StatisticsProvider, logger ports.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, logger: logger}
}

// Statistic handles GET /api/dashboard/statistic.
func (h *DashboardHandler) Statistic(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "statistics service not configured")
		return
	}
	stat, err := h.stats.Statistic(r.Context())
	if err != nil {
		h.logError(r, err, "Failed to load dashboard statistic")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StatisticResponse{
		OpenedPositions:     stat.OpenedPositions,
		LiquidatedPositions: stat.LiquidatedPositions,
	})
}

// Liquidated handles GET /api/dashboard/liquidated.
func (h *DashboardHandler) Liquidated(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "statistics service not configured")
		return
	}
	list, err := h.stats.LiquidatedPositions(r.Context())
	if err != nil {
		h.logError(r, err, "Failed to load liquidated positions")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPositionListResponse(list))
}

func (h *DashboardHandler) logError(r *http.Request, err error, msg string) {
	if h.logger != nil {
		h.logger.Error(r.Context(), err, msg, map[string]interface{}{"path": r.URL.Path})
	}
}

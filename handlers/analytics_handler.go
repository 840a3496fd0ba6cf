package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/services/analytics"
	"github.com/promptpilot/model-router/utils"
)

// AnalyticsHandler exposes the read side of the request log.
type AnalyticsHandler struct {
	service *analytics.Service
	logger  *zap.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(service *analytics.Service, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

// Logs handles GET /analytics/logs?limit=n.
func (h *AnalyticsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = utils.WriteBadRequest(w, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs": h.service.RecentLogs(limit),
	})
}

// Metrics handles GET /analytics/metrics.
func (h *AnalyticsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, h.service.Metrics())
}

// Reset handles DELETE /analytics/metrics.
func (h *AnalyticsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.service.ResetMetrics()
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Analytics metrics reset",
	})
}

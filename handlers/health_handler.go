package handlers

import (
	"net/http"

	"github.com/promptpilot/model-router/services/catalog"
	"github.com/promptpilot/model-router/utils"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	catalog *catalog.Catalog
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(c *catalog.Catalog) *HealthHandler {
	return &HealthHandler{catalog: c}
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz. Ready means at least one model is available.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	for _, d := range h.catalog.Snapshot() {
		if d.Available {
			_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
	}
	_ = utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no models available"})
}

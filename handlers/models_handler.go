package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/catalog"
	"github.com/promptpilot/model-router/utils"
)

// ModelSummary is one row of the model inventory view.
type ModelSummary struct {
	Name        string `json:"name"`
	ModelName   string `json:"modelName"`
	Provider    string `json:"provider"`
	IsAvailable bool   `json:"isAvailable"`
	Notes       string `json:"notes"`
}

// ModelsResponse wraps the inventory list.
type ModelsResponse struct {
	Models []ModelSummary `json:"models"`
}

// ModelsAction is the admin mutation payload.
type ModelsAction struct {
	Action string `json:"action" validate:"required"`
}

// ModelsHandler serves the model inventory and the availability reset.
type ModelsHandler struct {
	catalog *catalog.Catalog
	reset   func()
	logger  *zap.Logger
}

// NewModelsHandler creates a models handler. reset is invoked for the
// {"action":"reset"} mutation.
func NewModelsHandler(c *catalog.Catalog, reset func(), logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{catalog: c, reset: reset, logger: logger}
}

// List handles GET /models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot := h.catalog.Snapshot()
	resp := ModelsResponse{Models: make([]ModelSummary, 0, len(snapshot))}
	for _, d := range snapshot {
		resp.Models = append(resp.Models, ModelSummary{
			Name:        d.Key,
			ModelName:   d.ProviderModelName,
			Provider:    string(d.Provider),
			IsAvailable: d.Available,
			Notes:       describeModel(d),
		})
	}
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

// Update handles PUT /models.
func (h *ModelsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload ModelsAction
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if payload.Action != "reset" {
		_ = utils.WriteBadRequest(w, fmt.Sprintf("unsupported action %q", payload.Action), nil)
		return
	}

	h.reset()
	h.logger.Info("model availability reset via admin endpoint")
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "All models reset to available",
	})
}

// describeModel renders a short inventory note.
func describeModel(d models.ModelDescriptor) string {
	categories := make([]string, 0, len(d.QualityPriorByCategory))
	for c := range d.QualityPriorByCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	return fmt.Sprintf("%dk context, $%.3f/M input, serves %s",
		d.ContextWindowTokens/1000, d.PriceInputPerMillion, strings.Join(categories, ", "))
}

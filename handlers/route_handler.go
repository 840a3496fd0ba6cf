package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/router"
	"github.com/promptpilot/model-router/services/routing"
	"github.com/promptpilot/model-router/utils"
)

// RouteRequestPayload is the POST /route body.
type RouteRequestPayload struct {
	Prompt         string `json:"prompt" validate:"required"`
	PriorityPreset string `json:"priorityPreset" validate:"omitempty,oneof=balanced quality cost latency"`
	UserID         string `json:"userId"`
	SessionID      string `json:"sessionId"`
}

// RouteHandler serves prompt routing requests.
type RouteHandler struct {
	service *router.Service
	logger  *zap.Logger
}

// NewRouteHandler creates a route handler.
func NewRouteHandler(service *router.Service, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{service: service, logger: logger}
}

// Route handles POST /route.
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	var payload RouteRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}
	if err := utils.ValidateStruct(payload); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			_ = utils.WriteBadRequest(w, verr.Message, verr.Details())
			return
		}
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var preset models.Preset
	if payload.PriorityPreset != "" {
		preset, _ = models.ParsePreset(payload.PriorityPreset)
	}

	resp, err := h.service.RoutePrompt(r.Context(), router.RouteRequest{
		Prompt:    payload.Prompt,
		Preset:    preset,
		UserID:    payload.UserID,
		SessionID: payload.SessionID,
	})
	if err != nil {
		h.writeRoutingError(w, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

// writeRoutingError maps service errors to HTTP responses.
func (h *RouteHandler) writeRoutingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, router.ErrEmptyPrompt):
		_ = utils.WriteBadRequest(w, err.Error(), nil)
	case errors.Is(err, routing.ErrNoCandidateModels):
		h.logger.Error("routing failed: no candidates", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "no candidate models for request", map[string]interface{}{
			"details": err.Error(),
		})
	default:
		var rfe *router.RoutingFailedError
		if errors.As(err, &rfe) {
			h.logger.Error("routing failed after fallback", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "routing failed", map[string]interface{}{
				"details": rfe.OriginalMessage,
			})
			return
		}
		h.logger.Error("unexpected routing error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "routing failed", map[string]interface{}{
			"details": err.Error(),
		})
	}
}

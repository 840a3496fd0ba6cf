package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptpilot/model-router/metrics"
	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/analytics"
	"github.com/promptpilot/model-router/services/catalog"
	"github.com/promptpilot/model-router/services/classifier"
	"github.com/promptpilot/model-router/services/providers"
	"github.com/promptpilot/model-router/services/routing"
)

const (
	// StaticFallbackKey is invoked once after the selected backend fails,
	// regardless of category.
	StaticFallbackKey = "gpt-4o-mini"

	// fallbackTemperature is used for the static fallback call.
	fallbackTemperature = 0.7

	// fallbackCostPer1K is the assumed cost of the static fallback.
	fallbackCostPer1K = 0.00015

	// truncationLimit is the response length cap in characters.
	truncationLimit = 3000
)

var (
	// ErrEmptyPrompt is returned for missing or blank prompts
	ErrEmptyPrompt = errors.New("prompt must be a non-empty string")
)

// RoutingFailedError reports that both the selected backend and the static
// fallback failed. It carries the original backend error message.
type RoutingFailedError struct {
	OriginalMessage string
}

// Error implements the error interface
func (e *RoutingFailedError) Error() string {
	return "routing failed: " + e.OriginalMessage
}

// Classifier is the classification dependency. The hybrid classifier never
// fails, but the contract allows failure so outages degrade to UNKNOWN.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (classifier.HybridResult, error)
}

// ClientResolver resolves a backend client by model key or wire name.
type ClientResolver interface {
	Resolve(name string) (providers.Client, error)
}

// Config holds router service configuration.
type Config struct {
	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration

	// DefaultPreset is applied when a request names none.
	DefaultPreset models.Preset
}

// DefaultConfig returns the default router configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		DefaultPreset:  models.PresetBalanced,
	}
}

// Service orchestrates classification, routing, backend invocation, outcome
// observation, and analytics.
type Service struct {
	config     Config
	catalog    *catalog.Catalog
	engine     *routing.Engine
	classifier Classifier
	pool       ClientResolver
	analytics  *analytics.Service
	logger     *zap.Logger
}

// NewService creates a router service.
func NewService(
	config Config,
	cat *catalog.Catalog,
	engine *routing.Engine,
	cls Classifier,
	pool ClientResolver,
	analyticsSvc *analytics.Service,
	logger *zap.Logger,
) *Service {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if config.DefaultPreset == "" {
		config.DefaultPreset = DefaultConfig().DefaultPreset
	}
	return &Service{
		config:     config,
		catalog:    cat,
		engine:     engine,
		classifier: cls,
		pool:       pool,
		analytics:  analyticsSvc,
		logger:     logger,
	}
}

// RouteRequest carries the caller's routing input.
type RouteRequest struct {
	Prompt    string
	Preset    models.Preset
	UserID    string
	SessionID string
}

// RoutePrompt runs the end-to-end pipeline for one prompt.
func (s *Service) RoutePrompt(ctx context.Context, req RouteRequest) (*models.RouterResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	preset := req.Preset
	if preset == "" {
		preset = s.config.DefaultPreset
	}

	start := time.Now()

	// Step 1: classify. A classifier outage never blocks routing.
	category, confidence, method := s.classify(ctx, req.Prompt)
	metrics.ClassificationMethod.WithLabelValues(method, string(category)).Inc()

	// Step 2: decide.
	decision, err := s.engine.Decide(models.RoutingRequest{
		Prompt:    req.Prompt,
		Category:  category,
		Preset:    preset,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.recordOutcome(req, category, confidence, method, preset, "", "", 0, 0, time.Since(start), err)
		return nil, err
	}

	profile := catalog.ProfileFor(category)
	opts := providers.GenerateOptions{
		MaxTokens:   profile.MaxOutputTokens(),
		Temperature: profile.Temperature,
		Timeout:     s.config.RequestTimeout,
	}

	// Steps 3-6: resolve and invoke the selected backend.
	gen, invokeErr := s.invoke(ctx, decision.SelectedKey, req.Prompt, opts)
	if invokeErr == nil {
		resp := s.buildResponse(req, decision, category, confidence, gen, decision.SelectedKey, start, false)
		s.recordOutcome(req, category, confidence, method, preset, decision.SelectedKey,
			string(decision.Provider), resp.ActualCostUsd, decision.Score, time.Since(start), nil)
		metrics.RoutedRequests.WithLabelValues(decision.SelectedKey, string(category), string(preset), "success").Inc()
		metrics.BackendLatency.WithLabelValues(decision.SelectedKey).Observe(gen.Latency.Seconds())
		return resp, nil
	}

	// Step 7: the selected backend failed. Mark it out and try the static
	// fallback exactly once.
	s.logger.Warn("backend invocation failed, marking unavailable",
		zap.String("model", decision.SelectedKey),
		zap.Error(invokeErr))
	if err := s.engine.MarkModelUnavailable(decision.SelectedKey); err != nil {
		s.logger.Error("failed to mark model unavailable", zap.Error(err))
	}
	s.updateUnavailableGauge()
	metrics.RoutedRequests.WithLabelValues(decision.SelectedKey, string(category), string(preset), "error").Inc()
	metrics.FallbackAttempts.Inc()

	fallbackOpts := providers.GenerateOptions{
		MaxTokens:   profile.MaxOutputTokens(),
		Temperature: fallbackTemperature,
		Timeout:     s.config.RequestTimeout,
	}
	gen, fallbackErr := s.invoke(ctx, StaticFallbackKey, req.Prompt, fallbackOpts)
	if fallbackErr != nil {
		routingErr := &RoutingFailedError{OriginalMessage: invokeErr.Error()}
		s.recordOutcome(req, category, confidence, method, preset, decision.SelectedKey,
			string(decision.Provider), 0, decision.Score, time.Since(start), routingErr)
		metrics.RoutedRequests.WithLabelValues(StaticFallbackKey, string(category), string(preset), "fallback_error").Inc()
		return nil, routingErr
	}

	resp := s.buildResponse(req, decision, category, confidence, gen, StaticFallbackKey, start, true)
	s.recordOutcome(req, category, confidence, method, preset, StaticFallbackKey,
		string(models.ProviderOpenAI), resp.ActualCostUsd, decision.Score, time.Since(start), nil)
	metrics.RoutedRequests.WithLabelValues(StaticFallbackKey, string(category), string(preset), "fallback_success").Inc()
	return resp, nil
}

// classify wraps the hybrid classifier; exceptions degrade to UNKNOWN/0.5.
func (s *Service) classify(ctx context.Context, prompt string) (models.Category, float64, string) {
	result, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		s.logger.Warn("classifier failed, defaulting to UNKNOWN", zap.Error(err))
		return models.CategoryUnknown, 0.5, "error_fallback"
	}
	return result.Category, result.Confidence, result.FinalMethod
}

// invoke resolves and calls one backend.
func (s *Service) invoke(ctx context.Context, key, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	client, err := s.pool.Resolve(key)
	if err != nil {
		return nil, err
	}
	return client.Generate(ctx, prompt, opts)
}

// buildResponse assembles the RouterResponse from a successful generation.
func (s *Service) buildResponse(
	req RouteRequest,
	decision models.RoutingDecision,
	category models.Category,
	confidence float64,
	gen *providers.Generation,
	modelUsed string,
	start time.Time,
	viaFallback bool,
) *models.RouterResponse {
	inputTokens := gen.InputTokens
	if inputTokens == 0 {
		inputTokens = providers.EstimateTokens(req.Prompt)
	}
	outputTokens := gen.OutputTokens
	if outputTokens == 0 {
		outputTokens = providers.EstimateTokens(gen.Content)
	}

	var actualCost float64
	if viaFallback {
		actualCost = float64(inputTokens+outputTokens) / 1000 * fallbackCostPer1K
	} else if d, err := s.catalog.Get(modelUsed); err == nil {
		actualCost = float64(inputTokens)/1e6*d.PriceInputPerMillion +
			float64(outputTokens)/1e6*d.PriceOutputPerMillion
	}

	text, truncated := truncateResponse(gen.Content)

	return &models.RouterResponse{
		Text:                     text,
		ModelUsed:                modelUsed,
		Category:                 category,
		ClassificationConfidence: confidence,
		Decision:                 decision,
		ActualCostUsd:            actualCost,
		ActualLatencyMs:          time.Since(start).Milliseconds(),
		CostSavingsUsd:           s.costSavings(category, actualCost),
		Timestamp:                time.Now(),
		WasTruncated:             truncated,
	}
}

// costSavings compares actual spend against the most expensive capable
// model, interpreted per 1k tokens of notional work. A reporting sentinel,
// not an optimization objective.
func (s *Service) costSavings(category models.Category, actualCost float64) float64 {
	var maxPricePerMillion float64
	for _, d := range s.catalog.Snapshot() {
		if !d.SupportsCategory(category) {
			continue
		}
		if d.PriceInputPerMillion > maxPricePerMillion {
			maxPricePerMillion = d.PriceInputPerMillion
		}
	}
	savings := maxPricePerMillion/1000 - actualCost
	if savings < 0 {
		return 0
	}
	return savings
}

// truncateResponse cuts over-long text at the last sentence or line break
// past 80% of the limit. When no such break exists the text is returned
// unchanged.
func truncateResponse(text string) (string, bool) {
	if len(text) <= truncationLimit {
		return text, false
	}
	window := text[:truncationLimit]
	cut := strings.LastIndexByte(window, '.')
	if nl := strings.LastIndexByte(window, '\n'); nl > cut {
		cut = nl
	}
	if float64(cut) > 0.8*truncationLimit {
		return text[:cut+1] + "…", true
	}
	return text, false
}

// recordOutcome appends one entry to the analytics buffer.
func (s *Service) recordOutcome(
	req RouteRequest,
	category models.Category,
	confidence float64,
	method string,
	preset models.Preset,
	selectedKey, provider string,
	costUsd float64,
	score float64,
	elapsed time.Duration,
	outcomeErr error,
) {
	entry := models.RequestLogEntry{
		ID:                       uuid.NewString(),
		Prompt:                   req.Prompt,
		Category:                 category,
		SelectedKey:              selectedKey,
		Provider:                 models.Provider(provider),
		CostUsd:                  costUsd,
		LatencyMs:                elapsed.Milliseconds(),
		QualityScore:             score,
		ClassificationMethod:     method,
		ClassificationConfidence: confidence,
		Preset:                   preset,
		Timestamp:                time.Now(),
		UserID:                   req.UserID,
		SessionID:                req.SessionID,
	}
	if outcomeErr != nil {
		entry.Error = outcomeErr.Error()
	}
	s.analytics.Record(entry)
}

// updateUnavailableGauge recounts unavailable models.
func (s *Service) updateUnavailableGauge() {
	unavailable := 0
	for _, d := range s.catalog.Snapshot() {
		if !d.Available {
			unavailable++
		}
	}
	metrics.ModelsUnavailable.Set(float64(unavailable))
}

// ResetAvailability restores every model and clears the gauge.
func (s *Service) ResetAvailability() {
	s.engine.ResetAllAvailability()
	metrics.ModelsUnavailable.Set(0)
}

// Catalog exposes the catalog for read-only admin views.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Analytics exposes the analytics service for read-only views.
func (s *Service) Analytics() *analytics.Service {
	return s.analytics
}

// HybridAdapter adapts the concrete hybrid classifier to the Classifier
// contract.
type HybridAdapter struct {
	Hybrid *classifier.HybridClassifier
}

// Classify implements Classifier; the hybrid classifier cannot fail.
func (a HybridAdapter) Classify(ctx context.Context, prompt string) (classifier.HybridResult, error) {
	return a.Hybrid.Classify(ctx, prompt), nil
}

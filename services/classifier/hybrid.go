package classifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Final methods reported by the hybrid classifier.
const (
	FinalHeuristicOnly     = "heuristic_only"
	FinalHeuristicFallback = "heuristic_fallback"
	FinalHeuristic         = "heuristic"
	FinalModel             = "model"
)

// HybridResult combines both classification passes.
type HybridResult struct {
	Result
	HeuristicResult Result  `json:"heuristicResult"`
	ModelResult     *Result `json:"modelResult,omitempty"`
	FinalMethod     string  `json:"finalMethod"`
	TotalMs         int64   `json:"totalMs"`
}

// HybridClassifier runs the heuristic first and consults the model
// classifier only when the heuristic is not confident enough.
type HybridClassifier struct {
	heuristic *HeuristicClassifier
	model     *ModelClassifier
	logger    *zap.Logger
}

// NewHybridClassifier creates a hybrid classifier.
func NewHybridClassifier(heuristic *HeuristicClassifier, model *ModelClassifier, logger *zap.Logger) *HybridClassifier {
	return &HybridClassifier{
		heuristic: heuristic,
		model:     model,
		logger:    logger,
	}
}

// Classify runs the two-stage classification. A model-classifier outage
// degrades to the heuristic result with halved confidence; it never fails
// the request.
func (h *HybridClassifier) Classify(ctx context.Context, prompt string) HybridResult {
	start := time.Now()

	heur := h.heuristic.Classify(prompt)
	if Sufficient(heur) {
		return HybridResult{
			Result:          heur,
			HeuristicResult: heur,
			FinalMethod:     FinalHeuristicOnly,
			TotalMs:         time.Since(start).Milliseconds(),
		}
	}

	modelRes, err := h.model.Classify(ctx, prompt)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("model classifier failed, degrading to heuristic", zap.Error(err))
		}
		degraded := heur
		degraded.Confidence = heur.Confidence / 2
		if degraded.Confidence < 0.1 {
			degraded.Confidence = 0.1
		}
		degraded.Reasoning = fmt.Sprintf("model classifier unavailable; %s", heur.Reasoning)
		return HybridResult{
			Result:          degraded,
			HeuristicResult: heur,
			FinalMethod:     FinalHeuristicFallback,
			TotalMs:         time.Since(start).Milliseconds(),
		}
	}

	reconciled, finalMethod := reconcile(heur, modelRes)
	return HybridResult{
		Result:          reconciled,
		HeuristicResult: heur,
		ModelResult:     &modelRes,
		FinalMethod:     finalMethod,
		TotalMs:         time.Since(start).Milliseconds(),
	}
}

// reconcile merges the heuristic and model passes.
func reconcile(heur, model Result) (Result, string) {
	if heur.Category == model.Category {
		if model.Confidence >= heur.Confidence {
			model.Reasoning = fmt.Sprintf("heuristic and model agree on %s; %s", model.Category, model.Reasoning)
			return model, FinalModel
		}
		heur.Reasoning = fmt.Sprintf("heuristic and model agree on %s; %s", heur.Category, heur.Reasoning)
		return heur, FinalHeuristic
	}

	diff := model.Confidence - heur.Confidence
	if diff > 0 {
		note := ""
		if diff > 0.2 {
			note = " (model markedly more confident)"
		}
		model.Reasoning = fmt.Sprintf("model %s overrides heuristic %s%s; %s",
			model.Category, heur.Category, note, model.Reasoning)
		return model, FinalModel
	}

	heur.Reasoning = fmt.Sprintf("heuristic %s retained over model %s; %s",
		heur.Category, model.Category, heur.Reasoning)
	return heur, FinalHeuristic
}

package routing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/catalog"
	"github.com/promptpilot/model-router/services/providers"
)

var (
	// ErrNoCandidateModels is returned when filtering leaves no model
	ErrNoCandidateModels = errors.New("no candidate models for request")
)

// premiumKeyFragments mark models that receive floor/boost treatment in
// quality-priority regimes. Kept string-based for parity with the observed
// behavior; a tier field on the descriptor would be the tunable version.
var premiumKeyFragments = []string{"claude", "gpt-5"}

// Engine produces routing decisions over a catalog snapshot.
type Engine struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewEngine creates a routing engine.
func NewEngine(c *catalog.Catalog, logger *zap.Logger) *Engine {
	return &Engine{catalog: c, logger: logger}
}

// scored pairs a descriptor with its computed score.
type scored struct {
	desc  models.ModelDescriptor
	score float64
}

// Decide filters and scores the catalog for a request and returns the full
// decision. Pure given (prompt, category, preset, catalog snapshot).
func (e *Engine) Decide(req models.RoutingRequest) (models.RoutingDecision, error) {
	snapshot := e.catalog.Snapshot()
	estimatedTokens := providers.EstimateTokens(req.Prompt)
	weights := req.Preset.Weights()

	candidates := make([]models.ModelDescriptor, 0, len(snapshot))
	for _, d := range snapshot {
		if !d.SupportsCategory(req.Category) {
			continue
		}
		if d.ContextWindowTokens < estimatedTokens {
			continue
		}
		if !d.Available {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return models.RoutingDecision{}, fmt.Errorf("%w: category=%s estimatedTokens=%d",
			ErrNoCandidateModels, req.Category, estimatedTokens)
	}

	ranked := scoreCandidates(candidates, req.Category, weights, estimatedTokens)

	top := ranked[0]
	decision := models.RoutingDecision{
		SelectedKey:        top.desc.Key,
		Provider:           top.desc.Provider,
		Category:           req.Category,
		Reasoning:          buildReasoning(top.desc, weights),
		Confidence:         decisionConfidence(ranked),
		EstimatedCostUsd:   estimateCost(top.desc, estimatedTokens, req.Category),
		EstimatedLatencyMs: top.desc.LatencyMs(),
		Score:              top.score,
		PriorityWeights:    weights,
		Alternatives:       buildAlternatives(ranked, req.Category),
	}

	for _, s := range ranked[1:] {
		if s.desc.Available {
			decision.FallbackKey = s.desc.Key
			break
		}
	}

	if e.logger != nil {
		e.logger.Debug("routing decision",
			zap.String("selected", decision.SelectedKey),
			zap.String("category", string(req.Category)),
			zap.String("preset", string(req.Preset)),
			zap.Float64("score", decision.Score),
			zap.Float64("confidence", decision.Confidence))
	}
	return decision, nil
}

// MarkModelUnavailable flips a model's availability off.
func (e *Engine) MarkModelUnavailable(key string) error {
	return e.catalog.MarkUnavailable(key)
}

// ResetAllAvailability restores every model's availability.
func (e *Engine) ResetAllAvailability() {
	e.catalog.ResetAll()
}

// scoreCandidates computes the preset-weighted score of every candidate and
// sorts descending, stable in registry order.
func scoreCandidates(candidates []models.ModelDescriptor, category models.Category, w models.PriorityWeights, estimatedTokens int) []scored {
	maxCost, minCost := candidates[0].PriceInputPerMillion, candidates[0].PriceInputPerMillion
	maxLatencyMs := candidates[0].LatencyMs()
	maxThroughput := candidates[0].ThroughputTPS()
	for _, d := range candidates[1:] {
		maxCost = math.Max(maxCost, d.PriceInputPerMillion)
		minCost = math.Min(minCost, d.PriceInputPerMillion)
		maxLatencyMs = math.Max(maxLatencyMs, d.LatencyMs())
		maxThroughput = math.Max(maxThroughput, d.ThroughputTPS())
	}

	ranked := make([]scored, 0, len(candidates))
	for _, d := range candidates {
		score := qualityContribution(d, category, w) +
			costContribution(d, w, minCost, maxCost) +
			latencyContribution(d, w, maxLatencyMs) +
			contextBonus(d, estimatedTokens) +
			throughputBonus(d, maxThroughput)
		ranked = append(ranked, scored{desc: d, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// qualityContribution amplifies high priors in quality-heavy regimes.
func qualityContribution(d models.ModelDescriptor, category models.Category, w models.PriorityWeights) float64 {
	q := d.QualityPrior(category)
	if w.Quality > 0.5 {
		amplified := math.Pow(q, 0.3)
		if q > 0.9 {
			amplified += 0.1
		}
		return amplified * w.Quality
	}
	return q * w.Quality
}

// costContribution scores input price against the candidate pool.
func costContribution(d models.ModelDescriptor, w models.PriorityWeights, minCost, maxCost float64) float64 {
	price := d.PriceInputPerMillion

	var costScore float64
	switch {
	case maxCost == 0:
		costScore = 0.5
	case w.Cost > 0.4:
		// Cost-priority regime: linear spread.
		costScore = 1 - price/maxCost
	default:
		if price == 0 {
			costScore = 0.6
		} else {
			var n float64
			if maxCost > minCost {
				n = (price - minCost) / (maxCost - minCost)
			}
			costScore = 1 - math.Log(1+2*n)/math.Log(3)
		}
		if w.Quality > 0.6 {
			floor := 0.4
			if isPremiumKey(d.Key) {
				floor = 0.6
			}
			costScore = math.Max(costScore, floor)
		}
	}
	return costScore * w.Cost
}

// latencyContribution normalizes against the slowest candidate; premium
// models get a square-root lift in quality-heavy regimes.
func latencyContribution(d models.ModelDescriptor, w models.PriorityWeights, maxLatencyMs float64) float64 {
	latScore := 1 - d.LatencyMs()/maxLatencyMs
	if w.Quality > 0.6 && isPremiumKey(d.Key) {
		latScore = math.Sqrt(latScore)
	}
	return latScore * w.Latency
}

// contextBonus rewards headroom on large prompts.
func contextBonus(d models.ModelDescriptor, estimatedTokens int) float64 {
	if estimatedTokens <= 1000 {
		return 0
	}
	return math.Min(0.1, float64(d.ContextWindowTokens-estimatedTokens)/10000)
}

// throughputBonus rewards fast token emission relative to the pool.
func throughputBonus(d models.ModelDescriptor, maxThroughput float64) float64 {
	if maxThroughput == 0 {
		return 0
	}
	return 0.05 * d.ThroughputTPS() / maxThroughput
}

func isPremiumKey(key string) bool {
	for _, fragment := range premiumKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// decisionConfidence derives confidence from the score gap between the top
// two candidates.
func decisionConfidence(ranked []scored) float64 {
	if len(ranked) == 1 {
		return 1.0
	}
	top, runnerUp := ranked[0].score, ranked[1].score
	if runnerUp == 0 {
		return 1.0
	}
	confidence := 0.5 + 0.5*(top-runnerUp)/math.Max(top, runnerUp)
	return math.Max(0, math.Min(1, confidence))
}

// estimateCost projects the request cost from the category's expected
// output size.
func estimateCost(d models.ModelDescriptor, estimatedTokens int, category models.Category) float64 {
	outputTokens := catalog.ProfileFor(category).EstimatedOutputTokens
	return float64(estimatedTokens)/1e6*d.PriceInputPerMillion +
		float64(outputTokens)/1e6*d.PriceOutputPerMillion
}

// buildReasoning concatenates the dominant-priority justification, a
// context-window remark, and the throughput figure.
func buildReasoning(d models.ModelDescriptor, w models.PriorityWeights) string {
	var sb strings.Builder

	switch {
	case w.Quality > w.Cost && w.Quality > w.Latency:
		sb.WriteString("prioritized for response quality")
	case w.Cost > w.Quality && w.Cost > w.Latency:
		sb.WriteString("prioritized for low cost")
	case w.Latency > w.Quality && w.Latency > w.Cost:
		sb.WriteString("prioritized for low latency")
	default:
		sb.WriteString("balanced performance")
	}

	if d.ContextWindowTokens > 100000 {
		fmt.Fprintf(&sb, "; large %dk-token context window", d.ContextWindowTokens/1000)
	}
	fmt.Fprintf(&sb, "; ~%.0f tokens/s", d.ThroughputTPS())
	return sb.String()
}

// buildAlternatives annotates up to four available models ranked after the
// selected one.
func buildAlternatives(ranked []scored, category models.Category) []models.Alternative {
	selected := ranked[0].desc
	alternatives := make([]models.Alternative, 0, 4)
	for _, s := range ranked[1:] {
		if len(alternatives) == 4 {
			break
		}
		if !s.desc.Available {
			continue
		}
		alternatives = append(alternatives, models.Alternative{
			Key:             s.desc.Key,
			Score:           s.score,
			Reason:          alternativeReason(s.desc, selected, category),
			Provider:        s.desc.Provider,
			QualityScore:    s.desc.QualityPrior(category),
			CostPer1KTokens: s.desc.PriceInputPer1K(),
			LatencyMs:       s.desc.LatencyMs(),
		})
	}
	return alternatives
}

// alternativeReason compares an alternative against the selected model.
func alternativeReason(alt, selected models.ModelDescriptor, category models.Category) string {
	var parts []string

	altQ, selQ := alt.QualityPrior(category), selected.QualityPrior(category)
	switch {
	case altQ > selQ:
		parts = append(parts, "higher quality prior")
	case altQ < selQ:
		parts = append(parts, "lower quality prior")
	}

	switch {
	case alt.PriceInputPerMillion < selected.PriceInputPerMillion:
		parts = append(parts, "cheaper input tokens")
	case alt.PriceInputPerMillion > selected.PriceInputPerMillion:
		parts = append(parts, "pricier input tokens")
	}

	switch {
	case alt.LatencyMs() < selected.LatencyMs():
		parts = append(parts, "faster")
	case alt.LatencyMs() > selected.LatencyMs():
		parts = append(parts, "slower")
	}

	if alt.ContextWindowTokens > selected.ContextWindowTokens {
		parts = append(parts, "larger context window")
	}

	if len(parts) == 0 {
		return "comparable profile"
	}
	return strings.Join(parts, ", ")
}

package models

import (
	"math"
	"time"
)

// Category is a semantic label for a prompt, drawn from a fixed closed set.
type Category string

const (
	CategoryCode          Category = "CODE"
	CategorySummarize     Category = "SUMMARIZE"
	CategoryQA            Category = "QA"
	CategoryCreative      Category = "CREATIVE"
	CategoryMathReasoning Category = "MATH_REASONING"
	CategoryUnknown       Category = "UNKNOWN"
)

// Categories lists all categories in their canonical iteration order.
// Scoring and tie-breaking depend on this order being stable.
var Categories = []Category{
	CategoryCode,
	CategorySummarize,
	CategoryQA,
	CategoryCreative,
	CategoryMathReasoning,
	CategoryUnknown,
}

// ParseCategory maps a string to a Category (case-sensitive on the canonical
// form). Unknown strings map to CategoryUnknown.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryUnknown
}

// Provider identifies the remote LLM vendor behind a model.
type Provider string

const (
	ProviderOpenAI      Provider = "OPENAI"
	ProviderAnthropic   Provider = "ANTHROPIC"
	ProviderGoogle      Provider = "GOOGLE"
	ProviderHuggingFace Provider = "HUGGINGFACE"
)

// Preset is a named priority profile for routing decisions.
type Preset string

const (
	PresetBalanced Preset = "balanced"
	PresetQuality  Preset = "quality"
	PresetCost     Preset = "cost"
	PresetLatency  Preset = "latency"
)

// ParsePreset maps a string to a Preset. The boolean reports whether the
// input named a known preset.
func ParsePreset(s string) (Preset, bool) {
	switch Preset(s) {
	case PresetBalanced, PresetQuality, PresetCost, PresetLatency:
		return Preset(s), true
	}
	return PresetBalanced, false
}

// PriorityWeights is a triple of non-negative reals summing to 1.0.
type PriorityWeights struct {
	Quality float64 `json:"quality"`
	Cost    float64 `json:"cost"`
	Latency float64 `json:"latency"`
}

// presetWeights holds the fixed weight triple for each preset.
var presetWeights = map[Preset]PriorityWeights{
	PresetBalanced: {Quality: 0.45, Cost: 0.30, Latency: 0.25},
	PresetQuality:  {Quality: 0.65, Cost: 0.15, Latency: 0.20},
	PresetCost:     {Quality: 0.30, Cost: 0.50, Latency: 0.20},
	PresetLatency:  {Quality: 0.30, Cost: 0.20, Latency: 0.50},
}

// Weights returns the fixed priority weights for a preset. Unknown presets
// fall back to the balanced triple.
func (p Preset) Weights() PriorityWeights {
	if w, ok := presetWeights[p]; ok {
		return w
	}
	return presetWeights[PresetBalanced]
}

// ModelDescriptor describes one routable model. All fields except Available
// are immutable after catalog construction.
type ModelDescriptor struct {
	// Key is the stable identifier used throughout the router.
	Key string `json:"key"`

	// ProviderModelName is the wire-level model name; may differ from Key.
	ProviderModelName string `json:"providerModelName"`

	// Provider is the vendor that serves this model.
	Provider Provider `json:"provider"`

	// ContextWindowTokens is the maximum prompt size in tokens.
	ContextWindowTokens int `json:"contextWindowTokens"`

	// PriceInputPerMillion / PriceOutputPerMillion are USD per 1M tokens.
	PriceInputPerMillion  float64 `json:"priceInputPerMillion"`
	PriceOutputPerMillion float64 `json:"priceOutputPerMillion"`

	// LatencyP50Seconds is the median end-to-end latency prior.
	LatencyP50Seconds float64 `json:"latencyP50Seconds"`

	// QualityPriorByCategory is a per-category belief about quality in
	// [0,1]. A category absent from the map both excludes the model from
	// that category's candidate pool and defaults to 0.5 when read.
	QualityPriorByCategory map[Category]float64 `json:"qualityPriorByCategory"`

	// Available is the only mutable field; flipped by the catalog.
	Available bool `json:"available"`
}

// QualityPrior returns the prior for a category, defaulting to 0.5.
func (d *ModelDescriptor) QualityPrior(c Category) float64 {
	if q, ok := d.QualityPriorByCategory[c]; ok {
		return q
	}
	return 0.5
}

// SupportsCategory reports whether the model carries a prior for a category.
func (d *ModelDescriptor) SupportsCategory(c Category) bool {
	_, ok := d.QualityPriorByCategory[c]
	return ok
}

// LatencyMs is the latency prior in milliseconds.
func (d *ModelDescriptor) LatencyMs() float64 {
	return d.LatencyP50Seconds * 1000
}

// ThroughputTPS is a rough tokens-per-second figure derived from latency.
func (d *ModelDescriptor) ThroughputTPS() float64 {
	return math.Round(1000 / d.LatencyP50Seconds)
}

// PriceInputPer1K is the input price per 1000 tokens.
func (d *ModelDescriptor) PriceInputPer1K() float64 {
	return d.PriceInputPerMillion / 1000
}

// PriceOutputPer1K is the output price per 1000 tokens.
func (d *ModelDescriptor) PriceOutputPer1K() float64 {
	return d.PriceOutputPerMillion / 1000
}

// CategoryProfile holds the read-only generation defaults for a category.
type CategoryProfile struct {
	EstimatedOutputTokens int
	Temperature           float64
	Keywords              []string
	Examples              []string
}

// MaxOutputTokens derives the per-request output cap from the estimate,
// always granting at least 1500 tokens.
func (p CategoryProfile) MaxOutputTokens() int {
	n := 2 * p.EstimatedOutputTokens
	if n < 1500 {
		return 1500
	}
	return n
}

// RoutingRequest is the input to a routing decision.
type RoutingRequest struct {
	Prompt    string   `json:"prompt"`
	Category  Category `json:"category"`
	Preset    Preset   `json:"preset"`
	UserID    string   `json:"userId,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// Alternative is a ranked non-selected candidate.
type Alternative struct {
	Key             string   `json:"key"`
	Score           float64  `json:"score"`
	Reason          string   `json:"reason"`
	Provider        Provider `json:"provider"`
	QualityScore    float64  `json:"qualityScore"`
	CostPer1KTokens float64  `json:"costPer1kTokens"`
	LatencyMs       float64  `json:"latencyMs"`
}

// RoutingDecision is the full output of the routing engine.
type RoutingDecision struct {
	SelectedKey        string          `json:"selectedKey"`
	Provider           Provider        `json:"provider"`
	Category           Category        `json:"category"`
	FallbackKey        string          `json:"fallbackKey,omitempty"`
	Reasoning          string          `json:"reasoning"`
	Confidence         float64         `json:"confidence"`
	EstimatedCostUsd   float64         `json:"estimatedCostUsd"`
	EstimatedLatencyMs float64         `json:"estimatedLatencyMs"`
	Score              float64         `json:"score"`
	PriorityWeights    PriorityWeights `json:"priorityWeights"`
	Alternatives       []Alternative   `json:"alternatives"`
}

// RouterResponse is what the router service returns to the caller.
type RouterResponse struct {
	Text                     string          `json:"text"`
	ModelUsed                string          `json:"modelUsed"`
	Category                 Category        `json:"category"`
	ClassificationConfidence float64         `json:"classificationConfidence"`
	Decision                 RoutingDecision `json:"decision"`
	ActualCostUsd            float64         `json:"actualCostUsd"`
	ActualLatencyMs          int64           `json:"actualLatencyMs"`
	CostSavingsUsd           float64         `json:"costSavingsUsd"`
	Timestamp                time.Time       `json:"timestamp"`
	WasTruncated             bool            `json:"wasTruncated"`
}

// RequestLogEntry is one analytics record in the in-memory ring buffer.
type RequestLogEntry struct {
	ID                       string    `json:"id"`
	Prompt                   string    `json:"prompt"`
	Category                 Category  `json:"category"`
	SelectedKey              string    `json:"selectedKey"`
	Provider                 Provider  `json:"provider"`
	CostUsd                  float64   `json:"costUsd"`
	LatencyMs                int64     `json:"latencyMs"`
	QualityScore             float64   `json:"qualityScore"`
	ClassificationMethod     string    `json:"classificationMethod"`
	ClassificationConfidence float64   `json:"classificationConfidence"`
	Preset                   Preset    `json:"preset"`
	Timestamp                time.Time `json:"timestamp"`
	UserID                   string    `json:"userId,omitempty"`
	SessionID                string    `json:"sessionId,omitempty"`
	Error                    string    `json:"error,omitempty"`
}

package classifier

import (
	"fmt"
	"strings"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/catalog"
)

// HeuristicThreshold is the confidence at or above which the heuristic
// result is considered sufficient and the model classifier is skipped.
const HeuristicThreshold = 0.7

// heuristicMaxConfidence caps heuristic confidence; keyword overlap alone
// never reaches full certainty.
const heuristicMaxConfidence = 0.9

// Result is the outcome of a single classification pass.
type Result struct {
	Category        models.Category `json:"category"`
	Confidence      float64         `json:"confidence"`
	Method          string          `json:"method"`
	MatchedKeywords []string        `json:"matchedKeywords,omitempty"`
	Reasoning       string          `json:"reasoning"`
	ModelUsed       string          `json:"modelUsed,omitempty"`
	LatencyMs       int64           `json:"latencyMs,omitempty"`
	RawResponse     string          `json:"rawResponse,omitempty"`
}

// HeuristicClassifier scores keyword overlap per category.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates a heuristic classifier over the built-in
// category keyword lists.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify assigns a category by keyword overlap. It is pure: identical
// prompts yield identical results.
func (h *HeuristicClassifier) Classify(prompt string) Result {
	lowered := strings.ToLower(prompt)

	type catScore struct {
		category models.Category
		raw      float64
		matched  []string
	}

	scores := make([]catScore, 0, len(models.Categories)-1)
	for _, cat := range models.Categories {
		if cat == models.CategoryUnknown {
			continue
		}
		keywords := catalog.ProfileFor(cat).Keywords
		var matched []string
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				matched = append(matched, kw)
			}
		}

		var matchRatio float64
		if len(keywords) > 0 {
			matchRatio = float64(len(matched)) / float64(len(keywords))
		}
		exactBonus := 0.1 * float64(len(matched))
		raw := matchRatio + exactBonus
		if raw > 1.0 {
			raw = 1.0
		}
		scores = append(scores, catScore{category: cat, raw: raw, matched: matched})
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.raw > best.raw {
			best = s
		}
	}

	if best.raw == 0 {
		return Result{
			Category:   models.CategoryUnknown,
			Confidence: 0.1,
			Method:     "heuristic",
			Reasoning:  "no category keywords matched",
		}
	}

	runnerUp := 0.0
	for _, s := range scores {
		if s.category != best.category && s.raw > runnerUp {
			runnerUp = s.raw
		}
	}

	confidence := best.raw
	gap := best.raw - runnerUp
	if gap > 0.3 {
		confidence += 0.2
	}
	if gap > 0.5 {
		confidence += 0.1
	}
	if confidence > heuristicMaxConfidence {
		confidence = heuristicMaxConfidence
	}
	if confidence < 0 {
		confidence = 0
	}

	return Result{
		Category:        best.category,
		Confidence:      confidence,
		Method:          "heuristic",
		MatchedKeywords: best.matched,
		Reasoning: fmt.Sprintf("matched %d/%d keywords for %s (gap %.2f to runner-up)",
			len(best.matched), len(catalog.ProfileFor(best.category).Keywords), best.category, gap),
	}
}

// Sufficient reports whether a heuristic result clears the threshold.
func Sufficient(r Result) bool {
	return r.Confidence >= HeuristicThreshold
}

package routing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/catalog"
)

func newTestEngine(t *testing.T) (*Engine, *catalog.Catalog) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	c := catalog.NewDefault(logger)
	return NewEngine(c, logger), c
}

func decide(t *testing.T, e *Engine, prompt string, cat models.Category, preset models.Preset) models.RoutingDecision {
	t.Helper()
	d, err := e.Decide(models.RoutingRequest{Prompt: prompt, Category: cat, Preset: preset})
	require.NoError(t, err)
	return d
}

func TestDecide_BalancedCodePrefersSonnet(t *testing.T) {
	e, c := newTestEngine(t)

	d := decide(t, e, "Write a Python function to sort a list", models.CategoryCode, models.PresetBalanced)
	assert.Equal(t, "claude-3-7-sonnet-20250219", d.SelectedKey)
	assert.Equal(t, models.ProviderAnthropic, d.Provider)
	assert.Equal(t, "gpt-5", d.FallbackKey)

	// With the sonnet down, the high-quality fallback takes over.
	require.NoError(t, c.MarkUnavailable("claude-3-7-sonnet-20250219"))
	d = decide(t, e, "Write a Python function to sort a list", models.CategoryCode, models.PresetBalanced)
	assert.Equal(t, "gpt-5", d.SelectedKey)
}

func TestDecide_CostSummarizePrefersFreeModel(t *testing.T) {
	e, c := newTestEngine(t)

	d := decide(t, e, "Summarize the key points of machine learning", models.CategorySummarize, models.PresetCost)
	assert.Equal(t, "gpt-oss-20b", d.SelectedKey)

	require.NoError(t, c.MarkUnavailable("gpt-oss-20b"))
	d = decide(t, e, "Summarize the key points of machine learning", models.CategorySummarize, models.PresetCost)
	assert.Equal(t, "gpt-4o-mini", d.SelectedKey)
}

func TestDecide_QualityMathPrefersGPT5(t *testing.T) {
	e, _ := newTestEngine(t)

	d := decide(t, e, "Solve: 2x + 5 = 13", models.CategoryMathReasoning, models.PresetQuality)
	assert.Equal(t, "gpt-5", d.SelectedKey)
	assert.Equal(t, "claude-3-7-sonnet-20250219", d.FallbackKey)
}

func TestDecide_LatencyQAPrefersFastModels(t *testing.T) {
	e, _ := newTestEngine(t)

	d := decide(t, e, "Hello, how are you?", models.CategoryQA, models.PresetLatency)
	assert.Contains(t, []string{"gemini-1.5-flash", "gpt-4o-mini"}, d.SelectedKey)
	assert.NotEqual(t, "gpt-5", d.SelectedKey)
}

func TestDecide_OversizePromptLeavesOnlyLargeContext(t *testing.T) {
	e, _ := newTestEngine(t)

	prompt := strings.Repeat("a", 1_000_000) // ~250k tokens
	for _, preset := range []models.Preset{models.PresetBalanced, models.PresetQuality, models.PresetCost, models.PresetLatency} {
		d := decide(t, e, prompt, models.CategoryUnknown, preset)
		assert.Equal(t, "gemini-1.5-flash", d.SelectedKey, "preset %s", preset)
		assert.Equal(t, 1.0, d.Confidence, "sole candidate decides with certainty")
		assert.Empty(t, d.Alternatives)
		assert.Empty(t, d.FallbackKey)
	}
}

func TestDecide_NoCandidates(t *testing.T) {
	e, c := newTestEngine(t)

	// CODE is only served by the two premium models.
	require.NoError(t, c.MarkUnavailable("gpt-5"))
	require.NoError(t, c.MarkUnavailable("claude-3-7-sonnet-20250219"))

	_, err := e.Decide(models.RoutingRequest{Prompt: "write code", Category: models.CategoryCode, Preset: models.PresetBalanced})
	assert.ErrorIs(t, err, ErrNoCandidateModels)
}

func TestDecide_UnavailableNeverSelected(t *testing.T) {
	e, c := newTestEngine(t)

	require.NoError(t, c.MarkUnavailable("gpt-5"))
	for _, preset := range []models.Preset{models.PresetBalanced, models.PresetQuality, models.PresetCost, models.PresetLatency} {
		for _, cat := range models.Categories {
			d, err := e.Decide(models.RoutingRequest{Prompt: "p", Category: cat, Preset: preset})
			if err != nil {
				continue
			}
			assert.NotEqual(t, "gpt-5", d.SelectedKey)
			for _, alt := range d.Alternatives {
				assert.NotEqual(t, "gpt-5", alt.Key)
			}
		}
	}

	c.ResetAll()
	d := decide(t, e, "Solve: 2x + 5 = 13", models.CategoryMathReasoning, models.PresetQuality)
	assert.Equal(t, "gpt-5", d.SelectedKey, "reset restores eligibility")
}

func TestDecide_AlternativesRankedAndBounded(t *testing.T) {
	e, _ := newTestEngine(t)

	// UNKNOWN is served by all five models.
	d := decide(t, e, "p", models.CategoryUnknown, models.PresetBalanced)
	assert.Len(t, d.Alternatives, 4)

	prev := d.Score
	for _, alt := range d.Alternatives {
		assert.LessOrEqual(t, alt.Score, prev, "alternatives must be non-increasing")
		prev = alt.Score
		assert.NotEqual(t, d.SelectedKey, alt.Key)
		assert.NotEmpty(t, alt.Reason)
	}
}

func TestDecide_ConfidenceWithinBounds(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, preset := range []models.Preset{models.PresetBalanced, models.PresetQuality, models.PresetCost, models.PresetLatency} {
		for _, cat := range models.Categories {
			d, err := e.Decide(models.RoutingRequest{Prompt: "p", Category: cat, Preset: preset})
			if err != nil {
				continue
			}
			assert.GreaterOrEqual(t, d.Confidence, 0.0)
			assert.LessOrEqual(t, d.Confidence, 1.0)
		}
	}
}

func TestDecide_IsPure(t *testing.T) {
	e, _ := newTestEngine(t)

	req := models.RoutingRequest{Prompt: "Hello, how are you?", Category: models.CategoryQA, Preset: models.PresetBalanced}
	a, err := e.Decide(req)
	require.NoError(t, err)
	b, err := e.Decide(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecide_QualityRegressionGuard(t *testing.T) {
	e, _ := newTestEngine(t)

	// Under QUALITY, the selected model must not be strictly worse on the
	// quality prior than an available alternative of comparable latency
	// (≤2x) and cost (≤2x).
	for _, cat := range models.Categories {
		d, err := e.Decide(models.RoutingRequest{Prompt: "p", Category: cat, Preset: models.PresetQuality})
		if err != nil {
			continue
		}
		sel := descriptorByKey(t, e, d.SelectedKey)
		selQ := sel.QualityPrior(cat)
		selLat := sel.LatencyMs()
		selCost := sel.PriceInputPerMillion
		for _, alt := range d.Alternatives {
			if alt.QualityScore > selQ && alt.LatencyMs <= 2*selLat && alt.CostPer1KTokens*1000 <= 2*selCost {
				t.Fatalf("category %s: QUALITY selected %s (prior %.2f) over better %s (prior %.2f)",
					cat, d.SelectedKey, selQ, alt.Key, alt.QualityScore)
			}
		}
	}
}

func TestDecide_CostPrefersCheapestAmongEqualPriors(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	c := catalog.New([]models.ModelDescriptor{
		{
			Key: "exp", ProviderModelName: "exp-1", Provider: models.ProviderOpenAI,
			ContextWindowTokens: 100000, PriceInputPerMillion: 5, PriceOutputPerMillion: 10,
			LatencyP50Seconds: 1.0,
			QualityPriorByCategory: map[models.Category]float64{models.CategoryQA: 0.8},
			Available:              true,
		},
		{
			Key: "cheap", ProviderModelName: "cheap-1", Provider: models.ProviderOpenAI,
			ContextWindowTokens: 100000, PriceInputPerMillion: 1, PriceOutputPerMillion: 2,
			LatencyP50Seconds: 1.0,
			QualityPriorByCategory: map[models.Category]float64{models.CategoryQA: 0.8},
			Available:              true,
		},
	}, logger)
	e := NewEngine(c, logger)

	d := decide(t, e, "p", models.CategoryQA, models.PresetCost)
	assert.Equal(t, "cheap", d.SelectedKey)
}

func TestDecide_ReasoningMentionsDominantPriority(t *testing.T) {
	e, _ := newTestEngine(t)

	d := decide(t, e, "p", models.CategoryQA, models.PresetQuality)
	assert.Contains(t, d.Reasoning, "quality")

	d = decide(t, e, "p", models.CategoryQA, models.PresetCost)
	assert.Contains(t, d.Reasoning, "cost")

	d = decide(t, e, "p", models.CategoryQA, models.PresetLatency)
	assert.Contains(t, d.Reasoning, "latency")
}

func descriptorByKey(t *testing.T, e *Engine, key string) models.ModelDescriptor {
	t.Helper()
	d, err := e.catalog.Get(key)
	require.NoError(t, err)
	return d
}

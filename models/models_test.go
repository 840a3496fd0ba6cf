package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresetWeightsSumToOne(t *testing.T) {
	for _, p := range []Preset{PresetBalanced, PresetQuality, PresetCost, PresetLatency} {
		w := p.Weights()
		assert.InDelta(t, 1.0, w.Quality+w.Cost+w.Latency, 1e-9, "preset %s", p)
		assert.GreaterOrEqual(t, w.Quality, 0.0)
		assert.GreaterOrEqual(t, w.Cost, 0.0)
		assert.GreaterOrEqual(t, w.Latency, 0.0)
	}
}

func TestParsePreset(t *testing.T) {
	p, ok := ParsePreset("quality")
	assert.True(t, ok)
	assert.Equal(t, PresetQuality, p)

	p, ok = ParsePreset("fastest")
	assert.False(t, ok)
	assert.Equal(t, PresetBalanced, p, "unknown presets fall back to balanced")
}

func TestUnknownPresetWeightsFallBack(t *testing.T) {
	assert.Equal(t, PresetBalanced.Weights(), Preset("bogus").Weights())
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryCode, ParseCategory("CODE"))
	assert.Equal(t, CategoryUnknown, ParseCategory("code"), "parsing is canonical-form only")
	assert.Equal(t, CategoryUnknown, ParseCategory("POETRY"))
}

func TestModelDescriptorDerivedValues(t *testing.T) {
	d := ModelDescriptor{
		PriceInputPerMillion:  3.0,
		PriceOutputPerMillion: 15.0,
		LatencyP50Seconds:     0.5,
		QualityPriorByCategory: map[Category]float64{
			CategoryCode: 0.98,
		},
	}

	assert.Equal(t, 500.0, d.LatencyMs())
	assert.Equal(t, 2000.0, d.ThroughputTPS())
	assert.InDelta(t, 0.003, d.PriceInputPer1K(), 1e-12)
	assert.InDelta(t, 0.015, d.PriceOutputPer1K(), 1e-12)

	assert.Equal(t, 0.98, d.QualityPrior(CategoryCode))
	assert.Equal(t, 0.5, d.QualityPrior(CategoryQA), "missing priors default to 0.5")
	assert.True(t, d.SupportsCategory(CategoryCode))
	assert.False(t, d.SupportsCategory(CategoryQA))
}

func TestCategoryProfileMaxOutputTokens(t *testing.T) {
	assert.Equal(t, 1500, CategoryProfile{EstimatedOutputTokens: 100}.MaxOutputTokens())
	assert.Equal(t, 3000, CategoryProfile{EstimatedOutputTokens: 1500}.MaxOutputTokens())
}

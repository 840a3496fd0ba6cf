package catalog

import (
	"github.com/promptpilot/model-router/models"
)

// DefaultDescriptors returns the built-in model set. Quality priors are
// sparse on purpose: a category absent from a model's map excludes it from
// that category's candidate pool.
func DefaultDescriptors() []models.ModelDescriptor {
	return []models.ModelDescriptor{
		{
			Key:                   "gpt-4o-mini",
			ProviderModelName:     "gpt-4o-mini-2024-07-18",
			Provider:              models.ProviderOpenAI,
			ContextWindowTokens:   128000,
			PriceInputPerMillion:  0.15,
			PriceOutputPerMillion: 0.60,
			LatencyP50Seconds:     0.46,
			QualityPriorByCategory: map[models.Category]float64{
				models.CategorySummarize: 0.80,
				models.CategoryQA:        0.82,
				models.CategoryCreative:  0.70,
				models.CategoryUnknown:   0.75,
			},
			Available: true,
		},
		{
			Key:                   "gpt-5",
			ProviderModelName:     "gpt-5-2025-08-07",
			Provider:              models.ProviderOpenAI,
			ContextWindowTokens:   200000,
			PriceInputPerMillion:  10.0,
			PriceOutputPerMillion: 30.0,
			LatencyP50Seconds:     7.52,
			QualityPriorByCategory: map[models.Category]float64{
				models.CategoryCode:          0.99,
				models.CategoryMathReasoning: 0.99,
				models.CategoryQA:            0.97,
				models.CategoryCreative:      0.96,
				models.CategoryUnknown:       0.90,
			},
			Available: true,
		},
		{
			Key:                   "claude-3-7-sonnet-20250219",
			ProviderModelName:     "claude-3-7-sonnet-20250219",
			Provider:              models.ProviderAnthropic,
			ContextWindowTokens:   200000,
			PriceInputPerMillion:  3.0,
			PriceOutputPerMillion: 15.0,
			LatencyP50Seconds:     9.20,
			QualityPriorByCategory: map[models.Category]float64{
				models.CategoryCode:          0.98,
				models.CategoryMathReasoning: 0.95,
				models.CategoryQA:            0.94,
				models.CategoryCreative:      0.97,
				models.CategoryUnknown:       0.88,
			},
			Available: true,
		},
		{
			Key:                   "gemini-1.5-flash",
			ProviderModelName:     "gemini-1.5-flash-002",
			Provider:              models.ProviderGoogle,
			ContextWindowTokens:   1050000,
			PriceInputPerMillion:  0.075,
			PriceOutputPerMillion: 0.30,
			LatencyP50Seconds:     0.45,
			QualityPriorByCategory: map[models.Category]float64{
				models.CategoryQA:       0.80,
				models.CategoryCreative: 0.72,
				models.CategoryUnknown:  0.70,
			},
			Available: true,
		},
		{
			Key:                   "gpt-oss-20b",
			ProviderModelName:     "openai/gpt-oss-20b",
			Provider:              models.ProviderHuggingFace,
			ContextWindowTokens:   131072,
			PriceInputPerMillion:  0,
			PriceOutputPerMillion: 0,
			LatencyP50Seconds:     1.20,
			QualityPriorByCategory: map[models.Category]float64{
				models.CategorySummarize: 0.70,
				models.CategoryUnknown:   0.60,
			},
			Available: true,
		},
	}
}

// CategoryProfiles holds the read-only per-category generation defaults and
// the heuristic keyword lists.
var CategoryProfiles = map[models.Category]models.CategoryProfile{
	models.CategoryCode: {
		EstimatedOutputTokens: 1000,
		Temperature:           0.1,
		Keywords:              []string{"write", "function", "code", "debug", "algorithm", "script"},
		Examples:              []string{"Write a Python function to sort a list", "Debug this JavaScript snippet"},
	},
	models.CategorySummarize: {
		EstimatedOutputTokens: 500,
		Temperature:           0.3,
		Keywords:              []string{"summarize", "summary", "key points", "tl;dr", "overview", "condense"},
		Examples:              []string{"Summarize the key points of machine learning"},
	},
	models.CategoryQA: {
		EstimatedOutputTokens: 1000,
		Temperature:           0.2,
		Keywords:              []string{"what", "when", "where", "who", "hello", "how are you"},
		Examples:              []string{"Hello, how are you?", "What is the capital of France?"},
	},
	models.CategoryCreative: {
		EstimatedOutputTokens: 1250,
		Temperature:           0.8,
		Keywords:              []string{"story", "poem", "imagine", "creative", "fiction", "write a story"},
		Examples:              []string{"Write a story about a time traveler"},
	},
	models.CategoryMathReasoning: {
		EstimatedOutputTokens: 1500,
		Temperature:           0.1,
		Keywords:              []string{"solve", "calculate", "equation", "math", "+", "=", "x"},
		Examples:              []string{"Solve: 2x + 5 = 13"},
	},
	models.CategoryUnknown: {
		EstimatedOutputTokens: 400,
		Temperature:           0.5,
	},
}

// ProfileFor returns the generation profile for a category, falling back to
// the UNKNOWN profile.
func ProfileFor(c models.Category) models.CategoryProfile {
	if p, ok := CategoryProfiles[c]; ok {
		return p
	}
	return CategoryProfiles[models.CategoryUnknown]
}

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/providers"
)

// DefaultClassifierModelKey is the backend used for model classification.
const DefaultClassifierModelKey = "gpt-4o-mini"

const classifierSystemPrompt = "You are a prompt classification expert. " +
	"You label user prompts with exactly one task category and reply only with JSON."

// The model taxonomy intentionally excludes MATH_REASONING; only the
// heuristic produces that label.
const classifierUserPromptTemplate = `Classify the following prompt into exactly one of these categories: CODE | SUMMARIZE | QA | CREATIVE.

Prompt:
"""
%s
"""

Reply with JSON only, matching this schema:
{"category": "<CODE|SUMMARIZE|QA|CREATIVE>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}`

// jsonBlockRe matches from the first '{' to the last '}' of a reply; a reply
// carrying more than one object yields a span that does not decode.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ClassifierError reports a transport failure of the model classifier. The
// caller is responsible for fallback.
type ClassifierError struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ClassifierError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ClassifierError) Unwrap() error {
	return e.Cause
}

// ClientResolver resolves a backend client by model key. The provider pool
// satisfies this.
type ClientResolver interface {
	Resolve(name string) (providers.Client, error)
}

// ModelClassifier dispatches classification prompts to a designated backend.
type ModelClassifier struct {
	resolver ClientResolver
	modelKey string
}

// NewModelClassifier creates a model classifier backed by modelKey, or the
// default key when empty.
func NewModelClassifier(resolver ClientResolver, modelKey string) *ModelClassifier {
	if modelKey == "" {
		modelKey = DefaultClassifierModelKey
	}
	return &ModelClassifier{resolver: resolver, modelKey: modelKey}
}

type classifierReply struct {
	Category   *string  `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  *string  `json:"reasoning"`
}

// Classify sends the prompt to the classifier backend and parses the
// structured reply. Transport failures return a *ClassifierError; malformed
// replies degrade to UNKNOWN without error.
func (m *ModelClassifier) Classify(ctx context.Context, prompt string) (Result, error) {
	start := time.Now()

	client, err := m.resolver.Resolve(m.modelKey)
	if err != nil {
		return Result{}, &ClassifierError{Message: "classifier backend unavailable", Cause: err}
	}

	gen, err := client.Generate(ctx, fmt.Sprintf(classifierUserPromptTemplate, prompt), providers.GenerateOptions{
		MaxTokens:    200,
		Temperature:  0.1,
		SystemPrompt: classifierSystemPrompt,
	})
	if err != nil {
		return Result{}, &ClassifierError{Message: "classifier request failed", Cause: err}
	}

	latency := time.Since(start).Milliseconds()
	result := m.parseReply(gen.Content)
	result.ModelUsed = m.modelKey
	result.LatencyMs = latency
	result.RawResponse = gen.Content
	return result, nil
}

// parseReply extracts and validates the JSON reply. Any parse or validation
// error yields UNKNOWN with confidence 0.1 carrying the error in Reasoning.
func (m *ModelClassifier) parseReply(raw string) Result {
	degraded := func(reason string) Result {
		return Result{
			Category:   models.CategoryUnknown,
			Confidence: 0.1,
			Method:     "model",
			Reasoning:  "classifier reply unusable: " + reason,
		}
	}

	trimmed := strings.TrimSpace(raw)
	block := jsonBlockRe.FindString(trimmed)
	if block == "" {
		return degraded("no JSON object in reply")
	}

	var reply classifierReply
	if err := json.Unmarshal([]byte(block), &reply); err != nil {
		return degraded(err.Error())
	}
	if reply.Category == nil || reply.Confidence == nil || reply.Reasoning == nil {
		return degraded("missing required field")
	}

	category := mapCategory(*reply.Category)
	confidence := *reply.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Category:   category,
		Confidence: confidence,
		Method:     "model",
		Reasoning:  *reply.Reasoning,
	}
}

// mapCategory maps a reply string to the Category enum, case-insensitively.
func mapCategory(s string) models.Category {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range models.Categories {
		if string(c) == upper {
			return c
		}
	}
	return models.CategoryUnknown
}

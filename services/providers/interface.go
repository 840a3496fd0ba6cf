package providers

import (
	"context"
	"time"

	"github.com/promptpilot/model-router/models"
)

// Client is the uniform contract the router needs from one model backend.
type Client interface {
	// Generate sends a prompt and returns the generated text with usage.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)

	// IsAvailable performs a cheap health check.
	IsAvailable(ctx context.Context) bool

	// Provider returns the vendor tag.
	Provider() models.Provider

	// ModelName returns the wire-level model name.
	ModelName() string
}

// GenerateOptions carries per-request generation parameters.
type GenerateOptions struct {
	MaxTokens        int
	Temperature      float64
	Timeout          time.Duration
	SystemPrompt     string
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	StopSequences    []string
	JSONMode         bool
}

// Generation is a completed backend call.
type Generation struct {
	Content      string
	InputTokens  int
	OutputTokens int
	CostUsd      float64
	Latency      time.Duration
	Timestamp    time.Time
}

// ProviderError represents an error from a backend client.
type ProviderError struct {
	// Provider that generated the error
	Provider models.Provider

	// Code is a short machine-readable error code
	Code string

	// Message is the human-readable error message
	Message string

	// StatusCode is the HTTP status code, if applicable
	StatusCode int

	// Retryable indicates whether the request could be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider models.Provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks whether an error is a retryable provider error
func IsRetryable(err error) bool {
	if provErr, ok := err.(*ProviderError); ok {
		return provErr.Retryable
	}
	return false
}

// EstimateTokens approximates the token count of a text as ⌈len/4⌉.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

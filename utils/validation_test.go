package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Prompt string `validate:"required,min=1"`
	Preset string `validate:"omitempty,oneof=balanced quality cost latency"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(samplePayload{Prompt: "hi", Preset: "balanced"}))
	assert.NoError(t, ValidateStruct(samplePayload{Prompt: "hi"}))
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	err := ValidateStruct(samplePayload{})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "Prompt")
	assert.Contains(t, verr.Fields["Prompt"], "required")
}

func TestValidateStruct_BadEnum(t *testing.T) {
	err := ValidateStruct(samplePayload{Prompt: "hi", Preset: "fastest"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["Preset"], "one of")

	details := verr.Details()
	assert.Contains(t, details, "Preset")
}

package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/services/providers"
)

// fakeClient is a scriptable backend client.
type fakeClient struct {
	provider models.Provider
	name     string
	reply    string
	err      error
	calls    int
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.Generation{
		Content:      f.reply,
		InputTokens:  providers.EstimateTokens(prompt),
		OutputTokens: providers.EstimateTokens(f.reply),
		Latency:      5 * time.Millisecond,
		Timestamp:    time.Now(),
	}, nil
}

func (f *fakeClient) IsAvailable(ctx context.Context) bool { return f.err == nil }
func (f *fakeClient) Provider() models.Provider            { return f.provider }
func (f *fakeClient) ModelName() string                    { return f.name }

// fakeResolver resolves every key to a fixed client.
type fakeResolver struct {
	client providers.Client
	err    error
}

func (f *fakeResolver) Resolve(name string) (providers.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func TestModelClassifier_ParsesWellFormedReply(t *testing.T) {
	client := &fakeClient{
		provider: models.ProviderOpenAI,
		name:     "gpt-4o-mini",
		reply:    `{"category": "code", "confidence": 0.92, "reasoning": "asks for a function"}`,
	}
	mc := NewModelClassifier(&fakeResolver{client: client}, "")

	r, err := mc.Classify(context.Background(), "write me a function")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryCode, r.Category)
	assert.Equal(t, 0.92, r.Confidence)
	assert.Equal(t, "model", r.Method)
	assert.Equal(t, DefaultClassifierModelKey, r.ModelUsed)
	assert.Equal(t, "asks for a function", r.Reasoning)
}

func TestModelClassifier_ExtractsEmbeddedJSONBlock(t *testing.T) {
	client := &fakeClient{
		reply: "Sure! Here is the classification:\n```json\n{\"category\": \"QA\", \"confidence\": 0.8, \"reasoning\": \"question\"}\n```",
	}
	mc := NewModelClassifier(&fakeResolver{client: client}, "")

	r, err := mc.Classify(context.Background(), "what is go?")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryQA, r.Category)
	assert.Equal(t, 0.8, r.Confidence)
}

func TestModelClassifier_ClampsConfidence(t *testing.T) {
	client := &fakeClient{
		reply: `{"category": "CREATIVE", "confidence": 3.5, "reasoning": "r"}`,
	}
	mc := NewModelClassifier(&fakeResolver{client: client}, "")

	r, err := mc.Classify(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Confidence)
}

func TestModelClassifier_UnknownLabelMapsToUnknown(t *testing.T) {
	client := &fakeClient{
		reply: `{"category": "POETRY", "confidence": 0.9, "reasoning": "r"}`,
	}
	mc := NewModelClassifier(&fakeResolver{client: client}, "")

	r, err := mc.Classify(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUnknown, r.Category)
}

func TestModelClassifier_MalformedReplyDegradesWithoutError(t *testing.T) {
	cases := map[string]string{
		"no json":        "I think this is code.",
		"invalid json":   `{"category": code}`,
		"missing fields": `{"category": "CODE"}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			mc := NewModelClassifier(&fakeResolver{client: &fakeClient{reply: reply}}, "")

			r, err := mc.Classify(context.Background(), "p")
			require.NoError(t, err)
			assert.Equal(t, models.CategoryUnknown, r.Category)
			assert.Equal(t, 0.1, r.Confidence)
			assert.Contains(t, r.Reasoning, "unusable")
		})
	}
}

func TestModelClassifier_TransportFailureReturnsClassifierError(t *testing.T) {
	mc := NewModelClassifier(&fakeResolver{client: &fakeClient{err: errors.New("boom")}}, "")

	_, err := mc.Classify(context.Background(), "p")
	require.Error(t, err)

	var cerr *ClassifierError
	assert.ErrorAs(t, err, &cerr)
}

func TestModelClassifier_ResolverFailureReturnsClassifierError(t *testing.T) {
	mc := NewModelClassifier(&fakeResolver{err: errors.New("no creds")}, "")

	_, err := mc.Classify(context.Background(), "p")
	var cerr *ClassifierError
	assert.ErrorAs(t, err, &cerr)
}

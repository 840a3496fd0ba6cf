package providers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
)

// staticSource serves a fixed descriptor set.
type staticSource struct {
	descriptors []models.ModelDescriptor
}

func (s *staticSource) Get(key string) (models.ModelDescriptor, error) {
	for _, d := range s.descriptors {
		if d.Key == key {
			return d, nil
		}
	}
	return models.ModelDescriptor{}, ErrClientNotFound
}

func (s *staticSource) GetByProviderModelName(name string) (models.ModelDescriptor, error) {
	for _, d := range s.descriptors {
		if d.ProviderModelName == name {
			return d, nil
		}
	}
	return models.ModelDescriptor{}, ErrClientNotFound
}

// countingClient records its identity.
type countingClient struct {
	key string
}

func (c *countingClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	return &Generation{Content: "ok", Timestamp: time.Now()}, nil
}
func (c *countingClient) IsAvailable(ctx context.Context) bool { return true }
func (c *countingClient) Provider() models.Provider            { return models.ProviderOpenAI }
func (c *countingClient) ModelName() string                    { return c.key }

func testSource() *staticSource {
	return &staticSource{descriptors: []models.ModelDescriptor{
		{Key: "alpha", ProviderModelName: "alpha-wire-1", Provider: models.ProviderOpenAI, Available: true},
		{Key: "beta", ProviderModelName: "beta-wire-1", Provider: models.ProviderOpenAI, Available: true},
	}}
}

func TestPool_LazyConstructionAndCaching(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	built := 0
	pool := NewPool(testSource(), func(d models.ModelDescriptor) (Client, error) {
		built++
		return &countingClient{key: d.Key}, nil
	}, logger)

	a1, err := pool.Resolve("alpha")
	require.NoError(t, err)
	a2, err := pool.Resolve("alpha")
	require.NoError(t, err)

	assert.Same(t, a1, a2, "second lookup hits the cache")
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, pool.Size())
}

func TestPool_AliasResolvesToSameClient(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	pool := NewPool(testSource(), func(d models.ModelDescriptor) (Client, error) {
		return &countingClient{key: d.Key}, nil
	}, logger)

	byKey, err := pool.Resolve("alpha")
	require.NoError(t, err)
	byWire, err := pool.Resolve("alpha-wire-1")
	require.NoError(t, err)

	assert.Same(t, byKey, byWire)
	assert.Equal(t, 1, pool.Size())
}

func TestPool_UnknownName(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	pool := NewPool(testSource(), func(d models.ModelDescriptor) (Client, error) {
		return &countingClient{key: d.Key}, nil
	}, logger)

	_, err := pool.Resolve("gamma")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestPool_FactoryFailureIsLocal(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	pool := NewPool(testSource(), func(d models.ModelDescriptor) (Client, error) {
		if d.Key == "alpha" {
			return nil, ErrMissingCredentials
		}
		return &countingClient{key: d.Key}, nil
	}, logger)

	_, err := pool.Resolve("alpha")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	// Other models stay usable.
	_, err = pool.Resolve("beta")
	assert.NoError(t, err)
}

func TestPool_ConcurrentMissesRetainOneClient(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	pool := NewPool(testSource(), func(d models.ModelDescriptor) (Client, error) {
		time.Sleep(time.Millisecond)
		return &countingClient{key: d.Key}, nil
	}, logger)

	var wg sync.WaitGroup
	clients := make([]Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := pool.Resolve("alpha")
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c, "all resolvers see the retained client")
	}
	assert.Equal(t, 1, pool.Size())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 250000, EstimateTokens(string(make([]byte, 1_000_000))))
}

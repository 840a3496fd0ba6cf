package providers

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
)

var (
	// ErrClientNotFound is returned when no client can be resolved for a key
	ErrClientNotFound = errors.New("backend client not found")

	// ErrMissingCredentials is returned when a provider has no API key
	ErrMissingCredentials = errors.New("missing provider credentials")
)

// ClientFactory builds a client for a model descriptor. It fails with
// ErrMissingCredentials when the descriptor's provider is not configured;
// that failure is local to the descriptor and does not affect other models.
type ClientFactory func(d models.ModelDescriptor) (Client, error)

// DescriptorSource resolves descriptors by key or wire-level name. The
// catalog satisfies this.
type DescriptorSource interface {
	Get(key string) (models.ModelDescriptor, error)
	GetByProviderModelName(name string) (models.ModelDescriptor, error)
}

// Pool is a lazy cache of backend clients. Each client is inserted under
// both its catalog key and its provider-native model name, so either name
// resolves to the same instance.
type Pool struct {
	mu      sync.RWMutex
	clients map[string]Client
	source  DescriptorSource
	factory ClientFactory
	logger  *zap.Logger
}

// NewPool creates an empty client pool.
func NewPool(source DescriptorSource, factory ClientFactory, logger *zap.Logger) *Pool {
	return &Pool{
		clients: make(map[string]Client),
		source:  source,
		factory: factory,
		logger:  logger,
	}
}

// Resolve returns the client for a model key or provider-native name,
// constructing it on first use. Two concurrent misses may both construct a
// client; only the first insert is retained and the loser is discarded.
func (p *Pool) Resolve(name string) (Client, error) {
	p.mu.RLock()
	client, ok := p.clients[name]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	d, err := p.source.Get(name)
	if err != nil {
		d, err = p.source.GetByProviderModelName(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
	}

	built, err := p.factory(d)
	if err != nil {
		return nil, fmt.Errorf("building client for %s: %w", d.Key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.clients[d.Key]; ok {
		return existing, nil
	}
	p.clients[d.Key] = built
	p.clients[d.ProviderModelName] = built
	if p.logger != nil {
		p.logger.Debug("backend client constructed",
			zap.String("model", d.Key),
			zap.String("provider", string(d.Provider)))
	}
	return built, nil
}

// Size returns the number of distinct cached clients.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	distinct := make(map[Client]bool, len(p.clients))
	for _, c := range p.clients {
		distinct[c] = true
	}
	return len(distinct)
}

package catalog

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
)

var (
	// ErrModelNotFound is returned when a model key is not in the catalog
	ErrModelNotFound = errors.New("model not found")
)

// Catalog is the process-wide registry of routable models. Descriptors are
// immutable after construction except for the availability flag, which is
// written by MarkUnavailable/ResetAll and read by every routing decision.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	byKey  map[string]*models.ModelDescriptor
	logger *zap.Logger
}

// New creates a catalog from a list of descriptors. Registry order is the
// given order; it is the tie-break order for scoring.
func New(descriptors []models.ModelDescriptor, logger *zap.Logger) *Catalog {
	c := &Catalog{
		byKey:  make(map[string]*models.ModelDescriptor, len(descriptors)),
		logger: logger,
	}
	for i := range descriptors {
		d := descriptors[i]
		if _, exists := c.byKey[d.Key]; exists {
			continue
		}
		c.order = append(c.order, d.Key)
		c.byKey[d.Key] = &d
	}
	return c
}

// NewDefault creates a catalog holding the built-in model set.
func NewDefault(logger *zap.Logger) *Catalog {
	return New(DefaultDescriptors(), logger)
}

// Get returns a copy of the descriptor for a key.
func (c *Catalog) Get(key string) (models.ModelDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byKey[key]
	if !ok {
		return models.ModelDescriptor{}, ErrModelNotFound
	}
	return *d, nil
}

// GetByProviderModelName resolves a descriptor by its wire-level name.
func (c *Catalog) GetByProviderModelName(name string) (models.ModelDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range c.order {
		if d := c.byKey[key]; d.ProviderModelName == name {
			return *d, nil
		}
	}
	return models.ModelDescriptor{}, ErrModelNotFound
}

// Snapshot returns copies of all descriptors in registry order. The copy is
// consistent: a concurrent MarkUnavailable is either fully visible or not
// visible at all.
func (c *Catalog) Snapshot() []models.ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.ModelDescriptor, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.byKey[key])
	}
	return out
}

// MarkUnavailable flips a model's availability to false. The flag stays
// false until ResetAll.
func (c *Catalog) MarkUnavailable(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.byKey[key]
	if !ok {
		return ErrModelNotFound
	}
	if d.Available {
		d.Available = false
		if c.logger != nil {
			c.logger.Warn("model marked unavailable", zap.String("model", key))
		}
	}
	return nil
}

// ResetAll restores every model's availability. Idempotent.
func (c *Catalog) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.byKey {
		d.Available = true
	}
	if c.logger != nil {
		c.logger.Info("all models reset to available")
	}
}

// Keys returns the model keys in registry order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

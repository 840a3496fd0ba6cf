package analytics

import (
	"sync"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
)

// DefaultCapacity is the ring buffer size.
const DefaultCapacity = 1000

// Metrics is the aggregate view over the current buffer contents.
type Metrics struct {
	TotalRequests          int                     `json:"totalRequests"`
	TotalCostUsd           float64                 `json:"totalCostUsd"`
	AverageLatencyMs       float64                 `json:"averageLatencyMs"`
	UsageByModel           map[string]int          `json:"usageByModel"`
	CategoryDistribution   map[models.Category]int `json:"categoryDistribution"`
	EstimatedSavingsUsd    float64                 `json:"estimatedSavingsUsd"`
	ClassificationAccuracy float64                 `json:"classificationAccuracy"`
}

// Service keeps the in-memory request log: a bounded insertion-order buffer
// with eviction of the oldest entries. Appends are atomic with respect to
// concurrent appenders.
type Service struct {
	mu       sync.Mutex
	entries  []models.RequestLogEntry
	capacity int
	sink     Sink
	logger   *zap.Logger
}

// Sink receives every recorded entry asynchronously. Optional.
type Sink interface {
	Enqueue(entry models.RequestLogEntry)
}

// NewService creates an analytics service with the default capacity.
func NewService(logger *zap.Logger) *Service {
	return NewServiceWithCapacity(DefaultCapacity, logger)
}

// NewServiceWithCapacity creates an analytics service with a custom
// capacity; non-positive capacities fall back to the default.
func NewServiceWithCapacity(capacity int, logger *zap.Logger) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{
		entries:  make([]models.RequestLogEntry, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// SetSink attaches a durable sink. Must be called before concurrent use.
func (s *Service) SetSink(sink Sink) {
	s.sink = sink
}

// Record appends an entry, evicting the oldest when full.
func (s *Service) Record(entry models.RequestLogEntry) {
	s.mu.Lock()
	if len(s.entries) == s.capacity {
		s.entries = append(s.entries[1:], entry)
	} else {
		s.entries = append(s.entries, entry)
	}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Enqueue(entry)
	}
}

// RecentLogs returns up to n entries, newest last. n <= 0 returns all.
func (s *Service) RecentLogs(n int) []models.RequestLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]models.RequestLogEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the current number of buffered entries.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Metrics aggregates the current buffer. The savings figure is a reporting
// sentinel (20% of spend), not a rigorous economic measure.
func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{
		UsageByModel:         make(map[string]int),
		CategoryDistribution: make(map[models.Category]int),
	}

	var totalLatency int64
	confident := 0
	for _, e := range s.entries {
		m.TotalRequests++
		m.TotalCostUsd += e.CostUsd
		totalLatency += e.LatencyMs
		m.UsageByModel[e.SelectedKey]++
		m.CategoryDistribution[e.Category]++
		m.EstimatedSavingsUsd += 0.2 * e.CostUsd
		if e.ClassificationConfidence > 0.6 {
			confident++
		}
	}
	if m.TotalRequests > 0 {
		m.AverageLatencyMs = float64(totalLatency) / float64(m.TotalRequests)
		m.ClassificationAccuracy = float64(confident) / float64(m.TotalRequests)
	}
	return m
}

// ResetMetrics clears the buffer.
func (s *Service) ResetMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	if s.logger != nil {
		s.logger.Info("analytics metrics reset")
	}
}

package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
)

func entryWithID(id int) models.RequestLogEntry {
	return models.RequestLogEntry{
		ID:                       fmt.Sprintf("entry-%d", id),
		Category:                 models.CategoryQA,
		SelectedKey:              "gpt-4o-mini",
		Provider:                 models.ProviderOpenAI,
		CostUsd:                  0.01,
		LatencyMs:                100,
		ClassificationConfidence: 0.8,
		Preset:                   models.PresetBalanced,
		Timestamp:                time.Now(),
	}
}

func TestRecord_EvictsOldestAtCapacity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewService(logger)

	for i := 0; i < DefaultCapacity+1; i++ {
		s.Record(entryWithID(i))
	}

	assert.Equal(t, DefaultCapacity, s.Len())
	logs := s.RecentLogs(0)
	assert.Equal(t, "entry-1", logs[0].ID, "first insert is gone after capacity+1 records")
	assert.Equal(t, fmt.Sprintf("entry-%d", DefaultCapacity), logs[len(logs)-1].ID)
}

func TestRecord_PreservesInsertionOrder(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewServiceWithCapacity(10, logger)

	for i := 0; i < 5; i++ {
		s.Record(entryWithID(i))
	}
	logs := s.RecentLogs(0)
	require.Len(t, logs, 5)
	for i, e := range logs {
		assert.Equal(t, fmt.Sprintf("entry-%d", i), e.ID)
	}
}

func TestRecentLogs_Bounded(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewServiceWithCapacity(10, logger)

	for i := 0; i < 5; i++ {
		s.Record(entryWithID(i))
	}

	logs := s.RecentLogs(2)
	require.Len(t, logs, 2)
	assert.Equal(t, "entry-3", logs[0].ID)
	assert.Equal(t, "entry-4", logs[1].ID)

	assert.Len(t, s.RecentLogs(100), 5)
}

func TestMetrics(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewService(logger)

	confident := entryWithID(0)
	confident.CostUsd = 0.05
	confident.LatencyMs = 200
	confident.Category = models.CategoryCode
	confident.SelectedKey = "gpt-5"
	confident.ClassificationConfidence = 0.9
	s.Record(confident)

	unsure := entryWithID(1)
	unsure.CostUsd = 0.01
	unsure.LatencyMs = 100
	unsure.ClassificationConfidence = 0.3
	s.Record(unsure)

	m := s.Metrics()
	assert.Equal(t, 2, m.TotalRequests)
	assert.InDelta(t, 0.06, m.TotalCostUsd, 1e-9)
	assert.InDelta(t, 150, m.AverageLatencyMs, 1e-9)
	assert.Equal(t, 1, m.UsageByModel["gpt-5"])
	assert.Equal(t, 1, m.UsageByModel["gpt-4o-mini"])
	assert.Equal(t, 1, m.CategoryDistribution[models.CategoryCode])
	assert.Equal(t, 1, m.CategoryDistribution[models.CategoryQA])
	assert.InDelta(t, 0.2*0.06, m.EstimatedSavingsUsd, 1e-9)
	assert.InDelta(t, 0.5, m.ClassificationAccuracy, 1e-9)
}

func TestResetMetrics(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewService(logger)

	s.Record(entryWithID(0))
	s.ResetMetrics()

	assert.Zero(t, s.Len())
	assert.Zero(t, s.Metrics().TotalRequests)
}

func TestRecord_ConcurrentAppends(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewServiceWithCapacity(100, logger)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Record(entryWithID(n*50 + j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len(), "buffer never exceeds its capacity")
}

// recordingRepo captures inserted entries.
type recordingRepo struct {
	mu      sync.Mutex
	entries []models.RequestLogEntry
}

func (r *recordingRepo) Insert(ctx context.Context, entry models.RequestLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]models.RequestLogEntry, error) {
	return nil, nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestPostgresSink_FlushesEntries(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	repo := &recordingRepo{}
	sink := NewPostgresSink(repo, logger, DefaultSinkConfig())
	require.NoError(t, sink.Start())

	s := NewService(logger)
	s.SetSink(sink)

	for i := 0; i < 20; i++ {
		s.Record(entryWithID(i))
	}

	require.NoError(t, sink.Stop(5*time.Second))
	assert.Equal(t, 20, repo.count())
}

func TestPostgresSink_DoubleStartFails(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sink := NewPostgresSink(&recordingRepo{}, logger, DefaultSinkConfig())
	require.NoError(t, sink.Start())
	assert.Error(t, sink.Start())
	require.NoError(t, sink.Stop(time.Second))
}

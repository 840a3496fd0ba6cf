package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promptpilot/model-router/models"
	"github.com/promptpilot/model-router/repositories"
)

// SinkConfig holds configuration for the durable sink workers.
type SinkConfig struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent writers
}

// DefaultSinkConfig returns the default sink configuration.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		BufferSize:  4096,
		WorkerCount: 3,
	}
}

// PostgresSink flushes request log entries to a durable repository in the
// background. The ring buffer stays the source of truth; entries are
// dropped, not blocked on, when the channel is full.
type PostgresSink struct {
	repo        repositories.RequestLogRepository
	logger      *zap.Logger
	entryChan   chan models.RequestLogEntry
	workerCount int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewPostgresSink creates a sink over a repository.
func NewPostgresSink(repo repositories.RequestLogRepository, logger *zap.Logger, cfg SinkConfig) *PostgresSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultSinkConfig().BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultSinkConfig().WorkerCount
	}
	return &PostgresSink{
		repo:        repo,
		logger:      logger,
		entryChan:   make(chan models.RequestLogEntry, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
	}
}

// Start launches the background writers.
func (s *PostgresSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("analytics sink already started")
	}
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.started = true
	s.logger.Info("started analytics sink",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", cap(s.entryChan)))
	return nil
}

// Enqueue hands an entry to the writers. Never blocks; on overflow the
// entry is dropped with a warning.
func (s *PostgresSink) Enqueue(entry models.RequestLogEntry) {
	select {
	case s.entryChan <- entry:
	default:
		s.logger.Warn("analytics sink buffer full, dropping entry",
			zap.String("entry_id", entry.ID))
	}
}

// Stop closes the channel and waits for pending writes up to timeout.
func (s *PostgresSink) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("analytics sink not started")
	}
	s.mu.Unlock()

	close(s.entryChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("analytics sink stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("analytics sink stop timeout after %v", timeout)
	}
}

// worker drains the channel until it is closed.
func (s *PostgresSink) worker(id int) {
	defer s.wg.Done()

	for entry := range s.entryChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Insert(ctx, entry); err != nil {
			s.logger.Error("failed to persist request log entry",
				zap.Int("worker", id),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
		}
		cancel()
	}
}

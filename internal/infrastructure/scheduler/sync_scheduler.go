package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// PassRunner is the slice of the orchestrator the scheduler drives
type PassRunner interface {
	RunPass(ctx context.Context, entityType integration.EntityType) (*appintegration.PassResult, error)
}

// SyncSchedulerConfig holds configuration for the automatic sync scheduler
type SyncSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is the period between automatic sync rounds
	Interval time.Duration

	// JobTimeout bounds one full round over all entity types
	JobTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:    true,
		Interval:   15 * time.Minute,
		JobTimeout: 10 * time.Minute,
	}
}

// SyncScheduler runs periodic sync passes over every entity type in
// dependency order. A pass already in flight for an entity type is skipped,
// not queued; the next round picks it up again.
type SyncScheduler struct {
	runner    PassRunner
	logger    *zap.Logger
	config    SyncSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new automatic sync scheduler
func NewSyncScheduler(runner PassRunner, logger *zap.Logger, config SyncSchedulerConfig) *SyncScheduler {
	return &SyncScheduler{
		runner: runner,
		logger: logger,
		config: config,
	}
}

// Start starts the scheduler loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("sync scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SyncScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sync scheduler loop stopping")
			return
		case <-ticker.C:
			s.runRound(ctx)
		}
	}
}

// runRound executes one pass per entity type in dependency order so that
// orders never sync before the accounts and products they reference.
func (s *SyncScheduler) runRound(ctx context.Context) {
	roundCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	started := time.Now()
	for _, entityType := range integration.AllEntityTypes() {
		if roundCtx.Err() != nil {
			s.logger.Warn("sync round cut short",
				zap.String("entity_type", entityType.String()),
				zap.Error(roundCtx.Err()))
			return
		}

		result, err := s.runner.RunPass(roundCtx, entityType)
		switch {
		case errors.Is(err, shared.ErrPassInFlight):
			s.logger.Debug("pass already in flight, skipping",
				zap.String("entity_type", entityType.String()))
		case err != nil:
			s.logger.Error("scheduled pass failed",
				zap.String("entity_type", entityType.String()),
				zap.Error(err))
		default:
			s.logger.Info("scheduled pass completed",
				zap.String("entity_type", entityType.String()),
				zap.Int("created", result.Created),
				zap.Int("updated", result.Updated),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed),
				zap.Duration("duration", result.Duration))
		}
	}

	s.logger.Debug("sync round finished",
		zap.Duration("duration", time.Since(started)))
}

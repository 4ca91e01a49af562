package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
)

// Sweeper is the slice of the failed record manager the scheduler drives
type Sweeper interface {
	RunRetrySweep(ctx context.Context) (*appintegration.SweepResult, error)
}

// RetrySweepSchedulerConfig holds configuration for the retry sweep scheduler
type RetrySweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is the period between sweeps
	Interval time.Duration

	// JobTimeout bounds one sweep
	JobTimeout time.Duration
}

// DefaultRetrySweepSchedulerConfig returns default configuration
func DefaultRetrySweepSchedulerConfig() RetrySweepSchedulerConfig {
	return RetrySweepSchedulerConfig{
		Enabled:    true,
		Interval:   5 * time.Minute,
		JobTimeout: 5 * time.Minute,
	}
}

// RetrySweepScheduler periodically retries failed records whose backoff has
// elapsed.
type RetrySweepScheduler struct {
	sweeper   Sweeper
	logger    *zap.Logger
	config    RetrySweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRetrySweepScheduler creates a new retry sweep scheduler
func NewRetrySweepScheduler(sweeper Sweeper, logger *zap.Logger, config RetrySweepSchedulerConfig) *RetrySweepScheduler {
	return &RetrySweepScheduler{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
	}
}

// Start starts the scheduler loop
func (s *RetrySweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("retry sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("retry sweep scheduler started",
		zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop gracefully stops the scheduler
func (s *RetrySweepScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("retry sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("retry sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *RetrySweepScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("retry sweep loop stopping")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *RetrySweepScheduler) runSweep(ctx context.Context) {
	sweepCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	result, err := s.sweeper.RunRetrySweep(sweepCtx)
	if err != nil {
		s.logger.Error("retry sweep failed", zap.Error(err))
		return
	}
	if result.Attempted == 0 {
		return
	}
	s.logger.Info("retry sweep completed",
		zap.Int("attempted", result.Attempted),
		zap.Int("resolved", result.Resolved),
		zap.Int("failed", result.Failed))
}

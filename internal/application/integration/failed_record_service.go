package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// RecordSyncer is the single-record resend path the failed record manager
// depends on.
type RecordSyncer interface {
	SyncOne(ctx context.Context, rec integration.Record) (*SyncOutcome, error)
}

// RetryPolicy tunes the automatic retry sweep
type RetryPolicy struct {
	// MaxRetries caps automatic attempts per record
	MaxRetries int
	// BaseDelay seeds the exponential backoff
	BaseDelay time.Duration
	// MaxDelay caps the backoff
	MaxDelay time.Duration
	// SweepBatch bounds how many records one sweep picks up
	SweepBatch int
}

// SweepResult summarizes one retry sweep
type SweepResult struct {
	Attempted int `json:"attempted"`
	Resolved  int `json:"resolved"`
	Failed    int `json:"failed"`
}

// ResolveRequest is a manual resolution of a failed record
type ResolveRequest struct {
	Resolution string
	ResolvedBy string
	// CorrectedPayload optionally replaces the payload snapshot; it is
	// validated against the record schema before anything else happens
	CorrectedPayload []byte
	// Resend pushes the (possibly corrected) payload through the sync
	// pipeline before resolving; a failed resend leaves the record FAILED
	Resend bool
}

// FailedRecordService manages the recovery of failed sync operations:
// listing, manual resolution, dismissal and the bounded automatic retry
// sweep.
type FailedRecordService struct {
	records   integration.FailedRecordRepository
	syncer    RecordSyncer
	publisher shared.EventPublisher
	logger    *zap.Logger
	policy    RetryPolicy
}

// NewFailedRecordService creates a FailedRecordService
func NewFailedRecordService(
	records integration.FailedRecordRepository,
	syncer RecordSyncer,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	policy RetryPolicy,
) *FailedRecordService {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 5
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 5 * time.Minute
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 6 * time.Hour
	}
	if policy.SweepBatch <= 0 {
		policy.SweepBatch = 50
	}
	return &FailedRecordService{
		records:   records,
		syncer:    syncer,
		publisher: publisher,
		logger:    logger,
		policy:    policy,
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// List returns failed records matching the filter, newest first
func (s *FailedRecordService) List(ctx context.Context, filter integration.FailedRecordFilter) ([]integration.FailedRecord, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.records.FindAll(ctx, filter)
}

// Get returns one failed record with its payload snapshot
func (s *FailedRecordService) Get(ctx context.Context, id uuid.UUID) (*integration.FailedRecord, error) {
	return s.records.FindByID(ctx, id)
}

// CountByStatus returns the failed record backlog per status
func (s *FailedRecordService) CountByStatus(ctx context.Context) (map[integration.FailedRecordStatus]int64, error) {
	return s.records.CountByStatus(ctx)
}

// ---------------------------------------------------------------------------
// Manual operations
// ---------------------------------------------------------------------------

// Retry re-runs one failed record immediately, regardless of its backoff
// window. Terminal and exhausted records are rejected; resolving with a
// resend is the way past an exhausted record.
func (s *FailedRecordService) Retry(ctx context.Context, id uuid.UUID) (*integration.FailedRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.RetryCount >= s.policy.MaxRetries {
		return nil, integration.ErrRetryExhausted
	}
	if err := s.retryOne(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Resolve closes a failed record manually. A corrected payload is validated
// first; a requested resend must succeed before the record resolves.
func (s *FailedRecordService) Resolve(ctx context.Context, id uuid.UUID, req ResolveRequest) (*integration.FailedRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status.IsTerminal() {
		return nil, integration.ErrFailedRecordTerminal
	}

	payload := []byte(record.OriginalPayload)
	if len(req.CorrectedPayload) > 0 {
		payload = req.CorrectedPayload
	}

	// decode also validates; a corrected payload that fails schema
	// validation never reaches the vendor
	rec, err := integration.DecodeRecord(record.RecordType, payload)
	if err != nil {
		if !req.Resend && len(req.CorrectedPayload) == 0 {
			// resolving without resending tolerates an unparseable
			// historical snapshot
			rec = nil
		} else {
			return nil, err
		}
	}

	if len(req.CorrectedPayload) > 0 {
		if err := record.ReplacePayload(string(req.CorrectedPayload)); err != nil {
			return nil, err
		}
	}

	if req.Resend {
		if _, err := s.syncer.SyncOne(ctx, rec); err != nil {
			record.RetryFailed(err.Error(), s.retryBaseDelay(err), s.policy.MaxDelay)
			if saveErr := s.records.Save(ctx, record); saveErr != nil {
				s.logger.Error("failed record not saved after resend failure", zap.Error(saveErr))
			}
			return nil, err
		}
	}

	if err := record.Resolve(req.Resolution, req.ResolvedBy); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, integration.NewRecordResolvedEvent(record))
	return record, nil
}

// Ignore dismisses a failed record permanently. The reason is mandatory.
func (s *FailedRecordService) Ignore(ctx context.Context, id uuid.UUID, reason, ignoredBy string) (*integration.FailedRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Ignore(reason, ignoredBy); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, integration.NewRecordIgnoredEvent(record))
	return record, nil
}

// ---------------------------------------------------------------------------
// Automatic retry sweep
// ---------------------------------------------------------------------------

// RunRetrySweep retries a bounded batch of eligible failed records. Records
// that are terminal, non-retryable, exhausted or still inside their backoff
// window are excluded by the candidate query, so running the sweep twice in
// a row does no extra work.
func (s *FailedRecordService) RunRetrySweep(ctx context.Context) (*SweepResult, error) {
	candidates, err := s.records.FindRetryCandidates(ctx, s.policy.MaxRetries, s.policy.SweepBatch, time.Now())
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		record := &candidates[i]
		result.Attempted++
		if err := s.retryOne(ctx, record); err != nil {
			result.Failed++
			continue
		}
		if record.Status == integration.FailedRecordStatusResolved {
			result.Resolved++
		} else {
			result.Failed++
		}
	}

	if result.Attempted > 0 {
		s.logger.Info("retry sweep completed",
			zap.Int("attempted", result.Attempted),
			zap.Int("resolved", result.Resolved),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

// retryOne runs a single retry attempt for a record and persists every
// transition.
func (s *FailedRecordService) retryOne(ctx context.Context, record *integration.FailedRecord) error {
	if err := record.BeginRetry(); err != nil {
		return err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return err
	}

	rec, err := integration.DecodeRecord(record.RecordType, []byte(record.OriginalPayload))
	if err == nil {
		_, err = s.syncer.SyncOne(ctx, rec)
	}

	if err != nil {
		record.RetryFailed(err.Error(), s.retryBaseDelay(err), s.policy.MaxDelay)
		if saveErr := s.records.Save(ctx, record); saveErr != nil {
			return saveErr
		}
		s.logger.Warn("retry attempt failed",
			zap.String("record_type", record.RecordType.String()),
			zap.Int("retry_count", record.RetryCount),
			zap.Error(err))
		return nil
	}

	record.RetrySucceeded()
	if err := s.records.Save(ctx, record); err != nil {
		return err
	}
	s.publish(ctx, integration.NewRecordResolvedEvent(record))
	return nil
}

// retryBaseDelay widens the backoff seed when the vendor sent a Retry-After
// hint larger than the configured base.
func (s *FailedRecordService) retryBaseDelay(err error) time.Duration {
	delay := s.policy.BaseDelay
	var vendorErr *integration.VendorError
	if errors.As(err, &vendorErr) && vendorErr.RetryAfter > delay {
		delay = vendorErr.RetryAfter
	}
	return delay
}

func (s *FailedRecordService) publish(ctx context.Context, event shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// FailedRecord status
// ---------------------------------------------------------------------------

// FailedRecordStatus represents the recovery state of a failed sync attempt
type FailedRecordStatus string

const (
	// FailedRecordStatusFailed means the record awaits retry or manual action
	FailedRecordStatusFailed FailedRecordStatus = "FAILED"
	// FailedRecordStatusRetrying means a retry ran and failed again; the
	// record returns to FAILED once the backoff window elapses
	FailedRecordStatusRetrying FailedRecordStatus = "RETRYING"
	// FailedRecordStatusResolved is terminal: a retry or manual resend succeeded
	FailedRecordStatusResolved FailedRecordStatus = "RESOLVED"
	// FailedRecordStatusIgnored is terminal: an operator dismissed the record
	FailedRecordStatusIgnored FailedRecordStatus = "IGNORED"
)

// IsValid returns true if the status is valid
func (s FailedRecordStatus) IsValid() bool {
	switch s {
	case FailedRecordStatusFailed, FailedRecordStatusRetrying,
		FailedRecordStatusResolved, FailedRecordStatusIgnored:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states that freeze the record for audit
func (s FailedRecordStatus) IsTerminal() bool {
	return s == FailedRecordStatusResolved || s == FailedRecordStatusIgnored
}

// String returns the string representation of FailedRecordStatus
func (s FailedRecordStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// FailedRecord entity
// ---------------------------------------------------------------------------

// FailedRecord captures one failed sync operation with enough payload
// context for manual correction. Nothing fails silently: every failure the
// orchestrator sees becomes one of these.
type FailedRecord struct {
	ID           uuid.UUID
	RecordType   EntityType
	SourceSystem SourceSystem
	// OriginalPayload is the JSON snapshot of the normalized record at
	// failure time (the translated payload for transport failures)
	OriginalPayload string
	ErrorMessage    string
	ErrorCode       string
	FailureClass    FailureClass
	RetryCount      int
	Status          FailedRecordStatus
	FailedAt        time.Time
	LastRetryAt     *time.Time
	NextRetryAt     *time.Time
	Resolution      string
	ResolvedBy      string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewFailedRecord captures a sync failure
func NewFailedRecord(recordType EntityType, system SourceSystem, payload, errMsg, errCode string, class FailureClass) (*FailedRecord, error) {
	if !recordType.IsValid() {
		return nil, ErrInvalidEntityType
	}
	if !class.IsValid() {
		class = FailureClassRetryable
	}
	now := time.Now()
	return &FailedRecord{
		ID:              uuid.New(),
		RecordType:      recordType,
		SourceSystem:    system,
		OriginalPayload: payload,
		ErrorMessage:    errMsg,
		ErrorCode:       errCode,
		FailureClass:    class,
		Status:          FailedRecordStatusFailed,
		FailedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// EligibleForRetry reports whether an automatic sweep may retry this record.
// Terminal records, non-retryable failures, exhausted records and records
// still inside their backoff window are all excluded.
func (f *FailedRecord) EligibleForRetry(maxRetries int, now time.Time) bool {
	if f.Status.IsTerminal() {
		return false
	}
	if f.FailureClass == FailureClassNonRetryable {
		return false
	}
	if f.RetryCount >= maxRetries {
		return false
	}
	if f.NextRetryAt != nil && now.Before(*f.NextRetryAt) {
		return false
	}
	return true
}

// BeginRetry marks a retry attempt as started
func (f *FailedRecord) BeginRetry() error {
	if f.Status.IsTerminal() {
		return ErrFailedRecordTerminal
	}
	now := time.Now()
	f.Status = FailedRecordStatusRetrying
	f.LastRetryAt = &now
	f.RetryCount++
	f.UpdatedAt = now
	return nil
}

// RetrySucceeded transitions the record to RESOLVED
func (f *FailedRecord) RetrySucceeded() {
	now := time.Now()
	f.Status = FailedRecordStatusResolved
	f.Resolution = "Resolved by retry"
	f.ResolvedAt = &now
	f.UpdatedAt = now
}

// RetryFailed records another failure and schedules the next attempt with
// exponential backoff: baseDelay * 2^(retryCount-1).
func (f *FailedRecord) RetryFailed(errMsg string, baseDelay, maxDelay time.Duration) {
	now := time.Now()
	f.Status = FailedRecordStatusFailed
	f.ErrorMessage = errMsg
	delay := baseDelay * time.Duration(1<<uint(f.RetryCount-1))
	if delay > maxDelay {
		delay = maxDelay
	}
	next := now.Add(delay)
	f.NextRetryAt = &next
	f.UpdatedAt = now
}

// Resolve marks the record resolved after a manual correction. The resend
// itself has already happened (or was declined) by the time this runs.
func (f *FailedRecord) Resolve(resolution, resolvedBy string) error {
	if f.Status.IsTerminal() {
		return ErrFailedRecordTerminal
	}
	if strings.TrimSpace(resolution) == "" {
		return ErrResolutionRequired
	}
	now := time.Now()
	f.Status = FailedRecordStatusResolved
	f.Resolution = resolution
	f.ResolvedBy = resolvedBy
	f.ResolvedAt = &now
	f.UpdatedAt = now
	return nil
}

// Ignore dismisses the record permanently. The reason is mandatory; ignored
// records never re-enter the automatic retry sweep.
func (f *FailedRecord) Ignore(reason, ignoredBy string) error {
	if f.Status.IsTerminal() {
		return ErrFailedRecordTerminal
	}
	if strings.TrimSpace(reason) == "" {
		return ErrIgnoreReasonRequired
	}
	now := time.Now()
	f.Status = FailedRecordStatusIgnored
	f.Resolution = reason
	f.ResolvedBy = ignoredBy
	f.ResolvedAt = &now
	f.UpdatedAt = now
	return nil
}

// ReplacePayload swaps in a manually corrected payload snapshot
func (f *FailedRecord) ReplacePayload(payload string) error {
	if f.Status.IsTerminal() {
		return ErrFailedRecordTerminal
	}
	f.OriginalPayload = payload
	f.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// FailedRecordFilter defines filter criteria for failed record listings
type FailedRecordFilter struct {
	Status       *FailedRecordStatus
	RecordType   *EntityType
	SourceSystem *SourceSystem
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// FailedRecordRepository persists failed records
type FailedRecordRepository interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FailedRecord, error)

	// FindAll lists records matching the filter, newest first
	FindAll(ctx context.Context, filter FailedRecordFilter) ([]FailedRecord, int64, error)

	// FindRetryCandidates returns FAILED retryable records whose backoff
	// window has elapsed, oldest first, capped at limit
	FindRetryCandidates(ctx context.Context, maxRetries, limit int, now time.Time) ([]FailedRecord, error)

	// CountByStatus counts records per status
	CountByStatus(ctx context.Context) (map[FailedRecordStatus]int64, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *FailedRecord) error
}

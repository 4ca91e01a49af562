package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFailedRecord(t *testing.T, class FailureClass) *FailedRecord {
	t.Helper()
	record, err := NewFailedRecord(EntityTypeProduct, SourceSystemKatana, `{"sku":"SKU-1"}`, "boom", "LUCA_500", class)
	require.NoError(t, err)
	return record
}

func TestNewFailedRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		assert.Equal(t, FailedRecordStatusFailed, record.Status)
		assert.Equal(t, 0, record.RetryCount)
		assert.False(t, record.Status.IsTerminal())
	})

	t.Run("invalid entity type", func(t *testing.T) {
		_, err := NewFailedRecord(EntityType("NOPE"), SourceSystemKatana, "{}", "boom", "", FailureClassRetryable)
		assert.ErrorIs(t, err, ErrInvalidEntityType)
	})

	t.Run("unknown class defaults to retryable", func(t *testing.T) {
		record, err := NewFailedRecord(EntityTypeProduct, SourceSystemKatana, "{}", "boom", "", FailureClass(""))
		require.NoError(t, err)
		assert.Equal(t, FailureClassRetryable, record.FailureClass)
	})
}

func TestFailedRecord_RetryLifecycle(t *testing.T) {
	t.Run("retry success resolves", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)

		require.NoError(t, record.BeginRetry())
		assert.Equal(t, FailedRecordStatusRetrying, record.Status)
		assert.Equal(t, 1, record.RetryCount)
		assert.NotNil(t, record.LastRetryAt)

		record.RetrySucceeded()
		assert.Equal(t, FailedRecordStatusResolved, record.Status)
		assert.NotNil(t, record.ResolvedAt)
	})

	t.Run("retry failure returns to failed with backoff", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)

		require.NoError(t, record.BeginRetry())
		record.RetryFailed("still down", time.Minute, 30*time.Minute)

		assert.Equal(t, FailedRecordStatusFailed, record.Status)
		assert.Equal(t, "still down", record.ErrorMessage)
		require.NotNil(t, record.NextRetryAt)
		assert.True(t, record.NextRetryAt.After(time.Now()))
	})

	t.Run("backoff doubles and caps", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		base := time.Minute

		require.NoError(t, record.BeginRetry())
		record.RetryFailed("x", base, 30*time.Minute)
		first := time.Until(*record.NextRetryAt)

		require.NoError(t, record.BeginRetry())
		record.RetryFailed("x", base, 30*time.Minute)
		second := time.Until(*record.NextRetryAt)

		assert.Greater(t, second, first)

		record.RetryCount = 10
		record.RetryFailed("x", base, 30*time.Minute)
		assert.LessOrEqual(t, time.Until(*record.NextRetryAt), 30*time.Minute)
	})

	t.Run("cannot retry terminal record", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		require.NoError(t, record.Ignore("duplicate", "admin"))
		assert.ErrorIs(t, record.BeginRetry(), ErrFailedRecordTerminal)
	})
}

func TestFailedRecord_EligibleForRetry(t *testing.T) {
	now := time.Now()

	t.Run("fresh retryable record is eligible", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		assert.True(t, record.EligibleForRetry(3, now))
	})

	t.Run("non-retryable class is never swept", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassNonRetryable)
		assert.False(t, record.EligibleForRetry(3, now))
	})

	t.Run("exhausted record awaits manual action", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		record.RetryCount = 3
		assert.False(t, record.EligibleForRetry(3, now))
		assert.Equal(t, FailedRecordStatusFailed, record.Status)
	})

	t.Run("record inside backoff window is excluded", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		next := now.Add(10 * time.Minute)
		record.NextRetryAt = &next
		assert.False(t, record.EligibleForRetry(3, now))
		assert.True(t, record.EligibleForRetry(3, now.Add(11*time.Minute)))
	})

	t.Run("ignored record stays excluded on repeated sweeps", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		require.NoError(t, record.Ignore("known bad data", "admin"))
		assert.False(t, record.EligibleForRetry(3, now))
		assert.False(t, record.EligibleForRetry(3, now.Add(24*time.Hour)))
	})
}

func TestFailedRecord_Resolve(t *testing.T) {
	t.Run("manual resolve", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassNonRetryable)
		require.NoError(t, record.Resolve("fixed tax code by hand", "admin"))
		assert.Equal(t, FailedRecordStatusResolved, record.Status)
		assert.Equal(t, "admin", record.ResolvedBy)
		assert.NotNil(t, record.ResolvedAt)
	})

	t.Run("resolution required", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassNonRetryable)
		assert.ErrorIs(t, record.Resolve("   ", "admin"), ErrResolutionRequired)
	})

	t.Run("terminal record frozen", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassNonRetryable)
		require.NoError(t, record.Resolve("done", "admin"))
		assert.ErrorIs(t, record.Resolve("again", "admin"), ErrFailedRecordTerminal)
		assert.ErrorIs(t, record.Ignore("nope", "admin"), ErrFailedRecordTerminal)
	})
}

func TestFailedRecord_Ignore(t *testing.T) {
	t.Run("reason required", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		assert.ErrorIs(t, record.Ignore("", "admin"), ErrIgnoreReasonRequired)
		assert.ErrorIs(t, record.Ignore("  ", "admin"), ErrIgnoreReasonRequired)
	})

	t.Run("ignore is terminal", func(t *testing.T) {
		record := newTestFailedRecord(t, FailureClassRetryable)
		require.NoError(t, record.Ignore("vendor test data", "admin"))
		assert.Equal(t, FailedRecordStatusIgnored, record.Status)
		assert.Equal(t, "vendor test data", record.Resolution)
		assert.ErrorIs(t, record.ReplacePayload("{}"), ErrFailedRecordTerminal)
	})
}

func TestClassify(t *testing.T) {
	t.Run("mapping and schema errors are non-retryable", func(t *testing.T) {
		assert.Equal(t, FailureClassNonRetryable, Classify(ErrCodeMappingNotFound))
		assert.Equal(t, FailureClassNonRetryable, Classify(ErrPayloadSchema))
		assert.Equal(t, FailureClassNonRetryable, Classify(ErrMissingRequired))
	})

	t.Run("vendor rejection is non-retryable", func(t *testing.T) {
		err := &VendorError{System: SourceSystemLuca, Op: "upsert", StatusCode: 422, Message: "bad vat", Err: ErrVendorRejected}
		assert.Equal(t, FailureClassNonRetryable, Classify(err))
	})

	t.Run("transport failures are retryable", func(t *testing.T) {
		assert.Equal(t, FailureClassRetryable, Classify(ErrVendorTimeout))
		assert.Equal(t, FailureClassRetryable, Classify(ErrVendorRateLimited))
		err := &VendorError{System: SourceSystemLuca, Op: "upsert", StatusCode: 503, Message: "maintenance", Err: ErrVendorUnavailable}
		assert.Equal(t, FailureClassRetryable, Classify(err))
	})
}

package integration

import "errors"

var (
	// Sync mapping errors
	ErrSyncMappingNotFound = errors.New("integration: sync mapping not found")
	ErrSyncMappingConflict = errors.New("integration: sync mapping was modified concurrently")
	ErrInvalidEntityType   = errors.New("integration: invalid entity type")
	ErrInvalidKatanaID     = errors.New("integration: invalid katana record ID")

	// Code mapping errors. ErrCodeMappingNotFound signals a configuration
	// problem, not a transient fault; it must never be retried automatically.
	ErrCodeMappingNotFound = errors.New("integration: code mapping not found")
	ErrCodeMappingInvalid  = errors.New("integration: invalid code mapping")

	// Translation errors
	ErrTranslationFailed  = errors.New("integration: translation failed")
	ErrMissingRequired    = errors.New("integration: required field missing")
	ErrInvalidFieldValue  = errors.New("integration: invalid field value")
	ErrPayloadSchema      = errors.New("integration: payload does not match schema")
	ErrUnsupportedPayload = errors.New("integration: unsupported payload type")

	// Failed record errors
	ErrFailedRecordNotFound = errors.New("integration: failed record not found")
	ErrFailedRecordTerminal = errors.New("integration: failed record is in a terminal state")
	ErrRetryExhausted       = errors.New("integration: retry limit reached")
	ErrIgnoreReasonRequired = errors.New("integration: ignore reason must not be empty")
	ErrResolutionRequired   = errors.New("integration: resolution must not be empty")

	// Correction errors
	ErrCorrectionNotFound    = errors.New("integration: data correction not found")
	ErrCorrectionNotApproved = errors.New("integration: correction has not been approved")
	ErrCorrectionApplied     = errors.New("integration: correction already applied")

	// Approval errors
	ErrApprovalNotFound    = errors.New("integration: approval record not found")
	ErrApprovalNotPending  = errors.New("integration: approval is not pending")
	ErrApprovalAlreadyDone = errors.New("integration: order already approved")
	ErrStockMutationDone   = errors.New("integration: stock mutation already executed")
	ErrApproverRequired    = errors.New("integration: approver must not be empty")
)

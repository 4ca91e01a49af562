package dto

import (
	"errors"
	"net/http"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeValidation is used when input fails domain validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodePassInFlight is used when a sync pass is already running
	ErrCodePassInFlight = "ERR_PASS_IN_FLIGHT"
	// ErrCodeInvalidState is used when an operation is invalid for the
	// current lifecycle state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeTranslation is used when a record cannot be translated,
	// typically because a code mapping is missing
	ErrCodeTranslation = "ERR_TRANSLATION"
	// ErrCodeVendorRejected is used when a vendor rejected the payload
	ErrCodeVendorRejected = "ERR_VENDOR_REJECTED"
	// ErrCodeVendorUnavailable is used when a vendor is unreachable
	ErrCodeVendorUnavailable = "ERR_VENDOR_UNAVAILABLE"
	// ErrCodeRateLimited is used when a vendor rate limit is hit
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodePassInFlight:        http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeTranslation:         http.StatusUnprocessableEntity,
	ErrCodeVendorRejected:      http.StatusUnprocessableEntity,
	ErrCodeVendorUnavailable:   http.StatusBadGateway,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForError maps a domain error to its API error code
func CodeForError(err error) string {
	switch {
	case errors.Is(err, shared.ErrPassInFlight):
		return ErrCodePassInFlight
	case errors.Is(err, integration.ErrSyncMappingNotFound),
		errors.Is(err, integration.ErrFailedRecordNotFound),
		errors.Is(err, integration.ErrCorrectionNotFound),
		errors.Is(err, integration.ErrApprovalNotFound),
		errors.Is(err, integration.ErrCodeMappingNotFound):
		return ErrCodeNotFound
	case errors.Is(err, integration.ErrSyncMappingConflict):
		return ErrCodeConcurrencyConflict
	case errors.Is(err, integration.ErrApprovalAlreadyDone):
		return ErrCodeConflict
	case errors.Is(err, integration.ErrInvalidEntityType),
		errors.Is(err, integration.ErrInvalidKatanaID),
		errors.Is(err, integration.ErrCodeMappingInvalid),
		errors.Is(err, integration.ErrIgnoreReasonRequired),
		errors.Is(err, integration.ErrResolutionRequired),
		errors.Is(err, integration.ErrApproverRequired),
		errors.Is(err, integration.ErrMissingRequired),
		errors.Is(err, integration.ErrInvalidFieldValue),
		errors.Is(err, integration.ErrPayloadSchema),
		errors.Is(err, integration.ErrUnsupportedPayload):
		return ErrCodeValidation
	case errors.Is(err, integration.ErrFailedRecordTerminal),
		errors.Is(err, integration.ErrRetryExhausted),
		errors.Is(err, integration.ErrCorrectionNotApproved),
		errors.Is(err, integration.ErrCorrectionApplied),
		errors.Is(err, integration.ErrApprovalNotPending),
		errors.Is(err, integration.ErrStockMutationDone):
		return ErrCodeInvalidState
	case errors.Is(err, integration.ErrTranslationFailed):
		return ErrCodeTranslation
	case errors.Is(err, integration.ErrVendorRejected):
		return ErrCodeVendorRejected
	case errors.Is(err, integration.ErrVendorRateLimited):
		return ErrCodeRateLimited
	case errors.Is(err, integration.ErrVendorTimeout),
		errors.Is(err, integration.ErrVendorUnavailable):
		return ErrCodeVendorUnavailable
	default:
		return ErrCodeInternal
	}
}

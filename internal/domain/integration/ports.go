package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Transport error taxonomy
// ---------------------------------------------------------------------------

var (
	// ErrVendorTimeout indicates the vendor did not respond in time
	ErrVendorTimeout = errors.New("integration: vendor request timed out")
	// ErrVendorRateLimited indicates the vendor rejected the call with 429
	ErrVendorRateLimited = errors.New("integration: vendor rate limited")
	// ErrVendorUnavailable indicates a 5xx or connection-level failure
	ErrVendorUnavailable = errors.New("integration: vendor unavailable")
	// ErrVendorRejected indicates a 4xx validation rejection; the payload
	// must be corrected before the call can succeed.
	ErrVendorRejected = errors.New("integration: vendor rejected payload")
)

// VendorError wraps a failure talking to Katana or Luca with enough context
// to classify it for the retry policy.
type VendorError struct {
	System     SourceSystem
	Op         string
	StatusCode int
	Message    string
	// RetryAfter carries the vendor's Retry-After hint on 429 responses.
	// Zero when the vendor gave none.
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *VendorError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.System, e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.System, e.Op, e.Message)
}

// Unwrap returns the underlying sentinel error
func (e *VendorError) Unwrap() error {
	return e.Err
}

// FailureClass partitions failures for the retry policy
type FailureClass string

const (
	// FailureClassRetryable covers timeouts, 5xx and rate limiting
	FailureClassRetryable FailureClass = "RETRYABLE"
	// FailureClassNonRetryable covers translation and validation failures
	// that need manual payload correction before a resend can succeed
	FailureClassNonRetryable FailureClass = "NON_RETRYABLE"
)

// IsValid returns true if the failure class is valid
func (c FailureClass) IsValid() bool {
	return c == FailureClassRetryable || c == FailureClassNonRetryable
}

// Classify maps an error to its failure class. Unresolved code mappings,
// schema violations and vendor 4xx rejections require manual correction;
// everything transport-shaped is eligible for automatic retry.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrCodeMappingNotFound),
		errors.Is(err, ErrTranslationFailed),
		errors.Is(err, ErrMissingRequired),
		errors.Is(err, ErrInvalidFieldValue),
		errors.Is(err, ErrPayloadSchema),
		errors.Is(err, ErrVendorRejected):
		return FailureClassNonRetryable
	default:
		return FailureClassRetryable
	}
}

// ---------------------------------------------------------------------------
// Source system client (Katana)
// ---------------------------------------------------------------------------

// StockAdjustment describes a stock increment request against Katana.
type StockAdjustment struct {
	SKU         string
	Quantity    decimal.Decimal
	LocationID  string
	ProductName string
	SalesPrice  decimal.Decimal
	// Reference ties the adjustment to the business action that caused it
	// (e.g. an approved order number) so repeated submissions are visible.
	Reference string
}

// StockMutationResult is the outcome of a stock adjustment in Katana
type StockMutationResult struct {
	Success  bool
	Message  string
	NewStock decimal.Decimal
}

// SourceClient is the narrow contract against the Katana API.
// All calls are async I/O boundaries; failures surface as *VendorError.
type SourceClient interface {
	// FetchChanged returns records of one entity type modified since the
	// watermark. A zero `since` fetches everything.
	FetchChanged(ctx context.Context, entityType EntityType, since time.Time) ([]Record, error)

	// FetchByID returns a single record by its Katana ID
	FetchByID(ctx context.Context, entityType EntityType, katanaID string) (Record, error)

	// MutateStock applies a stock increment in Katana
	MutateStock(ctx context.Context, adj StockAdjustment) (*StockMutationResult, error)
}

// ---------------------------------------------------------------------------
// Target system client (Luca)
// ---------------------------------------------------------------------------

// LucaRecord is the normalized view of a record as Luca stores it, used by
// the reconciliation comparator. Fields that do not apply to an entity type
// are left at their zero value.
type LucaRecord struct {
	EntityType EntityType
	LucaID     string
	Code       string
	Name       string
	Price      decimal.Decimal
	Stock      decimal.Decimal
	// TaxRate is a fraction (0.18), never a percentage
	TaxRate  decimal.Decimal
	IsActive bool
}

// TargetClient is the narrow contract against the Luca API.
type TargetClient interface {
	// Upsert creates or updates a record in Luca and returns the Luca ID.
	// The payload carries its own Luca ID when this is an update.
	Upsert(ctx context.Context, entityType EntityType, payload LucaPayload) (string, error)

	// FetchByID reads a record back from Luca for reconciliation
	FetchByID(ctx context.Context, entityType EntityType, lucaID string) (*LucaRecord, error)
}

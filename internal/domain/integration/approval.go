package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus represents the decision state of an order approval
type ApprovalStatus string

const (
	// ApprovalStatusPending awaits an admin decision
	ApprovalStatusPending ApprovalStatus = "PENDING"
	// ApprovalStatusApproved means the order was approved; the compensating
	// Katana stock mutation runs at most once after this transition
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	// ApprovalStatusRejected is terminal with no side effects
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid returns true if the status is valid
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// ApprovalRecord gates the approval of a sales order. Approval is
// single-use: once APPROVED, the Katana stock increment executes at most
// once, and the record never rolls back to PENDING even when the mutation
// fails (the business decision already happened).
type ApprovalRecord struct {
	ID             uuid.UUID
	OrderID        string
	OrderNo        string
	Status         ApprovalStatus
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedReason string
	// StockMutationDone guards the at-most-once execution of the Katana
	// stock increment
	StockMutationDone    bool
	StockMutationSuccess bool
	StockMutationMessage string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewApprovalRecord creates a pending approval for an order
func NewApprovalRecord(orderID, orderNo string) (*ApprovalRecord, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrMissingRequired
	}
	now := time.Now()
	return &ApprovalRecord{
		ID:        uuid.New(),
		OrderID:   orderID,
		OrderNo:   orderNo,
		Status:    ApprovalStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Approve transitions PENDING -> APPROVED
func (a *ApprovalRecord) Approve(approvedBy string) error {
	if strings.TrimSpace(approvedBy) == "" {
		return ErrApproverRequired
	}
	switch a.Status {
	case ApprovalStatusApproved:
		return ErrApprovalAlreadyDone
	case ApprovalStatusRejected:
		return ErrApprovalNotPending
	}
	now := time.Now()
	a.Status = ApprovalStatusApproved
	a.ApprovedBy = approvedBy
	a.ApprovedAt = &now
	a.UpdatedAt = now
	return nil
}

// Reject transitions PENDING -> REJECTED (terminal, no side effect)
func (a *ApprovalRecord) Reject(rejectedBy, reason string) error {
	if a.Status != ApprovalStatusPending {
		return ErrApprovalNotPending
	}
	now := time.Now()
	a.Status = ApprovalStatusRejected
	a.ApprovedBy = rejectedBy
	a.RejectedReason = reason
	a.UpdatedAt = now
	return nil
}

// ClaimStockMutation reserves the single stock mutation slot. It fails if
// the record is not approved or the mutation already ran.
func (a *ApprovalRecord) ClaimStockMutation() error {
	if a.Status != ApprovalStatusApproved {
		return ErrApprovalNotPending
	}
	if a.StockMutationDone {
		return ErrStockMutationDone
	}
	a.StockMutationDone = true
	a.UpdatedAt = time.Now()
	return nil
}

// RecordStockMutation stores the mutation outcome. A failed mutation leaves
// the record APPROVED and flagged for manual follow-up.
func (a *ApprovalRecord) RecordStockMutation(success bool, message string) {
	a.StockMutationSuccess = success
	a.StockMutationMessage = message
	a.UpdatedAt = time.Now()
}

// ApprovalRecordRepository persists approval records
type ApprovalRecordRepository interface {
	// FindByID finds an approval by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalRecord, error)

	// FindByOrderID finds the approval for an order
	FindByOrderID(ctx context.Context, orderID string) (*ApprovalRecord, error)

	// FindByStatus lists approvals in one status, newest first
	FindByStatus(ctx context.Context, status ApprovalStatus, page, pageSize int) ([]ApprovalRecord, int64, error)

	// Save creates or updates an approval within the caller's transaction
	// semantics: the APPROVED transition and the stock-mutation claim are
	// persisted together
	Save(ctx context.Context, record *ApprovalRecord) error
}

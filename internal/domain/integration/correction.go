package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataCorrection is a proposed field-level override discovered by
// reconciliation or entered manually. Corrections are append-only:
// re-correcting a field creates a new record, history is never mutated.
//
// Lifecycle: proposed -> approved -> applied.
type DataCorrection struct {
	ID uuid.UUID
	// SourceSystem names the system the correction will be written to
	SourceSystem   SourceSystem
	EntityType     EntityType
	EntityID       string
	FieldName      string
	OriginalValue  string
	CorrectedValue string
	Reason         string
	IsApproved     bool
	ApprovedBy     string
	ApprovedAt     *time.Time
	AppliedAt      *time.Time
	CreatedAt      time.Time
}

// NewDataCorrection proposes a correction
func NewDataCorrection(system SourceSystem, entityType EntityType, entityID, fieldName, originalValue, correctedValue, reason string) (*DataCorrection, error) {
	if !system.IsValid() {
		return nil, ErrInvalidFieldValue
	}
	if !entityType.IsValid() {
		return nil, ErrInvalidEntityType
	}
	if strings.TrimSpace(entityID) == "" || strings.TrimSpace(fieldName) == "" {
		return nil, ErrMissingRequired
	}
	return &DataCorrection{
		ID:             uuid.New(),
		SourceSystem:   system,
		EntityType:     entityType,
		EntityID:       entityID,
		FieldName:      fieldName,
		OriginalValue:  originalValue,
		CorrectedValue: correctedValue,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}, nil
}

// Approve marks the correction as approved for application
func (c *DataCorrection) Approve(approvedBy string) error {
	if c.AppliedAt != nil {
		return ErrCorrectionApplied
	}
	if strings.TrimSpace(approvedBy) == "" {
		return ErrApproverRequired
	}
	now := time.Now()
	c.IsApproved = true
	c.ApprovedBy = approvedBy
	c.ApprovedAt = &now
	return nil
}

// MarkApplied records that the corrected value was written to the target
// system. Only approved corrections can be applied, and only once.
func (c *DataCorrection) MarkApplied() error {
	if !c.IsApproved {
		return ErrCorrectionNotApproved
	}
	if c.AppliedAt != nil {
		return ErrCorrectionApplied
	}
	now := time.Now()
	c.AppliedAt = &now
	return nil
}

// DataCorrectionRepository persists corrections
type DataCorrectionRepository interface {
	// FindByID finds a correction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*DataCorrection, error)

	// FindPending lists corrections awaiting approval, oldest first
	FindPending(ctx context.Context) ([]DataCorrection, error)

	// FindByEntity lists the correction history of one entity, newest first
	FindByEntity(ctx context.Context, entityType EntityType, entityID string) ([]DataCorrection, error)

	// Save creates or updates a correction
	Save(ctx context.Context, correction *DataCorrection) error
}

package integration

import (
	"github.com/google/uuid"

	"github.com/katanaluca/backend/internal/domain/shared"
)

// Event types published by the integration core. Delivery (admin push
// channel, polling) is a downstream subscriber concern.
const (
	EventTypeRecordFailed    = "integration.record_failed"
	EventTypeRecordResolved  = "integration.record_resolved"
	EventTypeRecordIgnored   = "integration.record_ignored"
	EventTypePassCompleted   = "integration.pass_completed"
	EventTypeApprovalCreated = "integration.approval_created"
	EventTypeApprovalDecided = "integration.approval_decided"
)

// RecordFailedEvent is published when a sync attempt produces a FailedRecord
type RecordFailedEvent struct {
	shared.BaseDomainEvent
	RecordType   EntityType   `json:"record_type"`
	SourceSystem SourceSystem `json:"source_system"`
	ErrorMessage string       `json:"error_message"`
	FailureClass FailureClass `json:"failure_class"`
}

// NewRecordFailedEvent creates a RecordFailedEvent
func NewRecordFailedEvent(record *FailedRecord) *RecordFailedEvent {
	return &RecordFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordFailed, "FailedRecord", record.ID),
		RecordType:      record.RecordType,
		SourceSystem:    record.SourceSystem,
		ErrorMessage:    record.ErrorMessage,
		FailureClass:    record.FailureClass,
	}
}

// RecordResolvedEvent is published when a failed record reaches RESOLVED
type RecordResolvedEvent struct {
	shared.BaseDomainEvent
	RecordType EntityType `json:"record_type"`
	Resolution string     `json:"resolution"`
	ResolvedBy string     `json:"resolved_by"`
}

// NewRecordResolvedEvent creates a RecordResolvedEvent
func NewRecordResolvedEvent(record *FailedRecord) *RecordResolvedEvent {
	return &RecordResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordResolved, "FailedRecord", record.ID),
		RecordType:      record.RecordType,
		Resolution:      record.Resolution,
		ResolvedBy:      record.ResolvedBy,
	}
}

// RecordIgnoredEvent is published when a failed record is dismissed
type RecordIgnoredEvent struct {
	shared.BaseDomainEvent
	RecordType EntityType `json:"record_type"`
	Reason     string     `json:"reason"`
}

// NewRecordIgnoredEvent creates a RecordIgnoredEvent
func NewRecordIgnoredEvent(record *FailedRecord) *RecordIgnoredEvent {
	return &RecordIgnoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordIgnored, "FailedRecord", record.ID),
		RecordType:      record.RecordType,
		Reason:          record.Resolution,
	}
}

// PassCompletedEvent is published at the end of a sync pass
type PassCompletedEvent struct {
	shared.BaseDomainEvent
	PassEntityType EntityType `json:"entity_type"`
	Created        int        `json:"created"`
	Updated        int        `json:"updated"`
	Skipped        int        `json:"skipped"`
	Failed         int        `json:"failed"`
	Partial        bool       `json:"partial"`
}

// NewPassCompletedEvent creates a PassCompletedEvent
func NewPassCompletedEvent(passID uuid.UUID, entityType EntityType, created, updated, skipped, failed int, partial bool) *PassCompletedEvent {
	return &PassCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePassCompleted, "SyncPass", passID),
		PassEntityType:  entityType,
		Created:         created,
		Updated:         updated,
		Skipped:         skipped,
		Failed:          failed,
		Partial:         partial,
	}
}

// ApprovalCreatedEvent is published when an approval record is created
type ApprovalCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID string `json:"order_id"`
	OrderNo string `json:"order_no"`
}

// NewApprovalCreatedEvent creates an ApprovalCreatedEvent
func NewApprovalCreatedEvent(record *ApprovalRecord) *ApprovalCreatedEvent {
	return &ApprovalCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApprovalCreated, "ApprovalRecord", record.ID),
		OrderID:         record.OrderID,
		OrderNo:         record.OrderNo,
	}
}

// ApprovalDecidedEvent is published when an approval is approved or rejected
type ApprovalDecidedEvent struct {
	shared.BaseDomainEvent
	OrderID              string         `json:"order_id"`
	Status               ApprovalStatus `json:"status"`
	StockMutationSuccess bool           `json:"stock_mutation_success"`
	StockMutationMessage string         `json:"stock_mutation_message,omitempty"`
}

// NewApprovalDecidedEvent creates an ApprovalDecidedEvent
func NewApprovalDecidedEvent(record *ApprovalRecord) *ApprovalDecidedEvent {
	return &ApprovalDecidedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeApprovalDecided, "ApprovalRecord", record.ID),
		OrderID:              record.OrderID,
		Status:               record.Status,
		StockMutationSuccess: record.StockMutationSuccess,
		StockMutationMessage: record.StockMutationMessage,
	}
}

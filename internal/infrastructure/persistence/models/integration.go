package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// SyncMappingModel is the persistence model for the SyncMapping domain entity.
type SyncMappingModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	EntityType   string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_sync_mapping_key,priority:1;index:idx_sync_mapping_type_status,priority:1"`
	KatanaID     string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_sync_mapping_key,priority:2"`
	LucaID       *string    `gorm:"type:varchar(100)"`
	SyncStatus   string     `gorm:"type:varchar(20);not null;default:'NOT_SYNCED';index:idx_sync_mapping_type_status,priority:2"`
	LastSyncedAt *time.Time `gorm:"index"`
	LastError    string     `gorm:"type:text"`
	Version      int        `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncMappingModel) TableName() string {
	return "sync_mappings"
}

// ToDomain converts the persistence model to a domain SyncMapping entity.
func (m *SyncMappingModel) ToDomain() *integration.SyncMapping {
	return &integration.SyncMapping{
		ID:           m.ID,
		EntityType:   integration.EntityType(m.EntityType),
		KatanaID:     m.KatanaID,
		LucaID:       m.LucaID,
		SyncStatus:   integration.SyncStatus(m.SyncStatus),
		LastSyncedAt: m.LastSyncedAt,
		LastError:    m.LastError,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncMapping entity.
func (m *SyncMappingModel) FromDomain(sm *integration.SyncMapping) {
	m.ID = sm.ID
	m.EntityType = string(sm.EntityType)
	m.KatanaID = sm.KatanaID
	m.LucaID = sm.LucaID
	m.SyncStatus = string(sm.SyncStatus)
	m.LastSyncedAt = sm.LastSyncedAt
	m.LastError = sm.LastError
	m.Version = sm.Version
	m.CreatedAt = sm.CreatedAt
	m.UpdatedAt = sm.UpdatedAt
}

// FailedRecordModel is the persistence model for the FailedRecord domain entity.
type FailedRecordModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	RecordType      string    `gorm:"type:varchar(30);not null;index"`
	SourceSystem    string    `gorm:"type:varchar(20);not null"`
	OriginalPayload string    `gorm:"type:text"`
	ErrorMessage    string    `gorm:"type:text"`
	ErrorCode       string    `gorm:"type:varchar(50)"`
	FailureClass    string    `gorm:"type:varchar(20);not null;default:'RETRYABLE'"`
	RetryCount      int       `gorm:"not null;default:0"`
	Status          string    `gorm:"type:varchar(20);not null;default:'FAILED';index:idx_failed_record_status_next,priority:1"`
	FailedAt        time.Time `gorm:"not null;index"`
	LastRetryAt     *time.Time
	NextRetryAt     *time.Time `gorm:"index:idx_failed_record_status_next,priority:2"`
	Resolution      string     `gorm:"type:text"`
	ResolvedBy      string     `gorm:"type:varchar(100)"`
	ResolvedAt      *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FailedRecordModel) TableName() string {
	return "failed_records"
}

// ToDomain converts the persistence model to a domain FailedRecord entity.
func (m *FailedRecordModel) ToDomain() *integration.FailedRecord {
	return &integration.FailedRecord{
		ID:              m.ID,
		RecordType:      integration.EntityType(m.RecordType),
		SourceSystem:    integration.SourceSystem(m.SourceSystem),
		OriginalPayload: m.OriginalPayload,
		ErrorMessage:    m.ErrorMessage,
		ErrorCode:       m.ErrorCode,
		FailureClass:    integration.FailureClass(m.FailureClass),
		RetryCount:      m.RetryCount,
		Status:          integration.FailedRecordStatus(m.Status),
		FailedAt:        m.FailedAt,
		LastRetryAt:     m.LastRetryAt,
		NextRetryAt:     m.NextRetryAt,
		Resolution:      m.Resolution,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain FailedRecord entity.
func (m *FailedRecordModel) FromDomain(fr *integration.FailedRecord) {
	m.ID = fr.ID
	m.RecordType = string(fr.RecordType)
	m.SourceSystem = string(fr.SourceSystem)
	m.OriginalPayload = fr.OriginalPayload
	m.ErrorMessage = fr.ErrorMessage
	m.ErrorCode = fr.ErrorCode
	m.FailureClass = string(fr.FailureClass)
	m.RetryCount = fr.RetryCount
	m.Status = string(fr.Status)
	m.FailedAt = fr.FailedAt
	m.LastRetryAt = fr.LastRetryAt
	m.NextRetryAt = fr.NextRetryAt
	m.Resolution = fr.Resolution
	m.ResolvedBy = fr.ResolvedBy
	m.ResolvedAt = fr.ResolvedAt
	m.CreatedAt = fr.CreatedAt
	m.UpdatedAt = fr.UpdatedAt
}

// CodeMappingModel is the persistence model for the CodeMapping domain entity.
type CodeMappingModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	MappingType string    `gorm:"type:varchar(30);not null;index:idx_code_mapping_lookup,priority:1"`
	KatanaValue string    `gorm:"type:varchar(200);not null;index:idx_code_mapping_lookup,priority:2"`
	LucaValue   string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true;index:idx_code_mapping_lookup,priority:3"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CodeMappingModel) TableName() string {
	return "code_mappings"
}

// ToDomain converts the persistence model to a domain CodeMapping entity.
func (m *CodeMappingModel) ToDomain() *integration.CodeMapping {
	return &integration.CodeMapping{
		ID:          m.ID,
		MappingType: integration.MappingType(m.MappingType),
		KatanaValue: m.KatanaValue,
		LucaValue:   m.LucaValue,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CodeMapping entity.
func (m *CodeMappingModel) FromDomain(cm *integration.CodeMapping) {
	m.ID = cm.ID
	m.MappingType = string(cm.MappingType)
	m.KatanaValue = cm.KatanaValue
	m.LucaValue = cm.LucaValue
	m.Description = cm.Description
	m.IsActive = cm.IsActive
	m.CreatedAt = cm.CreatedAt
	m.UpdatedAt = cm.UpdatedAt
}

// DataCorrectionModel is the persistence model for the DataCorrection domain entity.
type DataCorrectionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	SourceSystem   string    `gorm:"type:varchar(20);not null"`
	EntityType     string    `gorm:"type:varchar(30);not null;index:idx_correction_entity,priority:1"`
	EntityID       string    `gorm:"type:varchar(100);not null;index:idx_correction_entity,priority:2"`
	FieldName      string    `gorm:"type:varchar(100);not null"`
	OriginalValue  string    `gorm:"type:text"`
	CorrectedValue string    `gorm:"type:text"`
	Reason         string    `gorm:"type:text"`
	IsApproved     bool      `gorm:"not null;default:false;index"`
	ApprovedBy     string    `gorm:"type:varchar(100)"`
	ApprovedAt     *time.Time
	AppliedAt      *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DataCorrectionModel) TableName() string {
	return "data_corrections"
}

// ToDomain converts the persistence model to a domain DataCorrection entity.
func (m *DataCorrectionModel) ToDomain() *integration.DataCorrection {
	return &integration.DataCorrection{
		ID:             m.ID,
		SourceSystem:   integration.SourceSystem(m.SourceSystem),
		EntityType:     integration.EntityType(m.EntityType),
		EntityID:       m.EntityID,
		FieldName:      m.FieldName,
		OriginalValue:  m.OriginalValue,
		CorrectedValue: m.CorrectedValue,
		Reason:         m.Reason,
		IsApproved:     m.IsApproved,
		ApprovedBy:     m.ApprovedBy,
		ApprovedAt:     m.ApprovedAt,
		AppliedAt:      m.AppliedAt,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain DataCorrection entity.
func (m *DataCorrectionModel) FromDomain(dc *integration.DataCorrection) {
	m.ID = dc.ID
	m.SourceSystem = string(dc.SourceSystem)
	m.EntityType = string(dc.EntityType)
	m.EntityID = dc.EntityID
	m.FieldName = dc.FieldName
	m.OriginalValue = dc.OriginalValue
	m.CorrectedValue = dc.CorrectedValue
	m.Reason = dc.Reason
	m.IsApproved = dc.IsApproved
	m.ApprovedBy = dc.ApprovedBy
	m.ApprovedAt = dc.ApprovedAt
	m.AppliedAt = dc.AppliedAt
	m.CreatedAt = dc.CreatedAt
}

// ApprovalRecordModel is the persistence model for the ApprovalRecord domain entity.
type ApprovalRecordModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID              string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	OrderNo              string    `gorm:"type:varchar(100)"`
	Status               string    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy           string    `gorm:"type:varchar(100)"`
	ApprovedAt           *time.Time
	RejectedReason       string    `gorm:"type:text"`
	StockMutationDone    bool      `gorm:"not null;default:false"`
	StockMutationSuccess bool      `gorm:"not null;default:false"`
	StockMutationMessage string    `gorm:"type:text"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApprovalRecordModel) TableName() string {
	return "approval_records"
}

// ToDomain converts the persistence model to a domain ApprovalRecord entity.
func (m *ApprovalRecordModel) ToDomain() *integration.ApprovalRecord {
	return &integration.ApprovalRecord{
		ID:                   m.ID,
		OrderID:              m.OrderID,
		OrderNo:              m.OrderNo,
		Status:               integration.ApprovalStatus(m.Status),
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt,
		RejectedReason:       m.RejectedReason,
		StockMutationDone:    m.StockMutationDone,
		StockMutationSuccess: m.StockMutationSuccess,
		StockMutationMessage: m.StockMutationMessage,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ApprovalRecord entity.
func (m *ApprovalRecordModel) FromDomain(ar *integration.ApprovalRecord) {
	m.ID = ar.ID
	m.OrderID = ar.OrderID
	m.OrderNo = ar.OrderNo
	m.Status = string(ar.Status)
	m.ApprovedBy = ar.ApprovedBy
	m.ApprovedAt = ar.ApprovedAt
	m.RejectedReason = ar.RejectedReason
	m.StockMutationDone = ar.StockMutationDone
	m.StockMutationSuccess = ar.StockMutationSuccess
	m.StockMutationMessage = ar.StockMutationMessage
	m.CreatedAt = ar.CreatedAt
	m.UpdatedAt = ar.UpdatedAt
}

package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncMapping tracks the sync state of one Katana record. There is exactly
// one row per (EntityType, KatanaID); rows are never deleted so the audit
// trail survives re-syncs.
type SyncMapping struct {
	ID         uuid.UUID
	EntityType EntityType
	KatanaID   string
	// LucaID stays nil until the first successful upsert
	LucaID       *string
	SyncStatus   SyncStatus
	LastSyncedAt *time.Time
	LastError    string
	// Version backs the optimistic concurrency check on writes; automatic
	// sync and manual correction can race on the same row.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSyncMapping creates a mapping for a record's first sync attempt
func NewSyncMapping(entityType EntityType, katanaID string) (*SyncMapping, error) {
	if !entityType.IsValid() {
		return nil, ErrInvalidEntityType
	}
	if katanaID == "" {
		return nil, ErrInvalidKatanaID
	}
	now := time.Now()
	return &SyncMapping{
		ID:         uuid.New(),
		EntityType: entityType,
		KatanaID:   katanaID,
		SyncStatus: SyncStatusNotSynced,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsSynced returns true once the record exists in Luca
func (m *SyncMapping) IsSynced() bool {
	return m.LucaID != nil && m.SyncStatus == SyncStatusSynced
}

// RecordSuccess marks a successful upsert. LucaID is only ever set here.
func (m *SyncMapping) RecordSuccess(lucaID string) {
	now := time.Now()
	m.LucaID = &lucaID
	m.SyncStatus = SyncStatusSynced
	m.LastSyncedAt = &now
	m.LastError = ""
	m.UpdatedAt = now
}

// RecordFailure marks a failed sync attempt. An existing LucaID is kept so
// a later retry still updates the same Luca record.
func (m *SyncMapping) RecordFailure(errMsg string) {
	m.SyncStatus = SyncStatusError
	m.LastError = errMsg
	m.UpdatedAt = time.Now()
}

// SyncMappingRepository persists sync mappings. Save must enforce the
// optimistic version check and return ErrSyncMappingConflict on a lost
// update.
type SyncMappingRepository interface {
	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncMapping, error)

	// FindByKatanaID finds the mapping for a source record
	FindByKatanaID(ctx context.Context, entityType EntityType, katanaID string) (*SyncMapping, error)

	// FindByEntityType lists mappings of one entity type, newest first
	FindByEntityType(ctx context.Context, entityType EntityType, page, pageSize int) ([]SyncMapping, int64, error)

	// CountByStatus counts mappings per sync status for one entity type
	CountByStatus(ctx context.Context, entityType EntityType) (map[SyncStatus]int64, error)

	// LastSyncedAt returns the most recent successful sync time for an
	// entity type; the zero time when nothing has synced yet. Used as the
	// modified-since watermark for incremental passes.
	LastSyncedAt(ctx context.Context, entityType EntityType) (time.Time, error)

	// Save creates or updates a mapping with an optimistic version check
	Save(ctx context.Context, mapping *SyncMapping) error
}

package integration

import (
	"context"
	"time"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// EntityStatus is the dashboard summary for one entity type
type EntityStatus struct {
	EntityType   integration.EntityType           `json:"entity_type"`
	Counts       map[integration.SyncStatus]int64 `json:"counts"`
	LastSyncedAt *time.Time                       `json:"last_synced_at,omitempty"`
}

// DashboardStatus is the sync overview served to the admin UI
type DashboardStatus struct {
	Entities      []EntityStatus                           `json:"entities"`
	FailedBacklog map[integration.FailedRecordStatus]int64 `json:"failed_backlog"`
	GeneratedAt   time.Time                                `json:"generated_at"`
}

// StatusService aggregates sync state for the dashboard
type StatusService struct {
	mappings integration.SyncMappingRepository
	failed   integration.FailedRecordRepository
}

// NewStatusService creates a StatusService
func NewStatusService(mappings integration.SyncMappingRepository, failed integration.FailedRecordRepository) *StatusService {
	return &StatusService{mappings: mappings, failed: failed}
}

// Status returns per-entity-type sync counts and the failed record backlog
func (s *StatusService) Status(ctx context.Context) (*DashboardStatus, error) {
	status := &DashboardStatus{GeneratedAt: time.Now()}

	for _, entityType := range integration.AllEntityTypes() {
		counts, err := s.mappings.CountByStatus(ctx, entityType)
		if err != nil {
			return nil, err
		}
		entity := EntityStatus{EntityType: entityType, Counts: counts}
		lastSynced, err := s.mappings.LastSyncedAt(ctx, entityType)
		if err != nil {
			return nil, err
		}
		if !lastSynced.IsZero() {
			entity.LastSyncedAt = &lastSynced
		}
		status.Entities = append(status.Entities, entity)
	}

	backlog, err := s.failed.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	status.FailedBacklog = backlog
	return status, nil
}

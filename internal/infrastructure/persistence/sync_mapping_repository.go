package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/infrastructure/persistence/models"
)

// GormSyncMappingRepository implements SyncMappingRepository using GORM
type GormSyncMappingRepository struct {
	db *gorm.DB
}

// NewGormSyncMappingRepository creates a new GormSyncMappingRepository
func NewGormSyncMappingRepository(db *gorm.DB) *GormSyncMappingRepository {
	return &GormSyncMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormSyncMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncMapping, error) {
	var model models.SyncMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKatanaID finds the mapping for a source record
func (r *GormSyncMappingRepository) FindByKatanaID(ctx context.Context, entityType integration.EntityType, katanaID string) (*integration.SyncMapping, error) {
	var model models.SyncMappingModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND katana_id = ?", string(entityType), katanaID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEntityType lists mappings of one entity type, newest first
func (r *GormSyncMappingRepository) FindByEntityType(ctx context.Context, entityType integration.EntityType, page, pageSize int) ([]integration.SyncMapping, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := r.db.WithContext(ctx).Model(&models.SyncMappingModel{}).
		Where("entity_type = ?", string(entityType))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mappingModels []models.SyncMappingModel
	if err := query.
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&mappingModels).Error; err != nil {
		return nil, 0, err
	}

	mappings := make([]integration.SyncMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, total, nil
}

// CountByStatus counts mappings per sync status for one entity type
func (r *GormSyncMappingRepository) CountByStatus(ctx context.Context, entityType integration.EntityType) (map[integration.SyncStatus]int64, error) {
	type statusCount struct {
		SyncStatus string
		Count      int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&models.SyncMappingModel{}).
		Select("sync_status, COUNT(*) as count").
		Where("entity_type = ?", string(entityType)).
		Group("sync_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.SyncStatus]int64, len(rows))
	for _, row := range rows {
		counts[integration.SyncStatus(row.SyncStatus)] = row.Count
	}
	return counts, nil
}

// LastSyncedAt returns the most recent successful sync time for an entity
// type; the zero time when nothing has synced yet.
func (r *GormSyncMappingRepository) LastSyncedAt(ctx context.Context, entityType integration.EntityType) (time.Time, error) {
	var model models.SyncMappingModel
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND last_synced_at IS NOT NULL", string(entityType)).
		Order("last_synced_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if model.LastSyncedAt == nil {
		return time.Time{}, nil
	}
	return *model.LastSyncedAt, nil
}

// Save creates or updates a mapping with an optimistic version check.
// A lost update surfaces as ErrSyncMappingConflict, never as silent
// last-writer-wins.
func (r *GormSyncMappingRepository) Save(ctx context.Context, mapping *integration.SyncMapping) error {
	var model models.SyncMappingModel
	model.FromDomain(mapping)

	var existing models.SyncMappingModel
	err := r.db.WithContext(ctx).First(&existing, "id = ?", mapping.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := r.db.WithContext(ctx).Create(&model).Error; createErr != nil {
			return createErr
		}
		return nil
	}
	if err != nil {
		return err
	}

	model.Version = mapping.Version + 1
	result := r.db.WithContext(ctx).Model(&models.SyncMappingModel{}).
		Where("id = ? AND version = ?", mapping.ID, mapping.Version).
		Updates(map[string]any{
			"luca_id":        model.LucaID,
			"sync_status":    model.SyncStatus,
			"last_synced_at": model.LastSyncedAt,
			"last_error":     model.LastError,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrSyncMappingConflict
	}

	mapping.Version = model.Version
	return nil
}

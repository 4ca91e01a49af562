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

// GormFailedRecordRepository implements FailedRecordRepository using GORM
type GormFailedRecordRepository struct {
	db *gorm.DB
}

// NewGormFailedRecordRepository creates a new GormFailedRecordRepository
func NewGormFailedRecordRepository(db *gorm.DB) *GormFailedRecordRepository {
	return &GormFailedRecordRepository{db: db}
}

// FindByID finds a record by its ID
func (r *GormFailedRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.FailedRecord, error) {
	var model models.FailedRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrFailedRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists records matching the filter, newest first
func (r *GormFailedRecordRepository) FindAll(ctx context.Context, filter integration.FailedRecordFilter) ([]integration.FailedRecord, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := r.db.WithContext(ctx).Model(&models.FailedRecordModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.RecordType != nil {
		query = query.Where("record_type = ?", string(*filter.RecordType))
	}
	if filter.SourceSystem != nil {
		query = query.Where("source_system = ?", string(*filter.SourceSystem))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recordModels []models.FailedRecordModel
	if err := query.
		Order("failed_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]integration.FailedRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// FindRetryCandidates returns FAILED retryable records whose backoff window
// has elapsed, oldest first, capped at limit
func (r *GormFailedRecordRepository) FindRetryCandidates(ctx context.Context, maxRetries, limit int, now time.Time) ([]integration.FailedRecord, error) {
	if limit < 1 {
		limit = 50
	}

	var recordModels []models.FailedRecordModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(integration.FailedRecordStatusFailed)).
		Where("failure_class = ?", string(integration.FailureClassRetryable)).
		Where("retry_count < ?", maxRetries).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("failed_at ASC").
		Limit(limit).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]integration.FailedRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// CountByStatus counts records per status
func (r *GormFailedRecordRepository) CountByStatus(ctx context.Context) (map[integration.FailedRecordStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&models.FailedRecordModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.FailedRecordStatus]int64, len(rows))
	for _, row := range rows {
		counts[integration.FailedRecordStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// Save creates or updates a record
func (r *GormFailedRecordRepository) Save(ctx context.Context, record *integration.FailedRecord) error {
	var model models.FailedRecordModel
	model.FromDomain(record)
	return r.db.WithContext(ctx).Save(&model).Error
}

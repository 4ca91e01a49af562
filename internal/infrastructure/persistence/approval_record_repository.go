package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/infrastructure/persistence/models"
)

// GormApprovalRecordRepository implements ApprovalRecordRepository using GORM
type GormApprovalRecordRepository struct {
	db *gorm.DB
}

// NewGormApprovalRecordRepository creates a new GormApprovalRecordRepository
func NewGormApprovalRecordRepository(db *gorm.DB) *GormApprovalRecordRepository {
	return &GormApprovalRecordRepository{db: db}
}

// FindByID finds an approval by its ID
func (r *GormApprovalRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ApprovalRecord, error) {
	var model models.ApprovalRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrApprovalNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds the approval for an order
func (r *GormApprovalRecordRepository) FindByOrderID(ctx context.Context, orderID string) (*integration.ApprovalRecord, error) {
	var model models.ApprovalRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrApprovalNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus lists approvals in one status, newest first
func (r *GormApprovalRecordRepository) FindByStatus(ctx context.Context, status integration.ApprovalStatus, page, pageSize int) ([]integration.ApprovalRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := r.db.WithContext(ctx).Model(&models.ApprovalRecordModel{}).
		Where("status = ?", string(status))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recordModels []models.ApprovalRecordModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]integration.ApprovalRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// Save creates or updates an approval
func (r *GormApprovalRecordRepository) Save(ctx context.Context, record *integration.ApprovalRecord) error {
	var model models.ApprovalRecordModel
	model.FromDomain(record)
	return r.db.WithContext(ctx).Save(&model).Error
}

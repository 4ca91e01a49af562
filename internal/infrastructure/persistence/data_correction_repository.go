package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/infrastructure/persistence/models"
)

// GormDataCorrectionRepository implements DataCorrectionRepository using GORM
type GormDataCorrectionRepository struct {
	db *gorm.DB
}

// NewGormDataCorrectionRepository creates a new GormDataCorrectionRepository
func NewGormDataCorrectionRepository(db *gorm.DB) *GormDataCorrectionRepository {
	return &GormDataCorrectionRepository{db: db}
}

// FindByID finds a correction by its ID
func (r *GormDataCorrectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DataCorrection, error) {
	var model models.DataCorrectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCorrectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending lists corrections awaiting approval, oldest first
func (r *GormDataCorrectionRepository) FindPending(ctx context.Context) ([]integration.DataCorrection, error) {
	var correctionModels []models.DataCorrectionModel
	if err := r.db.WithContext(ctx).
		Where("is_approved = ? AND applied_at IS NULL", false).
		Order("created_at ASC").
		Find(&correctionModels).Error; err != nil {
		return nil, err
	}

	corrections := make([]integration.DataCorrection, len(correctionModels))
	for i, model := range correctionModels {
		corrections[i] = *model.ToDomain()
	}
	return corrections, nil
}

// FindByEntity lists the correction history of one entity, newest first
func (r *GormDataCorrectionRepository) FindByEntity(ctx context.Context, entityType integration.EntityType, entityID string) ([]integration.DataCorrection, error) {
	var correctionModels []models.DataCorrectionModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", string(entityType), entityID).
		Order("created_at DESC").
		Find(&correctionModels).Error; err != nil {
		return nil, err
	}

	corrections := make([]integration.DataCorrection, len(correctionModels))
	for i, model := range correctionModels {
		corrections[i] = *model.ToDomain()
	}
	return corrections, nil
}

// Save creates or updates a correction
func (r *GormDataCorrectionRepository) Save(ctx context.Context, correction *integration.DataCorrection) error {
	var model models.DataCorrectionModel
	model.FromDomain(correction)
	return r.db.WithContext(ctx).Save(&model).Error
}

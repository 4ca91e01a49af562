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

// GormCodeMappingStore implements CodeMappingStore using GORM
type GormCodeMappingStore struct {
	db *gorm.DB
}

// NewGormCodeMappingStore creates a new GormCodeMappingStore
func NewGormCodeMappingStore(db *gorm.DB) *GormCodeMappingStore {
	return &GormCodeMappingStore{db: db}
}

// Resolve returns the active Luca value for a Katana code.
// Absence is ErrCodeMappingNotFound, never a silent default.
func (s *GormCodeMappingStore) Resolve(ctx context.Context, mappingType integration.MappingType, katanaValue string) (string, error) {
	var model models.CodeMappingModel
	err := s.db.WithContext(ctx).
		Where("mapping_type = ? AND katana_value = ? AND is_active = ?", string(mappingType), katanaValue, true).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", integration.ErrCodeMappingNotFound
	}
	if err != nil {
		return "", err
	}
	return model.LucaValue, nil
}

// Upsert activates a mapping, deactivating any previous active row for the
// same (mappingType, katanaValue) key
func (s *GormCodeMappingStore) Upsert(ctx context.Context, mapping *integration.CodeMapping) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CodeMappingModel{}).
			Where("mapping_type = ? AND katana_value = ? AND is_active = ? AND id <> ?",
				string(mapping.MappingType), mapping.KatanaValue, true, mapping.ID).
			Updates(map[string]any{
				"is_active":  false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		var model models.CodeMappingModel
		model.FromDomain(mapping)
		return tx.Save(&model).Error
	})
}

// List returns all mappings of one type, active first
func (s *GormCodeMappingStore) List(ctx context.Context, mappingType integration.MappingType) ([]integration.CodeMapping, error) {
	var mappingModels []models.CodeMappingModel
	if err := s.db.WithContext(ctx).
		Where("mapping_type = ?", string(mappingType)).
		Order("is_active DESC, katana_value ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.CodeMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Deactivate retires a mapping by ID
func (s *GormCodeMappingStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.CodeMappingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrCodeMappingNotFound
	}
	return nil
}

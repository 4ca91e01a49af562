package integration

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// CodeMappingService is the admin CRUD surface over the code mapping store
type CodeMappingService struct {
	store  integration.CodeMappingStore
	logger *zap.Logger
}

// NewCodeMappingService creates a CodeMappingService
func NewCodeMappingService(store integration.CodeMappingStore, logger *zap.Logger) *CodeMappingService {
	return &CodeMappingService{store: store, logger: logger}
}

// List returns all mappings of one type
func (s *CodeMappingService) List(ctx context.Context, mappingType integration.MappingType) ([]integration.CodeMapping, error) {
	if !mappingType.IsValid() {
		return nil, integration.ErrCodeMappingInvalid
	}
	return s.store.List(ctx, mappingType)
}

// Upsert activates a mapping, retiring any previous active row for the key
func (s *CodeMappingService) Upsert(ctx context.Context, mappingType integration.MappingType, katanaValue, lucaValue, description string) (*integration.CodeMapping, error) {
	mapping, err := integration.NewCodeMapping(mappingType, katanaValue, lucaValue, description)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	s.logger.Info("code mapping upserted",
		zap.String("mapping_type", mappingType.String()),
		zap.String("katana_value", katanaValue),
		zap.String("luca_value", lucaValue))
	return mapping, nil
}

// Deactivate retires a mapping by ID
func (s *CodeMappingService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.store.Deactivate(ctx, id)
}

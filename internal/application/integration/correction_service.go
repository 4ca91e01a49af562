package integration

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// SourceFetcher re-reads a record from Katana so a correction is applied
// against fresh data.
type SourceFetcher interface {
	FetchByID(ctx context.Context, entityType integration.EntityType, katanaID string) (integration.Record, error)
}

// CorrectionService manages the propose, approve, apply lifecycle of data
// corrections. Applying a correction re-syncs the entity from its source of
// truth: the operator fixes the value upstream, approval here authorizes
// pushing it through.
type CorrectionService struct {
	corrections integration.DataCorrectionRepository
	source      SourceFetcher
	syncer      RecordSyncer
	logger      *zap.Logger
}

// NewCorrectionService creates a CorrectionService
func NewCorrectionService(
	corrections integration.DataCorrectionRepository,
	source SourceFetcher,
	syncer RecordSyncer,
	logger *zap.Logger,
) *CorrectionService {
	return &CorrectionService{
		corrections: corrections,
		source:      source,
		syncer:      syncer,
		logger:      logger,
	}
}

// Propose records a correction for approval
func (s *CorrectionService) Propose(
	ctx context.Context,
	system integration.SourceSystem,
	entityType integration.EntityType,
	entityID, fieldName, originalValue, correctedValue, reason string,
) (*integration.DataCorrection, error) {
	correction, err := integration.NewDataCorrection(system, entityType, entityID, fieldName, originalValue, correctedValue, reason)
	if err != nil {
		return nil, err
	}
	if err := s.corrections.Save(ctx, correction); err != nil {
		return nil, err
	}
	s.logger.Info("correction proposed",
		zap.String("entity_type", entityType.String()),
		zap.String("entity_id", entityID),
		zap.String("field", fieldName))
	return correction, nil
}

// Approve authorizes a pending correction
func (s *CorrectionService) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*integration.DataCorrection, error) {
	correction, err := s.corrections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := correction.Approve(approvedBy); err != nil {
		return nil, err
	}
	if err := s.corrections.Save(ctx, correction); err != nil {
		return nil, err
	}
	return correction, nil
}

// Apply pushes an approved correction through the sync pipeline by
// re-fetching the entity from Katana and re-syncing it to Luca. The
// correction is marked applied only after the resync succeeds.
func (s *CorrectionService) Apply(ctx context.Context, id uuid.UUID) (*integration.DataCorrection, error) {
	correction, err := s.corrections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !correction.IsApproved {
		return nil, integration.ErrCorrectionNotApproved
	}
	if correction.AppliedAt != nil {
		return nil, integration.ErrCorrectionApplied
	}

	rec, err := s.source.FetchByID(ctx, correction.EntityType, correction.EntityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncer.SyncOne(ctx, rec); err != nil {
		return nil, err
	}

	if err := correction.MarkApplied(); err != nil {
		return nil, err
	}
	if err := s.corrections.Save(ctx, correction); err != nil {
		return nil, err
	}
	s.logger.Info("correction applied",
		zap.String("entity_type", correction.EntityType.String()),
		zap.String("entity_id", correction.EntityID),
		zap.String("field", correction.FieldName))
	return correction, nil
}

// ListPending returns corrections awaiting approval
func (s *CorrectionService) ListPending(ctx context.Context) ([]integration.DataCorrection, error) {
	return s.corrections.FindPending(ctx)
}

// History returns the correction trail of one entity, newest first
func (s *CorrectionService) History(ctx context.Context, entityType integration.EntityType, entityID string) ([]integration.DataCorrection, error) {
	return s.corrections.FindByEntity(ctx, entityType, entityID)
}

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// PassLocker serializes sync passes per entity type. Acquire returns
// shared.ErrPassInFlight when a pass for the same key is already running,
// here or on another instance.
type PassLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// OrchestratorConfig tunes a sync pass
type OrchestratorConfig struct {
	// Concurrency bounds the worker group within one pass
	Concurrency int
	// WatermarkLookback is subtracted from the stored watermark to absorb
	// clock skew between Katana and this service
	WatermarkLookback time.Duration
}

// PassResult summarizes one sync pass
type PassResult struct {
	EntityType integration.EntityType `json:"entity_type"`
	Created    int                    `json:"created"`
	Updated    int                    `json:"updated"`
	Skipped    int                    `json:"skipped"`
	Failed     int                    `json:"failed"`
	// Partial is set when the pass was cancelled before every fetched
	// record had been processed
	Partial bool `json:"partial"`
	// BatchError is set when the pass failed before any record was
	// processed (fetch or snapshot failure); no counts are produced
	BatchError string        `json:"batch_error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// SyncOutcome is the result of a single-record sync
type SyncOutcome struct {
	Mapping *integration.SyncMapping
	// Created is true when this sync produced the record in Luca for the
	// first time
	Created bool
}

// SyncOrchestrator drives records from Katana into Luca. Passes run the
// fetch, translate, upsert pipeline over every changed record of one entity
// type; SyncOne is the single-record path shared with retries and manual
// resends.
type SyncOrchestrator struct {
	source    integration.SourceClient
	target    integration.TargetClient
	mappings  integration.SyncMappingRepository
	failed    integration.FailedRecordRepository
	codes     integration.CodeMappingStore
	locks     PassLocker
	publisher shared.EventPublisher
	logger    *zap.Logger
	config    OrchestratorConfig
}

// NewSyncOrchestrator creates a SyncOrchestrator
func NewSyncOrchestrator(
	source integration.SourceClient,
	target integration.TargetClient,
	mappings integration.SyncMappingRepository,
	failed integration.FailedRecordRepository,
	codes integration.CodeMappingStore,
	locks PassLocker,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	config OrchestratorConfig,
) *SyncOrchestrator {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &SyncOrchestrator{
		source:    source,
		target:    target,
		mappings:  mappings,
		failed:    failed,
		codes:     codes,
		locks:     locks,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// ---------------------------------------------------------------------------
// Pass execution
// ---------------------------------------------------------------------------

// RunPass synchronizes every record of one entity type changed since the
// last successful sync. Passes of the same entity type are mutually
// exclusive; a second caller gets shared.ErrPassInFlight. Per-record
// failures are captured as failed records and never abort the batch.
func (o *SyncOrchestrator) RunPass(ctx context.Context, entityType integration.EntityType) (*PassResult, error) {
	if !entityType.IsValid() {
		return nil, integration.ErrInvalidEntityType
	}

	release, err := o.locks.Acquire(ctx, "sync:pass:"+entityType.String())
	if err != nil {
		return nil, err
	}
	defer release()

	result := &PassResult{EntityType: entityType, StartedAt: time.Now()}

	watermark, err := o.mappings.LastSyncedAt(ctx, entityType)
	if err != nil {
		result.BatchError = err.Error()
		return result, err
	}
	if !watermark.IsZero() && o.config.WatermarkLookback > 0 {
		watermark = watermark.Add(-o.config.WatermarkLookback)
	}

	records, err := o.source.FetchChanged(ctx, entityType, watermark)
	if err != nil {
		result.BatchError = err.Error()
		o.logger.Error("sync pass fetch failed",
			zap.String("entity_type", entityType.String()),
			zap.Error(err))
		return result, err
	}

	mctx, err := o.snapshotMappings(ctx, entityType)
	if err != nil {
		result.BatchError = err.Error()
		return result, err
	}

	o.logger.Info("sync pass started",
		zap.String("entity_type", entityType.String()),
		zap.Time("watermark", watermark),
		zap.Int("records", len(records)))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		jobs    = make(chan integration.Record)
		partial bool
	)

	// a record already handed to a worker finishes its upsert on a detached
	// context; cancellation only stops dispatch
	recordCtx := context.WithoutCancel(ctx)

	for i := 0; i < o.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				outcome := o.syncWithCapture(recordCtx, rec, mctx)
				mu.Lock()
				switch outcome {
				case passOutcomeCreated:
					result.Created++
				case passOutcomeUpdated:
					result.Updated++
				case passOutcomeSkipped:
					result.Skipped++
				case passOutcomeFailed:
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, rec := range records {
		select {
		case <-ctx.Done():
			// in-flight records finish, the rest are left for the next pass
			partial = true
			break dispatch
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()

	result.Partial = partial
	result.Duration = time.Since(result.StartedAt)

	event := integration.NewPassCompletedEvent(uuid.New(), entityType,
		result.Created, result.Updated, result.Skipped, result.Failed, result.Partial)
	if err := o.publisher.Publish(recordCtx, event); err != nil {
		o.logger.Warn("pass completed event not published", zap.Error(err))
	}

	o.logger.Info("sync pass completed",
		zap.String("entity_type", entityType.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Bool("partial", result.Partial),
		zap.Duration("duration", result.Duration))

	return result, nil
}

type passOutcome int

const (
	passOutcomeCreated passOutcome = iota
	passOutcomeUpdated
	passOutcomeSkipped
	passOutcomeFailed
)

// syncWithCapture runs one record through the pipeline and converts any
// failure into a FailedRecord. Nothing fails silently inside a pass.
func (o *SyncOrchestrator) syncWithCapture(ctx context.Context, rec integration.Record, mctx *integration.MappingContext) passOutcome {
	outcome, err := o.syncRecord(ctx, rec, mctx)
	if err == nil {
		return outcome
	}
	if errors.Is(err, errRecordUnchanged) {
		return passOutcomeSkipped
	}
	o.captureFailure(ctx, rec, err)
	return passOutcomeFailed
}

var errRecordUnchanged = errors.New("integration: record unchanged since last sync")

// syncRecord is the translate-and-upsert pipeline for one record. The
// caller supplies a mapping context snapshot so a pass resolves codes
// consistently even while mappings are edited.
func (o *SyncOrchestrator) syncRecord(ctx context.Context, rec integration.Record, mctx *integration.MappingContext) (passOutcome, error) {
	entityType := rec.RecordEntityType()

	mapping, err := o.mappings.FindByKatanaID(ctx, entityType, rec.SourceID())
	if err != nil {
		if !errors.Is(err, integration.ErrSyncMappingNotFound) {
			return passOutcomeFailed, err
		}
		mapping, err = integration.NewSyncMapping(entityType, rec.SourceID())
		if err != nil {
			return passOutcomeFailed, err
		}
	}

	if mapping.IsSynced() && mapping.LastSyncedAt != nil && !rec.ModifiedAt().After(*mapping.LastSyncedAt) {
		return passOutcomeSkipped, errRecordUnchanged
	}

	creating := mapping.LucaID == nil

	opts := integration.TranslateOptions{}
	if mapping.LucaID != nil {
		opts.LucaID = *mapping.LucaID
	}
	if accountType, accountID, ok := orderAccountRef(rec); ok {
		accountMapping, err := o.mappings.FindByKatanaID(ctx, accountType, accountID)
		if err != nil || !accountMapping.IsSynced() {
			return passOutcomeFailed, o.failMapping(ctx, mapping,
				fmt.Errorf("%w: %s %s not synced to luca", integration.ErrTranslationFailed, accountType, accountID))
		}
		opts.AccountLucaID = *accountMapping.LucaID
	}

	payload, err := integration.ToLucaPayload(rec, mctx, opts)
	if err != nil {
		return passOutcomeFailed, o.failMapping(ctx, mapping, err)
	}

	lucaID, err := o.target.Upsert(ctx, entityType, payload)
	if err != nil {
		return passOutcomeFailed, o.failMapping(ctx, mapping, err)
	}

	mapping.RecordSuccess(lucaID)
	if err := o.saveMapping(ctx, mapping); err != nil {
		return passOutcomeFailed, err
	}

	if creating {
		return passOutcomeCreated, nil
	}
	return passOutcomeUpdated, nil
}

// failMapping records the failure on the sync mapping and returns the
// original error for failed-record capture.
func (o *SyncOrchestrator) failMapping(ctx context.Context, mapping *integration.SyncMapping, cause error) error {
	mapping.RecordFailure(cause.Error())
	if err := o.saveMapping(ctx, mapping); err != nil {
		o.logger.Error("sync mapping not saved after failure",
			zap.String("katana_id", mapping.KatanaID),
			zap.Error(err))
	}
	return cause
}

// saveMapping saves with one immediate retry on an optimistic concurrency
// conflict: the state transition is re-applied onto the fresh row. A second
// conflict surfaces as an error and goes through normal failure capture.
func (o *SyncOrchestrator) saveMapping(ctx context.Context, mapping *integration.SyncMapping) error {
	err := o.mappings.Save(ctx, mapping)
	if err == nil || !errors.Is(err, integration.ErrSyncMappingConflict) {
		return err
	}

	fresh, findErr := o.mappings.FindByKatanaID(ctx, mapping.EntityType, mapping.KatanaID)
	if findErr != nil {
		return err
	}
	if mapping.SyncStatus == integration.SyncStatusSynced && mapping.LucaID != nil {
		fresh.RecordSuccess(*mapping.LucaID)
	} else {
		fresh.RecordFailure(mapping.LastError)
	}
	if saveErr := o.mappings.Save(ctx, fresh); saveErr != nil {
		return saveErr
	}
	*mapping = *fresh
	return nil
}

// captureFailure persists a FailedRecord for a per-record failure and
// publishes the notification event.
func (o *SyncOrchestrator) captureFailure(ctx context.Context, rec integration.Record, cause error) {
	snapshot, encodeErr := integration.EncodeRecord(rec)
	if encodeErr != nil {
		snapshot = ""
	}

	failedRecord, err := integration.NewFailedRecord(
		rec.RecordEntityType(),
		integration.SourceSystemKatana,
		snapshot,
		cause.Error(),
		errorCode(cause),
		integration.Classify(cause),
	)
	if err != nil {
		o.logger.Error("failed record not created",
			zap.String("katana_id", rec.SourceID()),
			zap.Error(err))
		return
	}

	if err := o.failed.Save(ctx, failedRecord); err != nil {
		o.logger.Error("failed record not saved",
			zap.String("katana_id", rec.SourceID()),
			zap.Error(err))
		return
	}

	o.logger.Warn("record sync failed",
		zap.String("entity_type", rec.RecordEntityType().String()),
		zap.String("katana_id", rec.SourceID()),
		zap.String("failure_class", string(failedRecord.FailureClass)),
		zap.Error(cause))

	if err := o.publisher.Publish(ctx, integration.NewRecordFailedEvent(failedRecord)); err != nil {
		o.logger.Warn("record failed event not published", zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Single-record path
// ---------------------------------------------------------------------------

// SyncOne pushes a single record through translate and upsert. It does not
// take the pass lock and does not create failed records; callers own both
// concerns. Retries and manual resends come through here.
func (o *SyncOrchestrator) SyncOne(ctx context.Context, rec integration.Record) (*SyncOutcome, error) {
	entityType := rec.RecordEntityType()

	mctx, err := o.snapshotMappings(ctx, entityType)
	if err != nil {
		return nil, err
	}

	outcome, err := o.syncRecord(ctx, rec, mctx)
	if err != nil && !errors.Is(err, errRecordUnchanged) {
		return nil, err
	}

	mapping, findErr := o.mappings.FindByKatanaID(ctx, entityType, rec.SourceID())
	if findErr != nil {
		return nil, findErr
	}
	return &SyncOutcome{Mapping: mapping, Created: outcome == passOutcomeCreated}, nil
}

// IncreaseSourceStock applies a stock increment in Katana. Used by the
// approval workflow as the compensating source-side mutation.
func (o *SyncOrchestrator) IncreaseSourceStock(ctx context.Context, adj integration.StockAdjustment) (*integration.StockMutationResult, error) {
	result, err := o.source.MutateStock(ctx, adj)
	if err != nil {
		o.logger.Error("katana stock mutation failed",
			zap.String("sku", adj.SKU),
			zap.String("reference", adj.Reference),
			zap.Error(err))
		return nil, err
	}
	o.logger.Info("katana stock mutated",
		zap.String("sku", adj.SKU),
		zap.String("quantity", adj.Quantity.String()),
		zap.String("reference", adj.Reference))
	return result, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// snapshotMappings loads the code mappings a translation of this entity
// type can touch into an immutable context.
func (o *SyncOrchestrator) snapshotMappings(ctx context.Context, entityType integration.EntityType) (*integration.MappingContext, error) {
	var all []integration.CodeMapping
	for _, mappingType := range integration.RequiredMappingTypes(entityType) {
		mappings, err := o.codes.List(ctx, mappingType)
		if err != nil {
			return nil, fmt.Errorf("loading %s mappings: %w", mappingType, err)
		}
		all = append(all, mappings...)
	}
	return integration.NewMappingContext(all), nil
}

// orderAccountRef returns the account mapping an order payload depends on
func orderAccountRef(rec integration.Record) (integration.EntityType, string, bool) {
	switch r := rec.(type) {
	case *integration.SalesOrder:
		return integration.EntityTypeCustomer, r.CustomerKatanaID, true
	case *integration.PurchaseOrder:
		return integration.EntityTypeSupplier, r.SupplierKatanaID, true
	default:
		return "", "", false
	}
}

// errorCode extracts a stable code for the failed-record listing
func errorCode(err error) string {
	var vendorErr *integration.VendorError
	if errors.As(err, &vendorErr) {
		return fmt.Sprintf("%s_%d", vendorErr.System, vendorErr.StatusCode)
	}
	switch {
	case errors.Is(err, integration.ErrCodeMappingNotFound):
		return "CODE_MAPPING_MISSING"
	case errors.Is(err, integration.ErrMissingRequired):
		return "MISSING_REQUIRED"
	case errors.Is(err, integration.ErrTranslationFailed):
		return "TRANSLATION_FAILED"
	case errors.Is(err, integration.ErrPayloadSchema):
		return "PAYLOAD_SCHEMA"
	default:
		return "SYNC_FAILED"
	}
}

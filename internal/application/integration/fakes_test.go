package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// In-memory fakes shared by the application service tests
// ---------------------------------------------------------------------------

type fakeSourceClient struct {
	mu       sync.Mutex
	records  map[integration.EntityType][]integration.Record
	fetchErr error
	stockErr error
	// adjustments records every MutateStock call
	adjustments []integration.StockAdjustment
}

func newFakeSource() *fakeSourceClient {
	return &fakeSourceClient{records: make(map[integration.EntityType][]integration.Record)}
}

func (f *fakeSourceClient) add(rec integration.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.RecordEntityType()] = append(f.records[rec.RecordEntityType()], rec)
}

func (f *fakeSourceClient) FetchChanged(_ context.Context, entityType integration.EntityType, since time.Time) ([]integration.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []integration.Record
	for _, rec := range f.records[entityType] {
		if since.IsZero() || rec.ModifiedAt().After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeSourceClient) FetchByID(_ context.Context, entityType integration.EntityType, katanaID string) (integration.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	for _, rec := range f.records[entityType] {
		if rec.SourceID() == katanaID {
			return rec, nil
		}
	}
	return nil, &integration.VendorError{
		System: integration.SourceSystemKatana, Op: "fetch", StatusCode: 404,
		Message: "not found", Err: integration.ErrVendorRejected,
	}
}

func (f *fakeSourceClient) MutateStock(_ context.Context, adj integration.StockAdjustment) (*integration.StockMutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjustments = append(f.adjustments, adj)
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	return &integration.StockMutationResult{Success: true, NewStock: adj.Quantity}, nil
}

type fakeTargetClient struct {
	mu        sync.Mutex
	upsertErr error
	// failFor makes Upsert fail for specific katana refs
	failFor map[string]error
	records map[string]*integration.LucaRecord
	upserts int
	nextID  int
}

func newFakeTarget() *fakeTargetClient {
	return &fakeTargetClient{
		failFor: make(map[string]error),
		records: make(map[string]*integration.LucaRecord),
	}
}

func (f *fakeTargetClient) Upsert(_ context.Context, _ integration.EntityType, payload integration.LucaPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	if err, ok := f.failFor[payload.KatanaRef()]; ok {
		return "", err
	}
	if id := payload.LucaRef(); id != "" {
		return id, nil
	}
	f.nextID++
	return "luca-" + payload.KatanaRef(), nil
}

func (f *fakeTargetClient) FetchByID(_ context.Context, entityType integration.EntityType, lucaID string) (*integration.LucaRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[lucaID]; ok {
		return rec, nil
	}
	return nil, &integration.VendorError{
		System: integration.SourceSystemLuca, Op: "fetch", StatusCode: 404,
		Message: "not found", Err: integration.ErrVendorRejected,
	}
}

type memSyncMappingRepo struct {
	mu       sync.Mutex
	byKey    map[string]*integration.SyncMapping
	saveErr  error
	conflict int // fail the next N saves with a version conflict
}

func newMemSyncMappingRepo() *memSyncMappingRepo {
	return &memSyncMappingRepo{byKey: make(map[string]*integration.SyncMapping)}
}

func mappingKey(entityType integration.EntityType, katanaID string) string {
	return entityType.String() + "/" + katanaID
}

func (r *memSyncMappingRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.SyncMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byKey {
		if m.ID == id {
			copy := *m
			return &copy, nil
		}
	}
	return nil, integration.ErrSyncMappingNotFound
}

func (r *memSyncMappingRepo) FindByKatanaID(_ context.Context, entityType integration.EntityType, katanaID string) (*integration.SyncMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byKey[mappingKey(entityType, katanaID)]; ok {
		copy := *m
		return &copy, nil
	}
	return nil, integration.ErrSyncMappingNotFound
}

func (r *memSyncMappingRepo) FindByEntityType(_ context.Context, entityType integration.EntityType, _, _ int) ([]integration.SyncMapping, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.SyncMapping
	for _, m := range r.byKey {
		if m.EntityType == entityType {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memSyncMappingRepo) CountByStatus(_ context.Context, entityType integration.EntityType) (map[integration.SyncStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[integration.SyncStatus]int64)
	for _, m := range r.byKey {
		if m.EntityType == entityType {
			counts[m.SyncStatus]++
		}
	}
	return counts, nil
}

func (r *memSyncMappingRepo) LastSyncedAt(_ context.Context, entityType integration.EntityType) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest time.Time
	for _, m := range r.byKey {
		if m.EntityType == entityType && m.LastSyncedAt != nil && m.LastSyncedAt.After(latest) {
			latest = *m.LastSyncedAt
		}
	}
	return latest, nil
}

func (r *memSyncMappingRepo) Save(_ context.Context, mapping *integration.SyncMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.conflict > 0 {
		r.conflict--
		return integration.ErrSyncMappingConflict
	}
	mapping.Version++
	copy := *mapping
	r.byKey[mappingKey(mapping.EntityType, mapping.KatanaID)] = &copy
	return nil
}

type memFailedRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*integration.FailedRecord
}

func newMemFailedRecordRepo() *memFailedRecordRepo {
	return &memFailedRecordRepo{records: make(map[uuid.UUID]*integration.FailedRecord)}
}

func (r *memFailedRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.FailedRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, integration.ErrFailedRecordNotFound
}

func (r *memFailedRecordRepo) FindAll(_ context.Context, filter integration.FailedRecordFilter) ([]integration.FailedRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.FailedRecord
	for _, rec := range r.records {
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.RecordType != nil && rec.RecordType != *filter.RecordType {
			continue
		}
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *memFailedRecordRepo) FindRetryCandidates(_ context.Context, maxRetries, limit int, now time.Time) ([]integration.FailedRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.FailedRecord
	for _, rec := range r.records {
		if rec.EligibleForRetry(maxRetries, now) {
			out = append(out, *rec)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memFailedRecordRepo) CountByStatus(_ context.Context) (map[integration.FailedRecordStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[integration.FailedRecordStatus]int64)
	for _, rec := range r.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func (r *memFailedRecordRepo) Save(_ context.Context, record *integration.FailedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *record
	r.records[record.ID] = &copy
	return nil
}

func (r *memFailedRecordRepo) all() []integration.FailedRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.FailedRecord
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}

type memCodeMappingStore struct {
	mu       sync.Mutex
	mappings []integration.CodeMapping
}

func (s *memCodeMappingStore) Resolve(_ context.Context, mappingType integration.MappingType, katanaValue string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.IsActive && m.MappingType == mappingType && m.KatanaValue == katanaValue {
			return m.LucaValue, nil
		}
	}
	return "", integration.ErrCodeMappingNotFound
}

func (s *memCodeMappingStore) Upsert(_ context.Context, mapping *integration.CodeMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].MappingType == mapping.MappingType && s.mappings[i].KatanaValue == mapping.KatanaValue {
			s.mappings[i].IsActive = false
		}
	}
	s.mappings = append(s.mappings, *mapping)
	return nil
}

func (s *memCodeMappingStore) List(_ context.Context, mappingType integration.MappingType) ([]integration.CodeMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []integration.CodeMapping
	for _, m := range s.mappings {
		if m.MappingType == mappingType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memCodeMappingStore) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].ID == id {
			s.mappings[i].IsActive = false
			return nil
		}
	}
	return integration.ErrCodeMappingNotFound
}

type memApprovalRepo struct {
	mu      sync.Mutex
	records map[string]*integration.ApprovalRecord
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{records: make(map[string]*integration.ApprovalRecord)}
}

func (r *memApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.ApprovalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			copy := *rec
			return &copy, nil
		}
	}
	return nil, integration.ErrApprovalNotFound
}

func (r *memApprovalRepo) FindByOrderID(_ context.Context, orderID string) (*integration.ApprovalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[orderID]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, integration.ErrApprovalNotFound
}

func (r *memApprovalRepo) FindByStatus(_ context.Context, status integration.ApprovalStatus, _, _ int) ([]integration.ApprovalRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.ApprovalRecord
	for _, rec := range r.records {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memApprovalRepo) Save(_ context.Context, record *integration.ApprovalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *record
	r.records[record.OrderID] = &copy
	return nil
}

type memCorrectionRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*integration.DataCorrection
}

func newMemCorrectionRepo() *memCorrectionRepo {
	return &memCorrectionRepo{records: make(map[uuid.UUID]*integration.DataCorrection)}
}

func (r *memCorrectionRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.DataCorrection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, integration.ErrCorrectionNotFound
}

func (r *memCorrectionRepo) FindPending(_ context.Context) ([]integration.DataCorrection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.DataCorrection
	for _, rec := range r.records {
		if !rec.IsApproved {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memCorrectionRepo) FindByEntity(_ context.Context, entityType integration.EntityType, entityID string) ([]integration.DataCorrection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.DataCorrection
	for _, rec := range r.records {
		if rec.EntityType == entityType && rec.EntityID == entityID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memCorrectionRepo) Save(_ context.Context, correction *integration.DataCorrection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *correction
	r.records[correction.ID] = &copy
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, shared.ErrPassInFlight
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// ---------------------------------------------------------------------------
// Test data helpers
// ---------------------------------------------------------------------------

func testProductRecord(katanaID, sku string) *integration.Product {
	return &integration.Product{
		KatanaID:       katanaID,
		SKU:            sku,
		Name:           "Widget " + sku,
		Category:       "Raw Materials",
		UnitOfMeasure:  "pcs",
		SalesPrice:     decimal.NewFromFloat(10.50),
		TaxRatePercent: decimal.NewFromInt(18),
		OnHand:         decimal.NewFromInt(100),
		IsActive:       true,
		UpdatedAt:      time.Now(),
	}
}

func productCodeMappings() []integration.CodeMapping {
	category, _ := integration.NewCodeMapping(integration.MappingTypeCategory, "Raw Materials", "150", "")
	unit, _ := integration.NewCodeMapping(integration.MappingTypeUnitOfMeasure, "pcs", "AD", "")
	return []integration.CodeMapping{*category, *unit}
}

func newTestOrchestrator(source *fakeSourceClient, target *fakeTargetClient) (*SyncOrchestrator, *memSyncMappingRepo, *memFailedRecordRepo, *capturingPublisher) {
	mappings := newMemSyncMappingRepo()
	failed := newMemFailedRecordRepo()
	codes := &memCodeMappingStore{mappings: productCodeMappings()}
	publisher := &capturingPublisher{}
	orch := NewSyncOrchestrator(source, target, mappings, failed, codes, newFakeLocker(), publisher,
		zap.NewNop(), OrchestratorConfig{Concurrency: 2})
	return orch, mappings, failed, publisher
}

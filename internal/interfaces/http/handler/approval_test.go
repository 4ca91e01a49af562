package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/interfaces/http/dto"
)

type fakeApprovalManager struct {
	record  *integration.ApprovalRecord
	records []integration.ApprovalRecord
	total   int64
	err     error

	createdOrderID string
	lastOrderID    string
	lastDecidedBy  string
	lastReason     string
	lastStatus     integration.ApprovalStatus
}

func (f *fakeApprovalManager) Create(ctx context.Context, orderID, orderNo string) (*integration.ApprovalRecord, error) {
	f.createdOrderID = orderID
	return f.record, f.err
}

func (f *fakeApprovalManager) Approve(ctx context.Context, orderID, approvedBy string) (*integration.ApprovalRecord, error) {
	f.lastOrderID = orderID
	f.lastDecidedBy = approvedBy
	return f.record, f.err
}

func (f *fakeApprovalManager) Reject(ctx context.Context, orderID, rejectedBy, reason string) (*integration.ApprovalRecord, error) {
	f.lastOrderID = orderID
	f.lastDecidedBy = rejectedBy
	f.lastReason = reason
	return f.record, f.err
}

func (f *fakeApprovalManager) ListByStatus(ctx context.Context, status integration.ApprovalStatus, page, pageSize int) ([]integration.ApprovalRecord, int64, error) {
	f.lastStatus = status
	return f.records, f.total, f.err
}

func newApproval(t *testing.T) *integration.ApprovalRecord {
	t.Helper()
	record, err := integration.NewApprovalRecord("8801", "SO-2026-014")
	require.NoError(t, err)
	return record
}

func TestApprovalHandler_Create(t *testing.T) {
	t.Run("opens a pending approval", func(t *testing.T) {
		manager := &fakeApprovalManager{record: newApproval(t)}
		engine := setupRouter(NewApprovalHandler(manager))

		w, resp := performRequest(t, engine, http.MethodPost, "/api/v1/approvals",
			map[string]any{"order_id": "8801", "order_no": "SO-2026-014"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "8801", manager.createdOrderID)

		var got ApprovalResponse
		decodeData(t, resp, &got)
		assert.Equal(t, string(integration.ApprovalStatusPending), got.Status)
		assert.False(t, got.StockMutationDone)
	})

	t.Run("missing order number answers 400", func(t *testing.T) {
		engine := setupRouter(NewApprovalHandler(&fakeApprovalManager{}))

		w, _ := performRequest(t, engine, http.MethodPost, "/api/v1/approvals",
			map[string]any{"order_id": "8801"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate order answers 409", func(t *testing.T) {
		engine := setupRouter(NewApprovalHandler(&fakeApprovalManager{err: integration.ErrApprovalAlreadyDone}))

		w, resp := performRequest(t, engine, http.MethodPost, "/api/v1/approvals",
			map[string]any{"order_id": "8801", "order_no": "SO-2026-014"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)
	})
}

func TestApprovalHandler_List(t *testing.T) {
	t.Run("defaults to pending", func(t *testing.T) {
		manager := &fakeApprovalManager{records: []integration.ApprovalRecord{*newApproval(t)}, total: 1}
		engine := setupRouter(NewApprovalHandler(manager))

		w, resp := performRequest(t, engine, http.MethodGet, "/api/v1/approvals", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, integration.ApprovalStatusPending, manager.lastStatus)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("explicit status filter", func(t *testing.T) {
		manager := &fakeApprovalManager{}
		engine := setupRouter(NewApprovalHandler(manager))

		w, _ := performRequest(t, engine, http.MethodGet, "/api/v1/approvals?status=REJECTED", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, integration.ApprovalStatusRejected, manager.lastStatus)
	})
}

func TestApprovalHandler_Approve(t *testing.T) {
	t.Run("approves an order", func(t *testing.T) {
		record := newApproval(t)
		require.NoError(t, record.Approve("ayse"))
		manager := &fakeApprovalManager{record: record}
		engine := setupRouter(NewApprovalHandler(manager))

		w, resp := performRequest(t, engine, http.MethodPost, "/api/v1/approvals/8801/approve",
			map[string]any{"decided_by": "ayse"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "8801", manager.lastOrderID)
		assert.Equal(t, "ayse", manager.lastDecidedBy)

		var got ApprovalResponse
		decodeData(t, resp, &got)
		assert.Equal(t, string(integration.ApprovalStatusApproved), got.Status)
	})

	t.Run("missing decider answers 400", func(t *testing.T) {
		engine := setupRouter(NewApprovalHandler(&fakeApprovalManager{}))

		w, _ := performRequest(t, engine, http.MethodPost, "/api/v1/approvals/8801/approve",
			map[string]any{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already decided answers 422", func(t *testing.T) {
		engine := setupRouter(NewApprovalHandler(&fakeApprovalManager{err: integration.ErrApprovalNotPending}))

		w, resp := performRequest(t, engine, http.MethodPost, "/api/v1/approvals/8801/approve",
			map[string]any{"decided_by": "ayse"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	})
}

func TestApprovalHandler_Reject(t *testing.T) {
	t.Run("rejects with reason", func(t *testing.T) {
		record := newApproval(t)
		require.NoError(t, record.Reject("mehmet", "customer cancelled"))
		manager := &fakeApprovalManager{record: record}
		engine := setupRouter(NewApprovalHandler(manager))

		w, resp := performRequest(t, engine, http.MethodPost, "/api/v1/approvals/8801/reject",
			map[string]any{"decided_by": "mehmet", "reason": "customer cancelled"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "customer cancelled", manager.lastReason)

		var got ApprovalResponse
		decodeData(t, resp, &got)
		assert.Equal(t, string(integration.ApprovalStatusRejected), got.Status)
	})
}

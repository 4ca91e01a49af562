package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

func testOrderRecord(orderID, orderNo string, lines int) *integration.SalesOrder {
	order := &integration.SalesOrder{
		KatanaID:         orderID,
		OrderNo:          orderNo,
		CustomerKatanaID: "cust-1",
		Total:            decimal.NewFromInt(100),
		OrderedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	for i := 0; i < lines; i++ {
		order.Lines = append(order.Lines, integration.OrderLine{
			SKU:          "SKU-" + string(rune('1'+i)),
			ProductName:  "Widget",
			Quantity:     decimal.NewFromInt(int64(i + 1)),
			PricePerUnit: decimal.NewFromInt(10),
		})
	}
	return order
}

func newApprovalFixture(t *testing.T) (*ApprovalService, *memApprovalRepo, *fakeSourceClient, *capturingPublisher) {
	t.Helper()
	source := newFakeSource()
	orch, _, _, _ := newTestOrchestrator(source, newFakeTarget())
	repo := newMemApprovalRepo()
	publisher := &capturingPublisher{}
	service := NewApprovalService(repo, source, orch, publisher, zap.NewNop())
	return service, repo, source, publisher
}

func TestApprovalService_Create(t *testing.T) {
	service, _, _, publisher := newApprovalFixture(t)

	record, err := service.Create(context.Background(), "so-1", "SO-1")
	require.NoError(t, err)
	assert.Equal(t, integration.ApprovalStatusPending, record.Status)
	assert.Contains(t, publisher.typesSeen(), integration.EventTypeApprovalCreated)

	// an order gets exactly one approval record
	_, err = service.Create(context.Background(), "so-1", "SO-1")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestApprovalService_Approve(t *testing.T) {
	t.Run("approval increments stock per line", func(t *testing.T) {
		service, repo, source, publisher := newApprovalFixture(t)
		source.add(testOrderRecord("so-1", "SO-1", 2))
		_, err := service.Create(context.Background(), "so-1", "SO-1")
		require.NoError(t, err)

		record, err := service.Approve(context.Background(), "so-1", "admin")
		require.NoError(t, err)
		assert.Equal(t, integration.ApprovalStatusApproved, record.Status)
		assert.True(t, record.StockMutationDone)
		assert.True(t, record.StockMutationSuccess)
		assert.Len(t, source.adjustments, 2)
		assert.Equal(t, "approval:SO-1", source.adjustments[0].Reference)
		assert.Contains(t, publisher.typesSeen(), integration.EventTypeApprovalDecided)

		stored, err := repo.FindByOrderID(context.Background(), "so-1")
		require.NoError(t, err)
		assert.True(t, stored.StockMutationDone)
	})

	t.Run("approving twice mutates stock at most once", func(t *testing.T) {
		service, _, source, _ := newApprovalFixture(t)
		source.add(testOrderRecord("so-1", "SO-1", 1))
		_, err := service.Create(context.Background(), "so-1", "SO-1")
		require.NoError(t, err)

		_, err = service.Approve(context.Background(), "so-1", "admin")
		require.NoError(t, err)
		require.Len(t, source.adjustments, 1)

		_, err = service.Approve(context.Background(), "so-1", "admin")
		assert.ErrorIs(t, err, integration.ErrApprovalAlreadyDone)
		assert.Len(t, source.adjustments, 1, "second approval must not mutate stock again")
	})

	t.Run("failed mutation leaves the record approved", func(t *testing.T) {
		service, repo, source, _ := newApprovalFixture(t)
		source.add(testOrderRecord("so-1", "SO-1", 1))
		source.stockErr = &integration.VendorError{
			System: integration.SourceSystemKatana, Op: "stock", StatusCode: 500,
			Message: "boom", Err: integration.ErrVendorUnavailable,
		}
		_, err := service.Create(context.Background(), "so-1", "SO-1")
		require.NoError(t, err)

		record, err := service.Approve(context.Background(), "so-1", "admin")
		require.NoError(t, err)
		assert.Equal(t, integration.ApprovalStatusApproved, record.Status)
		assert.True(t, record.StockMutationDone)
		assert.False(t, record.StockMutationSuccess)
		assert.NotEmpty(t, record.StockMutationMessage)

		// the claim is persisted, so even a retried approval cannot re-run
		stored, err := repo.FindByOrderID(context.Background(), "so-1")
		require.NoError(t, err)
		assert.True(t, stored.StockMutationDone)
	})

	t.Run("unknown order", func(t *testing.T) {
		service, _, _, _ := newApprovalFixture(t)
		_, err := service.Approve(context.Background(), "missing", "admin")
		assert.ErrorIs(t, err, integration.ErrApprovalNotFound)
	})
}

func TestApprovalService_Reject(t *testing.T) {
	service, _, source, publisher := newApprovalFixture(t)
	source.add(testOrderRecord("so-1", "SO-1", 1))
	_, err := service.Create(context.Background(), "so-1", "SO-1")
	require.NoError(t, err)

	record, err := service.Reject(context.Background(), "so-1", "admin", "duplicate")
	require.NoError(t, err)
	assert.Equal(t, integration.ApprovalStatusRejected, record.Status)
	assert.Empty(t, source.adjustments, "rejection has no side effects")
	assert.Contains(t, publisher.typesSeen(), integration.EventTypeApprovalDecided)

	// rejection is terminal
	_, err = service.Approve(context.Background(), "so-1", "admin")
	assert.ErrorIs(t, err, integration.ErrApprovalNotPending)
}

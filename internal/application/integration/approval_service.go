package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/domain/shared"
)

// StockMutator is the Katana stock increment path the approval workflow
// depends on.
type StockMutator interface {
	IncreaseSourceStock(ctx context.Context, adj integration.StockAdjustment) (*integration.StockMutationResult, error)
}

// ApprovalService runs the order approval workflow. Approving an order
// triggers a compensating stock increment in Katana, executed at most once
// per approval; a failed mutation leaves the order APPROVED and flagged for
// manual follow-up, because the business decision already happened.
type ApprovalService struct {
	approvals integration.ApprovalRecordRepository
	source    integration.SourceClient
	stock     StockMutator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewApprovalService creates an ApprovalService
func NewApprovalService(
	approvals integration.ApprovalRecordRepository,
	source integration.SourceClient,
	stock StockMutator,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		approvals: approvals,
		source:    source,
		stock:     stock,
		publisher: publisher,
		logger:    logger,
	}
}

// Create opens a pending approval for an order. An order has at most one
// approval record.
func (s *ApprovalService) Create(ctx context.Context, orderID, orderNo string) (*integration.ApprovalRecord, error) {
	existing, err := s.approvals.FindByOrderID(ctx, orderID)
	if err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}
	if err != nil && !errors.Is(err, integration.ErrApprovalNotFound) {
		return nil, err
	}

	record, err := integration.NewApprovalRecord(orderID, orderNo)
	if err != nil {
		return nil, err
	}
	if err := s.approvals.Save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, integration.NewApprovalCreatedEvent(record))
	return record, nil
}

// Approve decides an approval and runs the stock increment. The APPROVED
// transition and the mutation claim are persisted before the Katana call,
// so a crash or a concurrent second approval can never run the mutation
// twice.
func (s *ApprovalService) Approve(ctx context.Context, orderID, approvedBy string) (*integration.ApprovalRecord, error) {
	record, err := s.approvals.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := record.Approve(approvedBy); err != nil {
		return nil, err
	}
	if err := record.ClaimStockMutation(); err != nil {
		return nil, err
	}
	if err := s.approvals.Save(ctx, record); err != nil {
		return nil, err
	}

	success, message := s.runStockMutation(ctx, record)
	record.RecordStockMutation(success, message)
	if err := s.approvals.Save(ctx, record); err != nil {
		return nil, err
	}

	s.publish(ctx, integration.NewApprovalDecidedEvent(record))
	return record, nil
}

// Reject closes an approval without side effects
func (s *ApprovalService) Reject(ctx context.Context, orderID, rejectedBy, reason string) (*integration.ApprovalRecord, error) {
	record, err := s.approvals.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := record.Reject(rejectedBy, reason); err != nil {
		return nil, err
	}
	if err := s.approvals.Save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, integration.NewApprovalDecidedEvent(record))
	return record, nil
}

// ListByStatus returns approvals in one status, newest first
func (s *ApprovalService) ListByStatus(ctx context.Context, status integration.ApprovalStatus, page, pageSize int) ([]integration.ApprovalRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.approvals.FindByStatus(ctx, status, page, pageSize)
}

// runStockMutation increments Katana stock for every line of the approved
// order. Line failures are collected; any failure marks the mutation failed
// while still attempting the remaining lines.
func (s *ApprovalService) runStockMutation(ctx context.Context, record *integration.ApprovalRecord) (bool, string) {
	rec, err := s.source.FetchByID(ctx, integration.EntityTypeSalesOrder, record.OrderID)
	if err != nil {
		return false, fmt.Sprintf("order fetch failed: %v", err)
	}
	order, ok := rec.(*integration.SalesOrder)
	if !ok {
		return false, fmt.Sprintf("unexpected record type %T for order %s", rec, record.OrderID)
	}

	var failures []string
	for _, line := range order.Lines {
		adj := integration.StockAdjustment{
			SKU:         line.SKU,
			Quantity:    line.Quantity,
			LocationID:  line.LocationID,
			ProductName: line.ProductName,
			SalesPrice:  line.PricePerUnit,
			Reference:   "approval:" + order.OrderNo,
		}
		if _, err := s.stock.IncreaseSourceStock(ctx, adj); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", line.SKU, err))
		}
	}

	if len(failures) > 0 {
		s.logger.Error("approval stock mutation failed",
			zap.String("order_id", record.OrderID),
			zap.Strings("failures", failures))
		return false, strings.Join(failures, "; ")
	}
	return true, fmt.Sprintf("stock incremented for %d lines", len(order.Lines))
}

func (s *ApprovalService) publish(ctx context.Context, event shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

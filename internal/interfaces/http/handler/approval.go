package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/interfaces/http/dto"
)

// ApprovalManager is the order approval workflow surface
type ApprovalManager interface {
	Create(ctx context.Context, orderID, orderNo string) (*integration.ApprovalRecord, error)
	Approve(ctx context.Context, orderID, approvedBy string) (*integration.ApprovalRecord, error)
	Reject(ctx context.Context, orderID, rejectedBy, reason string) (*integration.ApprovalRecord, error)
	ListByStatus(ctx context.Context, status integration.ApprovalStatus, page, pageSize int) ([]integration.ApprovalRecord, int64, error)
}

// ApprovalHandler exposes the order approval workflow
type ApprovalHandler struct {
	BaseHandler
	approvals ApprovalManager
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvals ApprovalManager) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// RegisterRoutes registers approval routes
func (h *ApprovalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	approvals := rg.Group("/approvals")
	{
		approvals.POST("", h.Create)
		approvals.GET("", h.List)
		approvals.POST("/:orderId/approve", h.Approve)
		approvals.POST("/:orderId/reject", h.Reject)
	}
}

// ApprovalResponse is the API view of an approval record
type ApprovalResponse struct {
	ID                   string     `json:"id"`
	OrderID              string     `json:"order_id"`
	OrderNo              string     `json:"order_no"`
	Status               string     `json:"status"`
	ApprovedBy           string     `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	RejectedReason       string     `json:"rejected_reason,omitempty"`
	StockMutationDone    bool       `json:"stock_mutation_done"`
	StockMutationSuccess bool       `json:"stock_mutation_success"`
	StockMutationMessage string     `json:"stock_mutation_message,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toApprovalResponse(record *integration.ApprovalRecord) ApprovalResponse {
	return ApprovalResponse{
		ID:                   record.ID.String(),
		OrderID:              record.OrderID,
		OrderNo:              record.OrderNo,
		Status:               string(record.Status),
		ApprovedBy:           record.ApprovedBy,
		ApprovedAt:           record.ApprovedAt,
		RejectedReason:       record.RejectedReason,
		StockMutationDone:    record.StockMutationDone,
		StockMutationSuccess: record.StockMutationSuccess,
		StockMutationMessage: record.StockMutationMessage,
		CreatedAt:            record.CreatedAt,
	}
}

// CreateApprovalRequest opens an approval for an order
type CreateApprovalRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	OrderNo string `json:"order_no" binding:"required"`
}

// Create opens a pending approval for an order
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.approvals.Create(c.Request.Context(), req.OrderID, req.OrderNo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toApprovalResponse(record))
}

// List returns approvals of one status, paginated
func (h *ApprovalHandler) List(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	status := integration.ApprovalStatus(c.DefaultQuery("status", string(integration.ApprovalStatusPending)))
	records, total, err := h.approvals.ListByStatus(c.Request.Context(), status, list.Page, list.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ApprovalResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toApprovalResponse(&records[i]))
	}
	h.SuccessWithMeta(c, responses, total, list.Page, list.PageSize)
}

// DecideApprovalRequest carries the decision maker and optional reason
type DecideApprovalRequest struct {
	DecidedBy string `json:"decided_by" binding:"required"`
	Reason    string `json:"reason"`
}

// Approve approves an order and triggers the one-time stock increment in
// Katana
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.approvals.Approve(c.Request.Context(), c.Param("orderId"), req.DecidedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toApprovalResponse(record))
}

// Reject rejects an order
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.approvals.Reject(c.Request.Context(), c.Param("orderId"), req.DecidedBy, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toApprovalResponse(record))
}

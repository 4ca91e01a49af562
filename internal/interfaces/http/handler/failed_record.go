package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
	"github.com/katanaluca/backend/internal/domain/integration"
	"github.com/katanaluca/backend/internal/interfaces/http/dto"
)

// FailedRecordManager is the failed-record recovery surface
type FailedRecordManager interface {
	List(ctx context.Context, filter integration.FailedRecordFilter) ([]integration.FailedRecord, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*integration.FailedRecord, error)
	Retry(ctx context.Context, id uuid.UUID) (*integration.FailedRecord, error)
	Resolve(ctx context.Context, id uuid.UUID, req appintegration.ResolveRequest) (*integration.FailedRecord, error)
	Ignore(ctx context.Context, id uuid.UUID, reason, ignoredBy string) (*integration.FailedRecord, error)
}

// FailedRecordHandler exposes the failed-record recovery endpoints
type FailedRecordHandler struct {
	BaseHandler
	records FailedRecordManager
}

// NewFailedRecordHandler creates a new FailedRecordHandler
func NewFailedRecordHandler(records FailedRecordManager) *FailedRecordHandler {
	return &FailedRecordHandler{records: records}
}

// RegisterRoutes registers failed record routes
func (h *FailedRecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	records := rg.Group("/failed-records")
	{
		records.GET("", h.List)
		records.GET("/:id", h.Get)
		records.POST("/:id/retry", h.Retry)
		records.POST("/:id/resolve", h.Resolve)
		records.POST("/:id/ignore", h.Ignore)
	}
}

// FailedRecordResponse is the API view of a failed record
type FailedRecordResponse struct {
	ID           string     `json:"id"`
	RecordType   string     `json:"record_type"`
	SourceSystem string     `json:"source_system"`
	ErrorMessage string     `json:"error_message"`
	ErrorCode    string     `json:"error_code,omitempty"`
	FailureClass string     `json:"failure_class"`
	RetryCount   int        `json:"retry_count"`
	Status       string     `json:"status"`
	FailedAt     time.Time  `json:"failed_at"`
	LastRetryAt  *time.Time `json:"last_retry_at,omitempty"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
	ResolvedBy   string     `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	// Payload carries the stored record snapshot, detail view only
	Payload json.RawMessage `json:"payload,omitempty"`
}

func toFailedRecordResponse(record *integration.FailedRecord, includePayload bool) FailedRecordResponse {
	resp := FailedRecordResponse{
		ID:           record.ID.String(),
		RecordType:   record.RecordType.String(),
		SourceSystem: record.SourceSystem.String(),
		ErrorMessage: record.ErrorMessage,
		ErrorCode:    record.ErrorCode,
		FailureClass: string(record.FailureClass),
		RetryCount:   record.RetryCount,
		Status:       string(record.Status),
		FailedAt:     record.FailedAt,
		LastRetryAt:  record.LastRetryAt,
		NextRetryAt:  record.NextRetryAt,
		Resolution:   record.Resolution,
		ResolvedBy:   record.ResolvedBy,
		ResolvedAt:   record.ResolvedAt,
	}
	if includePayload {
		resp.Payload = json.RawMessage(record.OriginalPayload)
	}
	return resp
}

// List returns failed records filtered by status, record type and source
// system
func (h *FailedRecordHandler) List(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := integration.FailedRecordFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("status"); raw != "" {
		status := integration.FailedRecordStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("recordType"); raw != "" {
		recordType := integration.EntityType(raw)
		if !recordType.IsValid() {
			h.BadRequest(c, "unknown record type: "+raw)
			return
		}
		filter.RecordType = &recordType
	}
	if raw := c.Query("sourceSystem"); raw != "" {
		system := integration.SourceSystem(raw)
		if !system.IsValid() {
			h.BadRequest(c, "unknown source system: "+raw)
			return
		}
		filter.SourceSystem = &system
	}

	records, total, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]FailedRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toFailedRecordResponse(&records[i], false))
	}
	h.SuccessWithMeta(c, responses, total, list.Page, list.PageSize)
}

// Get returns one failed record including its payload snapshot
func (h *FailedRecordHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	record, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFailedRecordResponse(record, true))
}

// Retry re-runs the sync for one failed record immediately
func (h *FailedRecordHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	record, err := h.records.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFailedRecordResponse(record, false))
}

// ResolveRequest marks a record as manually resolved
type ResolveRequest struct {
	Resolution       string          `json:"resolution" binding:"required"`
	ResolvedBy       string          `json:"resolved_by"`
	CorrectedPayload json.RawMessage `json:"corrected_payload,omitempty"`
	Resend           bool            `json:"resend"`
}

// Resolve marks a failed record as resolved, optionally replacing the
// payload and resending it
func (h *FailedRecordHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.records.Resolve(c.Request.Context(), id, appintegration.ResolveRequest{
		Resolution:       req.Resolution,
		ResolvedBy:       req.ResolvedBy,
		CorrectedPayload: req.CorrectedPayload,
		Resend:           req.Resend,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFailedRecordResponse(record, false))
}

// IgnoreRequest dismisses a record with a mandatory reason
type IgnoreRequest struct {
	Reason    string `json:"reason" binding:"required"`
	IgnoredBy string `json:"ignored_by"`
}

// Ignore dismisses a failed record
func (h *FailedRecordHandler) Ignore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	var req IgnoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.records.Ignore(c.Request.Context(), id, req.Reason, req.IgnoredBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFailedRecordResponse(record, false))
}

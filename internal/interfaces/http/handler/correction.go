package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// CorrectionManager is the propose/approve/apply correction surface
type CorrectionManager interface {
	Propose(ctx context.Context, system integration.SourceSystem, entityType integration.EntityType, entityID, fieldName, originalValue, correctedValue, reason string) (*integration.DataCorrection, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*integration.DataCorrection, error)
	Apply(ctx context.Context, id uuid.UUID) (*integration.DataCorrection, error)
	ListPending(ctx context.Context) ([]integration.DataCorrection, error)
	History(ctx context.Context, entityType integration.EntityType, entityID string) ([]integration.DataCorrection, error)
}

// CorrectionHandler exposes the data correction workflow
type CorrectionHandler struct {
	BaseHandler
	corrections CorrectionManager
}

// NewCorrectionHandler creates a new CorrectionHandler
func NewCorrectionHandler(corrections CorrectionManager) *CorrectionHandler {
	return &CorrectionHandler{corrections: corrections}
}

// RegisterRoutes registers correction routes
func (h *CorrectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	corrections := rg.Group("/corrections")
	{
		corrections.POST("", h.Propose)
		corrections.GET("", h.List)
		corrections.POST("/:id/approve", h.Approve)
		corrections.POST("/:id/apply", h.Apply)
	}
}

// CorrectionResponse is the API view of a data correction
type CorrectionResponse struct {
	ID             string     `json:"id"`
	SourceSystem   string     `json:"source_system"`
	EntityType     string     `json:"entity_type"`
	EntityID       string     `json:"entity_id"`
	FieldName      string     `json:"field_name"`
	OriginalValue  string     `json:"original_value"`
	CorrectedValue string     `json:"corrected_value"`
	Reason         string     `json:"reason"`
	IsApproved     bool       `json:"is_approved"`
	ApprovedBy     string     `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	AppliedAt      *time.Time `json:"applied_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toCorrectionResponse(correction *integration.DataCorrection) CorrectionResponse {
	return CorrectionResponse{
		ID:             correction.ID.String(),
		SourceSystem:   correction.SourceSystem.String(),
		EntityType:     correction.EntityType.String(),
		EntityID:       correction.EntityID,
		FieldName:      correction.FieldName,
		OriginalValue:  correction.OriginalValue,
		CorrectedValue: correction.CorrectedValue,
		Reason:         correction.Reason,
		IsApproved:     correction.IsApproved,
		ApprovedBy:     correction.ApprovedBy,
		ApprovedAt:     correction.ApprovedAt,
		AppliedAt:      correction.AppliedAt,
		CreatedAt:      correction.CreatedAt,
	}
}

// ProposeCorrectionRequest creates a correction proposal
type ProposeCorrectionRequest struct {
	SourceSystem   string `json:"source_system" binding:"required"`
	EntityType     string `json:"entity_type" binding:"required"`
	EntityID       string `json:"entity_id" binding:"required"`
	FieldName      string `json:"field_name" binding:"required"`
	OriginalValue  string `json:"original_value"`
	CorrectedValue string `json:"corrected_value" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// Propose records a correction proposal for approval
func (h *CorrectionHandler) Propose(c *gin.Context) {
	var req ProposeCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	system := integration.SourceSystem(req.SourceSystem)
	if !system.IsValid() {
		h.BadRequest(c, "unknown source system: "+req.SourceSystem)
		return
	}
	entityType := integration.EntityType(req.EntityType)
	if !entityType.IsValid() {
		h.BadRequest(c, "unknown entity type: "+req.EntityType)
		return
	}

	correction, err := h.corrections.Propose(c.Request.Context(), system, entityType,
		req.EntityID, req.FieldName, req.OriginalValue, req.CorrectedValue, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCorrectionResponse(correction))
}

// List returns pending corrections, or the history of one entity when
// entityType and entityId are given
func (h *CorrectionHandler) List(c *gin.Context) {
	if c.Query("pending") == "true" {
		corrections, err := h.corrections.ListPending(c.Request.Context())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toCorrectionResponses(corrections))
		return
	}

	entityType := integration.EntityType(c.Query("entityType"))
	entityID := c.Query("entityId")
	if !entityType.IsValid() || entityID == "" {
		h.BadRequest(c, "pass pending=true or entityType and entityId")
		return
	}

	corrections, err := h.corrections.History(c.Request.Context(), entityType, entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCorrectionResponses(corrections))
}

func toCorrectionResponses(corrections []integration.DataCorrection) []CorrectionResponse {
	responses := make([]CorrectionResponse, 0, len(corrections))
	for i := range corrections {
		responses = append(responses, toCorrectionResponse(&corrections[i]))
	}
	return responses
}

// ApproveCorrectionRequest authorizes a pending correction
type ApproveCorrectionRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// Approve authorizes a pending correction
func (h *CorrectionHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid correction ID")
		return
	}

	var req ApproveCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	correction, err := h.corrections.Approve(c.Request.Context(), id, req.ApprovedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCorrectionResponse(correction))
}

// Apply pushes an approved correction into the target system
func (h *CorrectionHandler) Apply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid correction ID")
		return
	}

	correction, err := h.corrections.Apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCorrectionResponse(correction))
}

package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// CodeMappingManager is the code mapping admin surface
type CodeMappingManager interface {
	List(ctx context.Context, mappingType integration.MappingType) ([]integration.CodeMapping, error)
	Upsert(ctx context.Context, mappingType integration.MappingType, katanaValue, lucaValue, description string) (*integration.CodeMapping, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CodeMappingHandler exposes code mapping administration
type CodeMappingHandler struct {
	BaseHandler
	mappings CodeMappingManager
}

// NewCodeMappingHandler creates a new CodeMappingHandler
func NewCodeMappingHandler(mappings CodeMappingManager) *CodeMappingHandler {
	return &CodeMappingHandler{mappings: mappings}
}

// RegisterRoutes registers code mapping routes
func (h *CodeMappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mappings := rg.Group("/code-mappings")
	{
		mappings.GET("", h.List)
		mappings.PUT("", h.Upsert)
		mappings.DELETE("/:id", h.Deactivate)
	}
}

// CodeMappingResponse is the API view of a code mapping
type CodeMappingResponse struct {
	ID          string    `json:"id"`
	MappingType string    `json:"mapping_type"`
	KatanaValue string    `json:"katana_value"`
	LucaValue   string    `json:"luca_value"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCodeMappingResponse(mapping *integration.CodeMapping) CodeMappingResponse {
	return CodeMappingResponse{
		ID:          mapping.ID.String(),
		MappingType: mapping.MappingType.String(),
		KatanaValue: mapping.KatanaValue,
		LucaValue:   mapping.LucaValue,
		Description: mapping.Description,
		IsActive:    mapping.IsActive,
		CreatedAt:   mapping.CreatedAt,
		UpdatedAt:   mapping.UpdatedAt,
	}
}

// List returns mappings of one type
func (h *CodeMappingHandler) List(c *gin.Context) {
	mappingType := integration.MappingType(c.Query("type"))
	if !mappingType.IsValid() {
		h.BadRequest(c, "unknown mapping type: "+c.Query("type"))
		return
	}

	mappings, err := h.mappings.List(c.Request.Context(), mappingType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CodeMappingResponse, 0, len(mappings))
	for i := range mappings {
		responses = append(responses, toCodeMappingResponse(&mappings[i]))
	}
	h.Success(c, responses)
}

// UpsertCodeMappingRequest creates or replaces a mapping
type UpsertCodeMappingRequest struct {
	MappingType string `json:"mapping_type" binding:"required"`
	KatanaValue string `json:"katana_value" binding:"required"`
	LucaValue   string `json:"luca_value" binding:"required"`
	Description string `json:"description"`
}

// Upsert creates a mapping or replaces the active one for the same Katana
// value
func (h *CodeMappingHandler) Upsert(c *gin.Context) {
	var req UpsertCodeMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mappingType := integration.MappingType(req.MappingType)
	if !mappingType.IsValid() {
		h.BadRequest(c, "unknown mapping type: "+req.MappingType)
		return
	}

	mapping, err := h.mappings.Upsert(c.Request.Context(), mappingType, req.KatanaValue, req.LucaValue, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCodeMappingResponse(mapping))
}

// Deactivate retires a mapping without deleting its history
func (h *CodeMappingHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid mapping ID")
		return
	}

	if err := h.mappings.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deactivated": true})
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
	"github.com/katanaluca/backend/internal/domain/integration"
)

// StatusProvider serves the dashboard summary
type StatusProvider interface {
	Status(ctx context.Context) (*appintegration.DashboardStatus, error)
}

// PassTrigger runs a sync pass for one entity type
type PassTrigger interface {
	RunPass(ctx context.Context, entityType integration.EntityType) (*appintegration.PassResult, error)
}

// SyncHandler exposes the sync dashboard and the manual pass trigger
type SyncHandler struct {
	BaseHandler
	status  StatusProvider
	trigger PassTrigger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(status StatusProvider, trigger PassTrigger) *SyncHandler {
	return &SyncHandler{status: status, trigger: trigger}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.GET("/status", h.Status)
		sync.POST("/:entityType/run", h.Run)
	}
}

// Status returns per-entity-type sync counts and the failed backlog
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.status.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Run triggers one sync pass. A pass already in flight for the same entity
// type answers 409.
func (h *SyncHandler) Run(c *gin.Context) {
	entityType := integration.EntityType(c.Param("entityType"))
	if !entityType.IsValid() {
		h.BadRequest(c, "unknown entity type: "+c.Param("entityType"))
		return
	}

	result, err := h.trigger.RunPass(c.Request.Context(), entityType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
)

// ProductComparer runs the read-only product reconciliation
type ProductComparer interface {
	CompareProducts(ctx context.Context) ([]appintegration.ComparisonRecord, error)
}

// ReconciliationHandler exposes the reconciliation report
type ReconciliationHandler struct {
	BaseHandler
	comparer ProductComparer
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(comparer ProductComparer) *ReconciliationHandler {
	return &ReconciliationHandler{comparer: comparer}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reconciliation/products", h.Products)
}

// Products returns the field-level comparison between Katana and Luca for
// every synced product
func (h *ReconciliationHandler) Products(c *gin.Context) {
	records, err := h.comparer.CompareProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

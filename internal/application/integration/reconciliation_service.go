package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// ComparisonConfig tunes the reconciliation comparator
type ComparisonConfig struct {
	// Epsilon is the tolerance for monetary comparisons; differences at or
	// below it are not reported
	Epsilon decimal.Decimal
	// Scale is the decimal scale both sides are rounded to before comparing
	Scale int32
}

// DataIssue is one field-level discrepancy between the two systems
type DataIssue struct {
	Field       string                    `json:"field"`
	Issue       string                    `json:"issue"`
	KatanaValue string                    `json:"katana_value"`
	LucaValue   string                    `json:"luca_value"`
	Severity    integration.IssueSeverity `json:"severity"`
}

// ComparisonRecord is the reconciliation result for one product
type ComparisonRecord struct {
	SKU        string                   `json:"sku"`
	Name       string                   `json:"name"`
	KatanaData *integration.ProductView `json:"katana_data,omitempty"`
	LucaData   *integration.ProductView `json:"luca_data,omitempty"`
	Issues     []DataIssue              `json:"issues"`
}

// ReconciliationService compares product data between Katana and Luca.
// Comparison is read-only: it reports discrepancies and never writes to
// either system. Corrections are separate, explicitly approved actions.
type ReconciliationService struct {
	source   integration.SourceClient
	target   integration.TargetClient
	mappings integration.SyncMappingRepository
	logger   *zap.Logger
	config   ComparisonConfig
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(
	source integration.SourceClient,
	target integration.TargetClient,
	mappings integration.SyncMappingRepository,
	logger *zap.Logger,
	config ComparisonConfig,
) *ReconciliationService {
	if config.Epsilon.IsZero() {
		config.Epsilon = decimal.NewFromFloat(0.01)
	}
	if config.Scale <= 0 {
		config.Scale = 2
	}
	return &ReconciliationService{
		source:   source,
		target:   target,
		mappings: mappings,
		logger:   logger,
		config:   config,
	}
}

// CompareProducts fetches every product from Katana and compares it against
// its synced Luca counterpart. Products without a Luca record produce a
// single critical issue; value drift on synced products produces one issue
// per differing field.
func (s *ReconciliationService) CompareProducts(ctx context.Context) ([]ComparisonRecord, error) {
	records, err := s.source.FetchChanged(ctx, integration.EntityTypeProduct, time.Time{})
	if err != nil {
		return nil, err
	}

	results := make([]ComparisonRecord, 0, len(records))
	for _, rec := range records {
		product, ok := rec.(*integration.Product)
		if !ok {
			continue
		}
		result, err := s.compareOne(ctx, product)
		if err != nil {
			return nil, err
		}
		if len(result.Issues) > 0 {
			results = append(results, *result)
		}
	}

	s.logger.Info("product reconciliation completed",
		zap.Int("products", len(records)),
		zap.Int("with_issues", len(results)))
	return results, nil
}

func (s *ReconciliationService) compareOne(ctx context.Context, product *integration.Product) (*ComparisonRecord, error) {
	katanaView := integration.KatanaProductView(product, s.config.Scale)
	result := &ComparisonRecord{
		SKU:        product.SKU,
		Name:       product.Name,
		KatanaData: &katanaView,
	}

	mapping, err := s.mappings.FindByKatanaID(ctx, integration.EntityTypeProduct, product.KatanaID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncMappingNotFound) {
			result.Issues = append(result.Issues, missingOnLuca(product))
			return result, nil
		}
		return nil, err
	}
	if !mapping.IsSynced() {
		result.Issues = append(result.Issues, missingOnLuca(product))
		return result, nil
	}

	lucaRecord, err := s.target.FetchByID(ctx, integration.EntityTypeProduct, *mapping.LucaID)
	if err != nil {
		if errors.Is(err, integration.ErrVendorRejected) {
			// the mapping points at a record Luca no longer has
			result.Issues = append(result.Issues, missingOnLuca(product))
			return result, nil
		}
		return nil, err
	}

	lucaView := integration.LucaProductView(lucaRecord, s.config.Scale)
	result.LucaData = &lucaView
	result.Issues = s.compareViews(katanaView, lucaView)
	return result, nil
}

// compareViews reports field-level drift between two normalized views.
// Monetary fields use the epsilon tolerance, identifiers and flags compare
// exactly, and name differences are cosmetic.
func (s *ReconciliationService) compareViews(katana, luca integration.ProductView) []DataIssue {
	var issues []DataIssue

	if katana.Price.Sub(luca.Price).Abs().GreaterThan(s.config.Epsilon) {
		issues = append(issues, DataIssue{
			Field:       "price",
			Issue:       "sales price differs beyond tolerance",
			KatanaValue: katana.Price.String(),
			LucaValue:   luca.Price.String(),
			Severity:    integration.SeverityWarning,
		})
	}

	if !katana.Stock.Equal(luca.Stock) {
		issues = append(issues, DataIssue{
			Field:       "stock",
			Issue:       "stock quantity differs",
			KatanaValue: katana.Stock.String(),
			LucaValue:   luca.Stock.String(),
			Severity:    integration.SeverityWarning,
		})
	}

	if !katana.TaxRate.Equal(luca.TaxRate) {
		issues = append(issues, DataIssue{
			Field:       "tax_rate",
			Issue:       "tax rate differs",
			KatanaValue: katana.TaxRate.String(),
			LucaValue:   luca.TaxRate.String(),
			Severity:    integration.SeverityWarning,
		})
	}

	if katana.IsActive != luca.IsActive {
		issues = append(issues, DataIssue{
			Field:       "is_active",
			Issue:       "active flag differs",
			KatanaValue: boolString(katana.IsActive),
			LucaValue:   boolString(luca.IsActive),
			Severity:    integration.SeverityWarning,
		})
	}

	if katana.Name != luca.Name {
		issue := "name differs"
		if strings.EqualFold(katana.Name, luca.Name) {
			issue = "name differs only in casing"
		}
		issues = append(issues, DataIssue{
			Field:       "name",
			Issue:       issue,
			KatanaValue: katana.Name,
			LucaValue:   luca.Name,
			Severity:    integration.SeverityInfo,
		})
	}

	return issues
}

func missingOnLuca(product *integration.Product) DataIssue {
	return DataIssue{
		Field:       "record",
		Issue:       "product exists in katana but not in luca",
		KatanaValue: product.SKU,
		LucaValue:   "",
		Severity:    integration.SeverityCritical,
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

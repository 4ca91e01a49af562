package integration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account code prefixes follow the Luca chart of accounts: 120 for trade
// receivables (customers), 320 for trade payables (suppliers).
const (
	customerAccountPrefix = "120."
	supplierAccountPrefix = "320."
)

var oneHundred = decimal.NewFromInt(100)

// TranslateOptions carries identity context the translator cannot resolve
// itself: Luca IDs come from sync mappings, which are I/O.
type TranslateOptions struct {
	// LucaID is the target record for updates, empty for creates
	LucaID string
	// AccountLucaID is the already-synced Luca account an invoice belongs
	// to. Required for order payloads.
	AccountLucaID string
}

// ToLucaPayload translates a normalized Katana record into a complete
// Luca-shaped payload. It is pure: all mapping lookups hit the supplied
// context. Any unresolved mapping or missing required field fails the whole
// translation; no partial payload is ever returned.
//
// Intentionally dropped fields:
//   - SalesOrder.Status / PurchaseOrder.Status: Luca invoices carry no
//     order workflow state
//   - StockMovement.MovementType: the sign of Quantity conveys direction
func ToLucaPayload(rec Record, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	switch r := rec.(type) {
	case *Customer:
		return translateCustomer(r, mctx, opts)
	case *Supplier:
		return translateSupplier(r, mctx, opts)
	case *Product:
		return translateProduct(r, mctx, opts)
	case *SalesOrder:
		return translateOrder(EntityTypeSalesOrder, r.KatanaID, r.OrderNo, r.Currency, r.Total, r.Lines, r.OrderedAt, mctx, opts)
	case *PurchaseOrder:
		return translateOrder(EntityTypePurchaseOrder, r.KatanaID, r.OrderNo, r.Currency, r.Total, r.Lines, r.OrderedAt, mctx, opts)
	case *StockMovement:
		return translateStockMovement(r, mctx, opts)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, rec)
	}
}

func translateCustomer(c *Customer, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: customer name", ErrMissingRequired)
	}
	paymentCode := ""
	if c.PaymentTerm != "" {
		resolved, err := mctx.Resolve(MappingTypePaymentTerm, c.PaymentTerm)
		if err != nil {
			return nil, err
		}
		paymentCode = resolved
	}
	return &LucaAccountPayload{
		EntityType:  EntityTypeCustomer,
		KatanaID:    c.KatanaID,
		LucaID:      opts.LucaID,
		AccountCode: customerAccountPrefix + c.KatanaID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		TaxNumber:   c.TaxNumber,
		Address:     c.Address,
		City:        c.City,
		Country:     c.Country,
		PaymentCode: paymentCode,
		Currency:    defaultCurrency(c.Currency),
		IsActive:    c.IsActive,
	}, nil
}

func translateSupplier(s *Supplier, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	if strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("%w: supplier name", ErrMissingRequired)
	}
	paymentCode := ""
	if s.PaymentTerm != "" {
		resolved, err := mctx.Resolve(MappingTypePaymentTerm, s.PaymentTerm)
		if err != nil {
			return nil, err
		}
		paymentCode = resolved
	}
	return &LucaAccountPayload{
		EntityType:  EntityTypeSupplier,
		KatanaID:    s.KatanaID,
		LucaID:      opts.LucaID,
		AccountCode: supplierAccountPrefix + s.KatanaID,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		TaxNumber:   s.TaxNumber,
		Address:     s.Address,
		PaymentCode: paymentCode,
		Currency:    defaultCurrency(s.Currency),
		IsActive:    s.IsActive,
	}, nil
}

func translateProduct(p *Product, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	if strings.TrimSpace(p.SKU) == "" {
		return nil, fmt.Errorf("%w: product SKU", ErrMissingRequired)
	}
	if strings.TrimSpace(p.Category) == "" {
		return nil, fmt.Errorf("%w: product category (sku %s)", ErrMissingRequired, p.SKU)
	}
	if strings.TrimSpace(p.UnitOfMeasure) == "" {
		return nil, fmt.Errorf("%w: product unit of measure (sku %s)", ErrMissingRequired, p.SKU)
	}
	groupCode, err := mctx.Resolve(MappingTypeCategory, p.Category)
	if err != nil {
		return nil, err
	}
	unitCode, err := mctx.Resolve(MappingTypeUnitOfMeasure, p.UnitOfMeasure)
	if err != nil {
		return nil, err
	}
	vatRate, err := resolveVATRate(mctx, p.TaxRatePercent)
	if err != nil {
		return nil, err
	}
	return &LucaStockCardPayload{
		KatanaID:  p.KatanaID,
		LucaID:    opts.LucaID,
		CardCode:  p.SKU,
		Name:      p.Name,
		GroupCode: groupCode,
		UnitCode:  unitCode,
		Price:     p.SalesPrice,
		Cost:      p.CostPrice,
		VATRate:   vatRate,
		Stock:     p.OnHand,
		IsActive:  p.IsActive,
	}, nil
}

func translateOrder(entityType EntityType, katanaID, orderNo, currency string, total decimal.Decimal, lines []OrderLine, issuedAt time.Time, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order %s has no lines", ErrMissingRequired, orderNo)
	}
	if opts.AccountLucaID == "" {
		return nil, fmt.Errorf("%w: order %s account not synced to luca", ErrTranslationFailed, orderNo)
	}
	payloadLines := make([]LucaInvoiceLine, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.SKU) == "" {
			return nil, fmt.Errorf("%w: order %s line without SKU", ErrMissingRequired, orderNo)
		}
		warehouseCode := ""
		if line.LocationID != "" {
			resolved, err := mctx.Resolve(MappingTypeWarehouse, line.LocationID)
			if err != nil {
				return nil, err
			}
			warehouseCode = resolved
		}
		vatRate, err := resolveVATRate(mctx, line.TaxRatePercent)
		if err != nil {
			return nil, err
		}
		payloadLines = append(payloadLines, LucaInvoiceLine{
			CardCode:      line.SKU,
			Name:          line.ProductName,
			Quantity:      line.Quantity,
			Price:         line.PricePerUnit,
			VATRate:       vatRate,
			WarehouseCode: warehouseCode,
		})
	}
	return &LucaInvoicePayload{
		EntityType:    entityType,
		KatanaID:      katanaID,
		LucaID:        opts.LucaID,
		DocumentNo:    orderNo,
		AccountLucaID: opts.AccountLucaID,
		Currency:      defaultCurrency(currency),
		Total:         total,
		IssuedAt:      issuedAt,
		Lines:         payloadLines,
	}, nil
}

func translateStockMovement(m *StockMovement, mctx *MappingContext, opts TranslateOptions) (LucaPayload, error) {
	if strings.TrimSpace(m.SKU) == "" {
		return nil, fmt.Errorf("%w: stock movement SKU", ErrMissingRequired)
	}
	if strings.TrimSpace(m.LocationID) == "" {
		return nil, fmt.Errorf("%w: stock movement location (sku %s)", ErrMissingRequired, m.SKU)
	}
	warehouseCode, err := mctx.Resolve(MappingTypeWarehouse, m.LocationID)
	if err != nil {
		return nil, err
	}
	return &LucaStockReceiptPayload{
		KatanaID:      m.KatanaID,
		LucaID:        opts.LucaID,
		CardCode:      m.SKU,
		WarehouseCode: warehouseCode,
		Quantity:      m.Quantity,
		Reference:     m.Reference,
		MovedAt:       m.MovedAt,
	}, nil
}

// resolveVATRate maps a Katana percentage rate to its Luca fractional form.
// An explicit TAX_RATE mapping keyed by the percentage string wins; without
// one the rate converts numerically (18 becomes 0.18).
func resolveVATRate(mctx *MappingContext, percent decimal.Decimal) (decimal.Decimal, error) {
	mapped, err := mctx.Resolve(MappingTypeTaxRate, percent.String())
	if err != nil {
		if errors.Is(err, ErrCodeMappingNotFound) {
			return PercentToFraction(percent), nil
		}
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(mapped)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: tax rate mapping %q is not numeric", ErrTranslationFailed, mapped)
	}
	return rate, nil
}

// RequiredMappingTypes returns the code mapping types a translation of the
// given entity type can touch; the orchestrator snapshots exactly these.
func RequiredMappingTypes(entityType EntityType) []MappingType {
	switch entityType {
	case EntityTypeCustomer, EntityTypeSupplier:
		return []MappingType{MappingTypePaymentTerm}
	case EntityTypeProduct:
		return []MappingType{MappingTypeCategory, MappingTypeUnitOfMeasure, MappingTypeTaxRate}
	case EntityTypeSalesOrder, EntityTypePurchaseOrder:
		return []MappingType{MappingTypeWarehouse, MappingTypeTaxRate}
	case EntityTypeStockMovement:
		return []MappingType{MappingTypeWarehouse}
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Normalization helpers and comparable views
// ---------------------------------------------------------------------------

// PercentToFraction converts a percentage tax rate (18) to its fractional
// form (0.18)
func PercentToFraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(oneHundred)
}

// FractionToPercent converts a fractional tax rate (0.18) to its percentage
// form (18)
func FractionToPercent(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Mul(oneHundred)
}

// ProductView is the normalized, comparison-ready projection of a product.
// Both sides are projected through the same units and scale, so equal data
// yields equal views regardless of origin.
type ProductView struct {
	SKU      string
	Name     string
	Price    decimal.Decimal
	Stock    decimal.Decimal
	TaxRate  decimal.Decimal
	IsActive bool
}

// KatanaProductView projects a normalized Katana product for comparison.
// Monetary values are rounded to scale; the tax rate becomes a fraction.
func KatanaProductView(p *Product, scale int32) ProductView {
	return ProductView{
		SKU:      p.SKU,
		Name:     strings.TrimSpace(p.Name),
		Price:    p.SalesPrice.Round(scale),
		Stock:    p.OnHand,
		TaxRate:  PercentToFraction(p.TaxRatePercent),
		IsActive: p.IsActive,
	}
}

// LucaProductView projects a Luca record for comparison
func LucaProductView(r *LucaRecord, scale int32) ProductView {
	return ProductView{
		SKU:      r.Code,
		Name:     strings.TrimSpace(r.Name),
		Price:    r.Price.Round(scale),
		Stock:    r.Stock,
		TaxRate:  r.TaxRate,
		IsActive: r.IsActive,
	}
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "TRY"
	}
	return currency
}

package katana

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/katanaluca/backend/internal/domain/integration"
)

// Katana responds with dual-cased SKU fields depending on the endpoint and
// API vintage ("sku" on list endpoints, "SKU" on some detail payloads). The
// wire types accept both and normalization happens here, so nothing past
// this package ever branches on field casing.

// listEnvelope is the standard Katana collection response
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// detailEnvelope is the standard Katana single-record response
type detailEnvelope[T any] struct {
	Data T `json:"data"`
}

type wireCustomer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	TaxNumber   string    `json:"tax_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	PaymentTerm string    `json:"payment_term"`
	Currency    string    `json:"currency"`
	IsActive    *bool     `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (w wireCustomer) toDomain() integration.Record {
	return &integration.Customer{
		KatanaID:    strconv.FormatInt(w.ID, 10),
		Name:        w.Name,
		Email:       w.Email,
		Phone:       w.Phone,
		TaxNumber:   w.TaxNumber,
		Address:     w.Address,
		City:        w.City,
		Country:     w.Country,
		PaymentTerm: w.PaymentTerm,
		Currency:    w.Currency,
		IsActive:    boolOrTrue(w.IsActive),
		UpdatedAt:   w.UpdatedAt,
	}
}

type wireSupplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	TaxNumber   string    `json:"tax_number"`
	Address     string    `json:"address"`
	PaymentTerm string    `json:"payment_term"`
	Currency    string    `json:"currency"`
	IsActive    *bool     `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (w wireSupplier) toDomain() integration.Record {
	return &integration.Supplier{
		KatanaID:    strconv.FormatInt(w.ID, 10),
		Name:        w.Name,
		Email:       w.Email,
		Phone:       w.Phone,
		TaxNumber:   w.TaxNumber,
		Address:     w.Address,
		PaymentTerm: w.PaymentTerm,
		Currency:    w.Currency,
		IsActive:    boolOrTrue(w.IsActive),
		UpdatedAt:   w.UpdatedAt,
	}
}

type wireVariant struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	SKUUpper      string          `json:"SKU"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	OnHand        decimal.Decimal `json:"on_hand"`
	IsActive      *bool           `json:"is_active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (w wireVariant) sku() string {
	if w.SKU != "" {
		return w.SKU
	}
	return w.SKUUpper
}

func (w wireVariant) toDomain() integration.Record {
	return &integration.Product{
		KatanaID:       strconv.FormatInt(w.ID, 10),
		SKU:            w.sku(),
		Name:           w.Name,
		Category:       w.Category,
		UnitOfMeasure:  w.UnitOfMeasure,
		SalesPrice:     w.SalesPrice,
		CostPrice:      w.PurchasePrice,
		TaxRatePercent: w.TaxRate,
		OnHand:         w.OnHand,
		IsActive:       boolOrTrue(w.IsActive),
		UpdatedAt:      w.UpdatedAt,
	}
}

type wireOrderRow struct {
	SKU          string          `json:"sku"`
	SKUUpper     string          `json:"SKU"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	LocationID   string          `json:"location_id"`
}

func (w wireOrderRow) sku() string {
	if w.SKU != "" {
		return w.SKU
	}
	return w.SKUUpper
}

func (w wireOrderRow) toDomain() integration.OrderLine {
	return integration.OrderLine{
		SKU:            w.sku(),
		ProductName:    w.ProductName,
		Quantity:       w.Quantity,
		PricePerUnit:   w.PricePerUnit,
		TaxRatePercent: w.TaxRate,
		LocationID:     w.LocationID,
	}
}

type wireSalesOrder struct {
	ID         int64           `json:"id"`
	OrderNo    string          `json:"order_no"`
	CustomerID int64           `json:"customer_id"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Rows       []wireOrderRow  `json:"sales_order_rows"`
	OrderedAt  time.Time       `json:"order_created_date"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (w wireSalesOrder) toDomain() integration.Record {
	lines := make([]integration.OrderLine, 0, len(w.Rows))
	for _, row := range w.Rows {
		lines = append(lines, row.toDomain())
	}
	return &integration.SalesOrder{
		KatanaID:         strconv.FormatInt(w.ID, 10),
		OrderNo:          w.OrderNo,
		CustomerKatanaID: strconv.FormatInt(w.CustomerID, 10),
		Currency:         w.Currency,
		Status:           w.Status,
		Total:            w.Total,
		Lines:            lines,
		OrderedAt:        w.OrderedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

type wirePurchaseOrder struct {
	ID         int64           `json:"id"`
	OrderNo    string          `json:"order_no"`
	SupplierID int64           `json:"supplier_id"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Rows       []wireOrderRow  `json:"purchase_order_rows"`
	OrderedAt  time.Time       `json:"order_created_date"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (w wirePurchaseOrder) toDomain() integration.Record {
	lines := make([]integration.OrderLine, 0, len(w.Rows))
	for _, row := range w.Rows {
		lines = append(lines, row.toDomain())
	}
	return &integration.PurchaseOrder{
		KatanaID:         strconv.FormatInt(w.ID, 10),
		OrderNo:          w.OrderNo,
		SupplierKatanaID: strconv.FormatInt(w.SupplierID, 10),
		Currency:         w.Currency,
		Status:           w.Status,
		Total:            w.Total,
		Lines:            lines,
		OrderedAt:        w.OrderedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

type wireStockMovement struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	SKUUpper     string          `json:"SKU"`
	LocationID   string          `json:"location_id"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference"`
	MovedAt      time.Time       `json:"moved_at"`
}

func (w wireStockMovement) sku() string {
	if w.SKU != "" {
		return w.SKU
	}
	return w.SKUUpper
}

func (w wireStockMovement) toDomain() integration.Record {
	return &integration.StockMovement{
		KatanaID:     strconv.FormatInt(w.ID, 10),
		SKU:          w.sku(),
		LocationID:   w.LocationID,
		MovementType: w.MovementType,
		Quantity:     w.Quantity,
		Reference:    w.Reference,
		MovedAt:      w.MovedAt,
	}
}

// stockAdjustmentRequest is the body for a stock increment
type stockAdjustmentRequest struct {
	SKU         string          `json:"sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	LocationID  string          `json:"location_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	SalesPrice  decimal.Decimal `json:"sales_price,omitempty"`
	Reference   string          `json:"reference,omitempty"`
}

type wireStockMutation struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	NewStock decimal.Decimal `json:"new_stock"`
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}
